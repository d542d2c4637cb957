// Package store persists daily aggregates in a key-value backend.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// KV is the key-value backend behind DailyStore. Keys are chosen by the
// caller and are safe to use as file names.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open creates the backend named by kind rooted at path.
func Open(kind, path string) (KV, error) {
	switch strings.ToLower(kind) {
	case "", BackendFile:
		return NewFileKV(path)
	case BackendSQLite:
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "worktime.db")
		}
		return NewSQLiteKV(path)
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (want file, sqlite or memory)", kind)
	}
}
