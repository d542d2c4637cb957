// Package watch wires the tracker, the activity log, the store and the
// goal notifier into the long-running watch command.
package watch

import (
	"context"
	"fmt"

	"github.com/penwyp/go-worktime/internal/config"
	"github.com/penwyp/go-worktime/internal/core/category"
	"github.com/penwyp/go-worktime/internal/data/aggregator"
	"github.com/penwyp/go-worktime/internal/data/store"
	"github.com/penwyp/go-worktime/internal/util"
)

// Engine is the storage side shared by every command: the opened backend,
// the daily store on top of it and the aggregator.
type Engine struct {
	KV         store.KV
	Store      *store.DailyStore
	Aggregator *aggregator.Aggregator
	Time       *util.TimeProvider
	Directory  *category.Directory
}

// OpenEngine opens the configured backend. A file backend is warmed up
// before it is returned.
func OpenEngine(ctx context.Context, cfg *config.Config) (*Engine, error) {
	tp, err := util.NewTimeProvider(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize timezone: %w", err)
	}

	kv, err := store.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	if fkv, ok := kv.(*store.FileKV); ok {
		if err := fkv.Preload(ctx); err != nil {
			kv.Close()
			return nil, fmt.Errorf("preload failed: %w", err)
		}
		util.LogDebug("Store preloaded", util.F("entries", fkv.CachedCount()))
	}

	daily, err := store.NewDailyStore(kv)
	if err != nil {
		kv.Close()
		return nil, err
	}
	agg, err := aggregator.New(daily, tp, cfg.Tracker.MinSession)
	if err != nil {
		kv.Close()
		return nil, err
	}

	return &Engine{
		KV:         kv,
		Store:      daily,
		Aggregator: agg,
		Time:       tp,
		Directory:  category.NewDirectory(cfg.Categories),
	}, nil
}

// Close releases the backend.
func (e *Engine) Close() error {
	if e == nil || e.KV == nil {
		return nil
	}
	return e.KV.Close()
}
