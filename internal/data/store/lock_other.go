//go:build !unix

package store

import "sync"

// fileLock only serializes writers inside this process.
type fileLock struct {
	mu sync.Mutex
}

func openFileLock(string) (*fileLock, error) {
	return &fileLock{}, nil
}

func (l *fileLock) Lock() error {
	l.mu.Lock()
	return nil
}

func (l *fileLock) Unlock() error {
	l.mu.Unlock()
	return nil
}

func (l *fileLock) Close() error {
	return nil
}
