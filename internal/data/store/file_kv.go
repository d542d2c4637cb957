package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/penwyp/go-worktime/internal/util"
)

const fileExt = ".json"

// FileKV stores one JSON file per key under baseDir, with a read-through
// memory layer. Writes go to a temp file and are renamed into place while
// holding an advisory lock, so concurrent processes never see partial data.
// A cached entry is served only while its file still has the same identity,
// size and modtime; changes made by another process invalidate it.
type FileKV struct {
	baseDir     string
	mu          sync.RWMutex
	memoryCache map[string]cachedFile
	lock        *fileLock
}

type cachedFile struct {
	data []byte
	info os.FileInfo
}

// matches reports whether current still describes the file the entry was
// read from. Every write renames a new file into place, so SameFile catches
// rewrites that keep the size and the modtime.
func (e cachedFile) matches(current os.FileInfo) bool {
	return os.SameFile(e.info, current) &&
		e.info.Size() == current.Size() &&
		e.info.ModTime().Equal(current.ModTime())
}

func NewFileKV(baseDir string) (*FileKV, error) {
	if baseDir == "" {
		return nil, errors.New("file store requires a directory")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	lock, err := openFileLock(filepath.Join(baseDir, ".lock"))
	if err != nil {
		return nil, err
	}

	return &FileKV{
		baseDir:     baseDir,
		memoryCache: make(map[string]cachedFile),
		lock:        lock,
	}, nil
}

func (c *FileKV) pathFor(key string) string {
	return filepath.Join(c.baseDir, filepath.FromSlash(key)+fileExt)
}

func (c *FileKV) keyFor(path string) (string, bool) {
	rel, err := filepath.Rel(c.baseDir, path)
	if err != nil || !strings.HasSuffix(rel, fileExt) {
		return "", false
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, fileExt)), true
}

func (c *FileKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.pathFor(key)

	c.mu.RLock()
	entry, cached := c.memoryCache[key]
	c.mu.RUnlock()

	current, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if cached {
			util.LogDebug("Store entry removed on disk, dropping cached copy", util.F("key", key))
			c.forget(key)
		}
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if cached {
		if entry.matches(current) {
			return cloneBytes(entry.data), true, nil
		}
		util.LogDebug("Store entry changed on disk, reloading", util.F("key", key))
	}

	entry, err = readCachedFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.forget(key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	c.memoryCache[key] = entry
	c.mu.Unlock()

	return cloneBytes(entry.data), true, nil
}

func (c *FileKV) forget(key string) {
	c.mu.Lock()
	delete(c.memoryCache, key)
	c.mu.Unlock()
}

// readCachedFile reads a file together with the stat of the same open
// handle, so the recorded identity always belongs to the bytes read.
func readCachedFile(path string) (cachedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return cachedFile{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return cachedFile{}, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return cachedFile{}, err
	}
	return cachedFile{data: data, info: info}, nil
}

func (c *FileKV) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	defer c.lock.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(c.memoryCache, key)
		return nil
	}
	c.memoryCache[key] = cachedFile{data: cloneBytes(value), info: info}
	return nil
}

func (c *FileKV) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.memoryCache, key)

	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	defer c.lock.Unlock()

	if err := os.Remove(c.pathFor(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (c *FileKV) ListKeys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(c.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if key, ok := c.keyFor(path); ok && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *FileKV) Close() error {
	return c.lock.Close()
}

// Preload reads every stored file into the memory layer using a worker pool.
func (c *FileKV) Preload(ctx context.Context) error {
	keys, err := c.ListKeys(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to scan store directory: %w", err)
	}
	if len(keys) == 0 {
		util.LogDebug("Store directory is empty, skipping preload")
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(keys) {
		numWorkers = len(keys)
	}

	keysChan := make(chan string, len(keys))
	resultsChan := make(chan preloadResult, len(keys))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go c.preloadWorker(keysChan, resultsChan, &wg)
	}

	for _, key := range keys {
		keysChan <- key
	}
	close(keysChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	loaded, failed := 0, 0
	c.mu.Lock()
	for result := range resultsChan {
		if result.err != nil {
			failed++
			util.LogWarn("Failed to preload store file", util.F("key", result.key), util.F("error", result.err.Error()))
			continue
		}
		c.memoryCache[result.key] = result.entry
		loaded++
	}
	c.mu.Unlock()

	util.LogDebug("Store preload complete",
		util.F("loaded", loaded),
		util.F("failed", failed),
		util.F("workers", numWorkers))
	return nil
}

type preloadResult struct {
	key   string
	entry cachedFile
	err   error
}

func (c *FileKV) preloadWorker(keysChan <-chan string, resultsChan chan<- preloadResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for key := range keysChan {
		entry, err := readCachedFile(c.pathFor(key))
		resultsChan <- preloadResult{key: key, entry: entry, err: err}
	}
}

// CachedCount returns the number of keys held in the memory layer.
func (c *FileKV) CachedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memoryCache)
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
