package activity

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-worktime/internal/util"
)

// Tailer follows an activity log and emits each new complete line as an
// Event. The directory is watched rather than the file so the log may be
// created or replaced after the tailer starts.
type Tailer struct {
	path    string
	watcher *fsnotify.Watcher
	events  chan Event
	offset  int64
	partial []byte
}

// NewTailer starts watching path. With fromStart the existing contents are
// replayed; otherwise only lines appended from now on are emitted.
func NewTailer(path string, fromStart bool) (*Tailer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	t := &Tailer{
		path:    abs,
		watcher: watcher,
		events:  make(chan Event, 100),
	}
	if !fromStart {
		if info, err := os.Stat(abs); err == nil {
			t.offset = info.Size()
		}
	}
	return t, nil
}

// Events delivers decoded events. It is closed when Run returns.
func (t *Tailer) Events() <-chan Event {
	return t.events
}

// Run reads the log until ctx is cancelled or the watcher fails.
func (t *Tailer) Run(ctx context.Context) error {
	defer close(t.events)
	defer t.watcher.Close()

	if err := t.readNew(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-t.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != t.path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				t.offset = 0
				t.partial = nil
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := t.readNew(ctx); err != nil {
					util.LogError("Failed to read activity log", util.F("path", t.path), util.F("error", err.Error()))
				}
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return nil
			}
			util.LogError("Activity log watch error", util.F("error", err.Error()))
		}
	}
}

func (t *Tailer) readNew(ctx context.Context) error {
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() < t.offset {
		util.LogDebug("Activity log truncated, rereading", util.F("path", t.path))
		t.offset = 0
		t.partial = nil
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	t.offset += int64(len(data))

	buf := append(t.partial, data...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSpace(buf[:i])
		buf = buf[i+1:]
		if len(line) == 0 {
			continue
		}

		ev, err := Decode(line)
		if err != nil {
			util.LogDebug("Skip invalid activity line", util.F("error", err.Error()))
			continue
		}
		select {
		case t.events <- ev:
		case <-ctx.Done():
			return nil
		}
	}
	t.partial = append([]byte(nil), buf...)
	return nil
}
