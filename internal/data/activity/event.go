// Package activity encodes host-environment activity signals as JSON lines
// and follows a log of them as it grows.
package activity

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/util"
)

// EventType distinguishes the three kinds of signal.
type EventType string

const (
	EventPing   EventType = "ping"
	EventFocus  EventType = "focus"
	EventEditor EventType = "editor"
)

// Event is one line of the activity log.
type Event struct {
	Type      EventType `json:"type"`
	Category  string    `json:"category,omitempty"`
	Source    string    `json:"source,omitempty"`
	Focused   bool      `json:"focused,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Validate rejects unknown event types.
func (e Event) Validate() error {
	switch e.Type {
	case EventPing, EventFocus, EventEditor:
		return nil
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
}

// Document returns the event's document, or nil when it names none.
func (e Event) Document() *model.Document {
	if e.Category == "" || e.Source == "" {
		return nil
	}
	return &model.Document{Category: e.Category, SourceID: e.Source}
}

// Ping converts a ping event.
func (e Event) Ping() model.ActivityPing {
	return model.ActivityPing{Category: e.Category, SourceID: e.Source, Timestamp: e.Timestamp}
}

// Focus converts a focus event.
func (e Event) Focus() model.FocusEvent {
	return model.FocusEvent{Focused: e.Focused, Document: e.Document(), Timestamp: e.Timestamp}
}

// Decode parses one JSON line.
func Decode(line []byte) (Event, error) {
	var ev Event
	if err := sonic.Unmarshal(line, &ev); err != nil {
		return Event{}, err
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Encode renders ev as a single line including the trailing newline.
func Encode(ev Event) ([]byte, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	data, err := sonic.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Append writes ev to the end of the log at path, creating it if needed.
func Append(path string, ev Event) error {
	line, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadAll decodes every valid line of r. Invalid lines are skipped.
func ReadAll(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineCount := 0
	for scanner.Scan() {
		lineCount++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		ev, err := Decode(line)
		if err != nil {
			util.LogDebug("Skip invalid activity line", util.F("line", lineCount), util.F("error", err.Error()))
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, err
	}
	return events, nil
}
