// Package tracker turns activity signals into closed work sessions.
package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/penwyp/go-worktime/internal/core/constants"
	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/util"
)

// Config holds the session timing thresholds.
type Config struct {
	IdleTimeout     time.Duration
	HeartbeatPeriod time.Duration
	MinSession      time.Duration
}

// DefaultConfig returns the recommended thresholds.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:     constants.DefaultIdleTimeout,
		HeartbeatPeriod: constants.DefaultHeartbeatPeriod,
		MinSession:      constants.DefaultMinSession,
	}
}

// Validate rejects non-positive thresholds.
func (c Config) Validate() error {
	switch {
	case c.IdleTimeout <= 0:
		return &model.ConfigurationError{Component: "tracker", Reason: fmt.Sprintf("idle timeout must be positive, got %s", c.IdleTimeout)}
	case c.HeartbeatPeriod <= 0:
		return &model.ConfigurationError{Component: "tracker", Reason: fmt.Sprintf("heartbeat period must be positive, got %s", c.HeartbeatPeriod)}
	case c.MinSession < 0:
		return &model.ConfigurationError{Component: "tracker", Reason: fmt.Sprintf("minimum session must not be negative, got %s", c.MinSession)}
	}
	return nil
}

// State is the tracking state of a Machine.
type State int

const (
	StateIdle State = iota
	StateTracking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	default:
		return "unknown"
	}
}

// Machine is the idle-aware session state machine. It is not safe for
// concurrent use; Service serializes access to it.
type Machine struct {
	cfg   Config
	state State
	open  model.OpenSession
	newID func() string
}

// NewMachine creates a Machine in the Idle state.
func NewMachine(cfg Config) *Machine {
	return &Machine{
		cfg:   cfg,
		state: StateIdle,
		newID: uuid.NewString,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Open returns the open session while Tracking.
func (m *Machine) Open() (model.OpenSession, bool) {
	if m.state != StateTracking {
		return model.OpenSession{}, false
	}
	return m.open, true
}

// Ping records an edit. A ping without a document behaves like the editor
// losing its active document. The returned session is the one closed by this
// ping, if it was long enough to keep.
func (m *Machine) Ping(p model.ActivityPing) (model.Session, bool) {
	if !p.HasDocument() {
		return m.closeToIdle()
	}

	if m.state == StateIdle {
		m.begin(p.Category, p.SourceID, p.Timestamp)
		return model.Session{}, false
	}

	sameDocument := p.Category == m.open.Category && p.SourceID == m.open.SourceID
	if sameDocument && p.Timestamp.Sub(m.open.LastActivity) <= m.cfg.IdleTimeout {
		// Out-of-order pings never move lastActivity backwards.
		if p.Timestamp.After(m.open.LastActivity) {
			m.open.LastActivity = p.Timestamp
		}
		return model.Session{}, false
	}

	closed, ok := m.close()
	m.begin(p.Category, p.SourceID, p.Timestamp)
	return closed, ok
}

// FocusLost closes the open session and goes Idle.
func (m *Machine) FocusLost() (model.Session, bool) {
	return m.closeToIdle()
}

// FocusGained closes any open session and starts a new one on doc. A nil or
// empty doc leaves the machine Idle.
func (m *Machine) FocusGained(doc *model.Document, t time.Time) (model.Session, bool) {
	closed, ok := m.closeToIdle()
	if doc != nil && doc.Category != "" && doc.SourceID != "" {
		m.begin(doc.Category, doc.SourceID, t)
	}
	return closed, ok
}

// EditorChanged has the same transitions as FocusGained.
func (m *Machine) EditorChanged(doc *model.Document, t time.Time) (model.Session, bool) {
	return m.FocusGained(doc, t)
}

// Heartbeat closes the open session once now is more than the idle timeout
// past the last activity.
func (m *Machine) Heartbeat(now time.Time) (model.Session, bool) {
	if m.state != StateTracking {
		return model.Session{}, false
	}
	if now.Sub(m.open.LastActivity) <= m.cfg.IdleTimeout {
		return model.Session{}, false
	}
	util.LogDebug("Idle timeout reached",
		util.F("category", m.open.Category),
		util.F("source", m.open.SourceID),
		util.F("idle", now.Sub(m.open.LastActivity).String()))
	return m.closeToIdle()
}

func (m *Machine) begin(category, sourceID string, t time.Time) {
	m.state = StateTracking
	m.open = model.OpenSession{
		Category:     category,
		SourceID:     sourceID,
		Start:        t,
		LastActivity: t,
	}
}

func (m *Machine) closeToIdle() (model.Session, bool) {
	closed, ok := m.close()
	m.state = StateIdle
	m.open = model.OpenSession{}
	return closed, ok
}

// close ends the open session at its last activity, not at the time of the
// event that closed it.
func (m *Machine) close() (model.Session, bool) {
	if m.state != StateTracking {
		return model.Session{}, false
	}

	open := m.open
	duration := int64(open.LastActivity.Sub(open.Start) / time.Second)
	if duration < 0 {
		duration = 0
	}

	if time.Duration(duration)*time.Second < m.cfg.MinSession {
		util.LogDebug("Discarding short session",
			util.F("category", open.Category),
			util.F("source", open.SourceID),
			util.F("seconds", duration))
		return model.Session{}, false
	}

	session := model.Session{
		ID:              m.newID(),
		StartTime:       open.Start,
		EndTime:         open.LastActivity,
		Category:        open.Category,
		SourceID:        open.SourceID,
		DurationSeconds: duration,
	}
	util.LogDebug("Session closed",
		util.F("id", session.ID),
		util.F("category", session.Category),
		util.F("source", session.SourceID),
		util.F("seconds", duration))
	return session, true
}
