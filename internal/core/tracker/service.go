package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/util"
)

// Sink receives closed sessions and answers snapshot queries.
type Sink interface {
	RecordSession(ctx context.Context, s model.Session) (*model.DailyAggregate, error)
	TodaySnapshot(ctx context.Context, now time.Time, open *model.OpenSession) (*model.DailyAggregate, error)
}

type lifecycle int

const (
	lifecycleNew lifecycle = iota
	lifecycleRunning
	lifecycleDisposed
)

type request struct {
	run   func() error
	reply chan error
}

// Service owns a Machine and feeds it from a single goroutine: every ping,
// focus change and heartbeat is applied in arrival order, never interleaved.
type Service struct {
	cfg     Config
	clock   util.Clock
	sink    Sink
	machine *Machine
	onError func(error)

	mailbox chan request
	stop    chan struct{}
	done    chan struct{}

	mu    sync.Mutex
	state lifecycle
}

// Option customizes a Service.
type Option func(*Service)

// WithErrorHandler receives storage errors from heartbeat-driven closes,
// which have no caller to return them to.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Service) {
		s.onError = fn
	}
}

// NewService validates its collaborators and returns an uninitialized
// Service.
func NewService(cfg Config, sink Sink, clock util.Clock, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, &model.ConfigurationError{Component: "tracker", Reason: "session sink is required"}
	}
	if clock == nil {
		return nil, &model.ConfigurationError{Component: "tracker", Reason: "clock is required"}
	}

	s := &Service{
		cfg:     cfg,
		clock:   clock,
		sink:    sink,
		machine: NewMachine(cfg),
		mailbox: make(chan request),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init starts the event loop and the heartbeat timer. The loop ends when ctx
// is cancelled or Dispose is called.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case lifecycleRunning:
		return &model.ConfigurationError{Component: "tracker", Reason: "already initialized"}
	case lifecycleDisposed:
		return &model.ConfigurationError{Component: "tracker", Reason: "init after dispose", Err: model.ErrDisposed}
	}

	s.state = lifecycleRunning
	go s.loop(ctx)
	util.LogInfo("Tracker started",
		util.F("idle_timeout", s.cfg.IdleTimeout.String()),
		util.F("heartbeat", s.cfg.HeartbeatPeriod.String()),
		util.F("min_session", s.cfg.MinSession.String()))
	return nil
}

// Dispose stops the heartbeat, flushes the open session and waits for the
// loop to exit. It is safe to call more than once.
func (s *Service) Dispose() {
	s.mu.Lock()
	previous := s.state
	s.state = lifecycleDisposed
	if previous == lifecycleRunning {
		close(s.stop)
	}
	s.mu.Unlock()

	if previous == lifecycleRunning {
		<-s.done
		util.LogInfo("Tracker stopped")
	}
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.HeartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flush(context.WithoutCancel(ctx))
			s.mu.Lock()
			s.state = lifecycleDisposed
			s.mu.Unlock()
			return
		case <-s.stop:
			s.flush(context.WithoutCancel(ctx))
			return
		case req := <-s.mailbox:
			req.reply <- req.run()
		case <-ticker.C:
			session, ok := s.machine.Heartbeat(s.clock.Now())
			if err := s.record(ctx, session, ok); err != nil {
				s.reportError(err)
			}
		}
	}
}

func (s *Service) flush(ctx context.Context) {
	session, ok := s.machine.FocusLost()
	if err := s.record(ctx, session, ok); err != nil {
		s.reportError(err)
	}
}

func (s *Service) reportError(err error) {
	util.LogError("Failed to record session", util.F("error", err.Error()))
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *Service) record(ctx context.Context, session model.Session, ok bool) error {
	if !ok {
		return nil
	}
	if _, err := s.sink.RecordSession(ctx, session); err != nil {
		return err
	}
	return nil
}

// do runs fn on the loop goroutine and waits for its result.
func (s *Service) do(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case lifecycleNew:
		return &model.ConfigurationError{Component: "tracker", Reason: "used before Init", Err: model.ErrNotInitialized}
	case lifecycleDisposed:
		return &model.ConfigurationError{Component: "tracker", Reason: "used after Dispose", Err: model.ErrDisposed}
	}

	req := request{run: fn, reply: make(chan error, 1)}
	select {
	case s.mailbox <- req:
	case <-s.done:
		return &model.ConfigurationError{Component: "tracker", Reason: "used after Dispose", Err: model.ErrDisposed}
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordPing feeds an activity ping. A zero timestamp means now.
func (s *Service) RecordPing(ctx context.Context, ping model.ActivityPing) error {
	if ping.Timestamp.IsZero() {
		ping.Timestamp = s.clock.Now()
	}
	return s.do(ctx, func() error {
		session, ok := s.machine.Ping(ping)
		return s.record(ctx, session, ok)
	})
}

// RecordFocusChange feeds a window focus change.
func (s *Service) RecordFocusChange(ctx context.Context, ev model.FocusEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.clock.Now()
	}
	return s.do(ctx, func() error {
		var (
			session model.Session
			ok      bool
		)
		if ev.Focused {
			session, ok = s.machine.FocusGained(ev.Document, ev.Timestamp)
		} else {
			session, ok = s.machine.FocusLost()
		}
		return s.record(ctx, session, ok)
	})
}

// RecordEditorChange feeds an active-editor change; nil doc means no editor.
func (s *Service) RecordEditorChange(ctx context.Context, doc *model.Document, t time.Time) error {
	if t.IsZero() {
		t = s.clock.Now()
	}
	return s.do(ctx, func() error {
		session, ok := s.machine.EditorChanged(doc, t)
		return s.record(ctx, session, ok)
	})
}

// HeartbeatTick applies a heartbeat at now, as the internal timer does.
func (s *Service) HeartbeatTick(ctx context.Context, now time.Time) error {
	return s.do(ctx, func() error {
		session, ok := s.machine.Heartbeat(now)
		return s.record(ctx, session, ok)
	})
}

// State returns the machine state and, while Tracking, the open session.
func (s *Service) State(ctx context.Context) (State, *model.OpenSession, error) {
	var (
		state State
		open  *model.OpenSession
	)
	err := s.do(ctx, func() error {
		state = s.machine.State()
		if o, ok := s.machine.Open(); ok {
			open = &o
		}
		return nil
	})
	return state, open, err
}

// TodaySnapshot returns today's aggregate including the provisional time of
// the open session. The open session and the store are read in one step on
// the loop goroutine, so a close cannot land between the two reads.
func (s *Service) TodaySnapshot(ctx context.Context) (*model.DailyAggregate, error) {
	var agg *model.DailyAggregate
	err := s.do(ctx, func() error {
		var open *model.OpenSession
		if o, ok := s.machine.Open(); ok {
			open = &o
		}
		var err error
		agg, err = s.sink.TodaySnapshot(ctx, s.clock.Now(), open)
		return err
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}
