package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-worktime/internal/core/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeSink struct {
	mu       sync.Mutex
	sessions []model.Session
	err      error
	lastOpen *model.OpenSession

	// beforeSnapshot runs at the start of TodaySnapshot, outside the lock.
	beforeSnapshot func()
	seenStored     int
}

func (s *fakeSink) RecordSession(_ context.Context, session model.Session) (*model.DailyAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.sessions = append(s.sessions, session)
	agg := model.NewDailyAggregate(session.StartTime.Format("2006-01-02"))
	agg.Add(session)
	return agg, nil
}

func (s *fakeSink) TodaySnapshot(_ context.Context, now time.Time, open *model.OpenSession) (*model.DailyAggregate, error) {
	if s.beforeSnapshot != nil {
		s.beforeSnapshot()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOpen = open
	s.seenStored = len(s.sessions)
	agg := model.NewDailyAggregate(now.Format("2006-01-02"))
	for _, session := range s.sessions {
		agg.Add(session)
	}
	return agg, nil
}

func (s *fakeSink) Sessions() []model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

func newTestService(t *testing.T, cfg Config, opts ...Option) (*Service, *fakeSink, *fakeClock) {
	t.Helper()
	sink := &fakeSink{}
	clock := &fakeClock{now: base}
	svc, err := NewService(cfg, sink, clock, opts...)
	require.NoError(t, err)
	return svc, sink, clock
}

func TestNewServiceRejectsMissingCollaborators(t *testing.T) {
	_, err := NewService(DefaultConfig(), nil, &fakeClock{})
	assert.True(t, model.IsConfigurationError(err))

	_, err = NewService(DefaultConfig(), &fakeSink{}, nil)
	assert.True(t, model.IsConfigurationError(err))

	_, err = NewService(Config{}, &fakeSink{}, &fakeClock{})
	assert.True(t, model.IsConfigurationError(err))
}

func TestServiceLifecycleErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, DefaultConfig())

	err := svc.RecordPing(ctx, ping("go", "main.go", 0))
	assert.ErrorIs(t, err, model.ErrNotInitialized)
	assert.True(t, model.IsConfigurationError(err))

	require.NoError(t, svc.Init(ctx))
	assert.True(t, model.IsConfigurationError(svc.Init(ctx)), "second Init is rejected")

	svc.Dispose()
	svc.Dispose()

	err = svc.RecordPing(ctx, ping("go", "main.go", 10))
	assert.ErrorIs(t, err, model.ErrDisposed)
	_, err = svc.TodaySnapshot(ctx)
	assert.ErrorIs(t, err, model.ErrDisposed)
	assert.ErrorIs(t, svc.Init(ctx), model.ErrDisposed)
}

func TestServiceDisposeWithoutInit(t *testing.T) {
	svc, sink, _ := newTestService(t, DefaultConfig())
	svc.Dispose()
	assert.Empty(t, sink.Sessions())
}

func TestServiceEndToEndHeartbeat(t *testing.T) {
	ctx := context.Background()
	cfg := Config{IdleTimeout: 300 * time.Second, HeartbeatPeriod: time.Hour, MinSession: 10 * time.Second}
	svc, sink, _ := newTestService(t, cfg)
	require.NoError(t, svc.Init(ctx))
	defer svc.Dispose()

	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 0)))
	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 120)))
	require.NoError(t, svc.HeartbeatTick(ctx, at(400)))
	assert.Empty(t, sink.Sessions())

	require.NoError(t, svc.HeartbeatTick(ctx, at(430)))
	sessions := sink.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(120), sessions[0].DurationSeconds)
	assert.Equal(t, at(120), sessions[0].EndTime)

	state, open, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, state)
	assert.Nil(t, open)
}

func TestServiceTickerFiresHeartbeat(t *testing.T) {
	ctx := context.Background()
	cfg := Config{IdleTimeout: 300 * time.Second, HeartbeatPeriod: 5 * time.Millisecond, MinSession: 10 * time.Second}
	svc, sink, clock := newTestService(t, cfg)
	require.NoError(t, svc.Init(ctx))
	defer svc.Dispose()

	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 0)))
	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 60)))

	clock.Set(at(60 + 301))
	assert.Eventually(t, func() bool {
		return len(sink.Sessions()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(60), sink.Sessions()[0].DurationSeconds)
}

func TestServiceDisposeFlushesOpenSession(t *testing.T) {
	ctx := context.Background()
	svc, sink, _ := newTestService(t, DefaultConfig())
	require.NoError(t, svc.Init(ctx))

	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 0)))
	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 45)))

	svc.Dispose()

	sessions := sink.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(45), sessions[0].DurationSeconds)
}

func TestServiceContextCancelFlushes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc, sink, _ := newTestService(t, DefaultConfig())
	require.NoError(t, svc.Init(ctx))

	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 0)))
	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 30)))
	cancel()

	<-svc.done
	require.Len(t, sink.Sessions(), 1)

	err := svc.RecordPing(context.Background(), ping("go", "main.go", 40))
	assert.ErrorIs(t, err, model.ErrDisposed)
	svc.Dispose()
}

func TestServiceStorageErrorReachesCaller(t *testing.T) {
	ctx := context.Background()
	storageErr := &model.StorageError{Op: "set", Key: "daily/2024-03-01", Err: errors.New("disk full")}

	var (
		mu       sync.Mutex
		reported []error
	)
	svc, sink, _ := newTestService(t, DefaultConfig(), WithErrorHandler(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	}))
	sink.err = storageErr
	require.NoError(t, svc.Init(ctx))

	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 0)))
	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 30)))

	err := svc.RecordPing(ctx, ping("sql", "q.sql", 31))
	assert.True(t, model.IsStorageError(err))

	// The machine moved on even though the store failed.
	state, open, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateTracking, state)
	require.NotNil(t, open)
	assert.Equal(t, "sql", open.Category)

	require.NoError(t, svc.RecordPing(ctx, ping("sql", "q.sql", 60)))
	svc.Dispose()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reported, 1, "the flush on Dispose has no caller")
	assert.True(t, model.IsStorageError(reported[0]))
}

func TestServiceFocusAndEditorChanges(t *testing.T) {
	ctx := context.Background()
	svc, sink, clock := newTestService(t, DefaultConfig())
	require.NoError(t, svc.Init(ctx))
	defer svc.Dispose()

	doc := &model.Document{Category: "go", SourceID: "main.go"}
	require.NoError(t, svc.RecordFocusChange(ctx, model.FocusEvent{Focused: true, Document: doc, Timestamp: at(0)}))
	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 40)))
	require.NoError(t, svc.RecordFocusChange(ctx, model.FocusEvent{Focused: false, Timestamp: at(45)}))

	require.Len(t, sink.Sessions(), 1)
	assert.Equal(t, int64(40), sink.Sessions()[0].DurationSeconds)

	clock.Set(at(100))
	require.NoError(t, svc.RecordEditorChange(ctx, &model.Document{Category: "rust", SourceID: "lib.rs"}, time.Time{}))
	state, open, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateTracking, state)
	assert.Equal(t, at(100), open.Start, "zero timestamp uses the clock")

	require.NoError(t, svc.RecordPing(ctx, ping("rust", "lib.rs", 130)))
	require.NoError(t, svc.RecordEditorChange(ctx, nil, at(131)))
	require.Len(t, sink.Sessions(), 2)
	assert.Equal(t, "rust", sink.Sessions()[1].Category)
}

func TestServiceTodaySnapshotPassesOpenSession(t *testing.T) {
	ctx := context.Background()
	svc, sink, clock := newTestService(t, DefaultConfig())
	require.NoError(t, svc.Init(ctx))
	defer svc.Dispose()

	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 0)))
	clock.Set(at(90))

	_, err := svc.TodaySnapshot(ctx)
	require.NoError(t, err)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.NotNil(t, sink.lastOpen)
	assert.Equal(t, at(0), sink.lastOpen.Start)
}

func TestServiceTodaySnapshotIsAtomicWithCloses(t *testing.T) {
	ctx := context.Background()
	svc, sink, clock := newTestService(t, DefaultConfig())
	require.NoError(t, svc.Init(ctx))
	defer svc.Dispose()

	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 0)))
	require.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", 60)))
	clock.Set(at(120))

	pinged := make(chan error, 1)
	sink.beforeSnapshot = func() {
		go func() { pinged <- svc.RecordPing(ctx, ping("go", "other.go", 120)) }()
		time.Sleep(50 * time.Millisecond)
	}

	_, err := svc.TodaySnapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, <-pinged)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	// The concurrent ping is applied after the snapshot, never between its
	// read of the open session and its read of the store.
	require.NotNil(t, sink.lastOpen)
	assert.Equal(t, "main.go", sink.lastOpen.SourceID)
	assert.Equal(t, 0, sink.seenStored)
	assert.Len(t, sink.sessions, 1)
}

func TestServiceConcurrentPings(t *testing.T) {
	ctx := context.Background()
	svc, sink, _ := newTestService(t, DefaultConfig())
	require.NoError(t, svc.Init(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, svc.RecordPing(ctx, ping("go", "main.go", i*5)))
		}(i)
	}
	wg.Wait()
	svc.Dispose()

	// Arrival order is random, but the latest ping always ends the session.
	sessions := sink.Sessions()
	require.LessOrEqual(t, len(sessions), 1)
	if len(sessions) == 1 {
		assert.Equal(t, at(95), sessions[0].EndTime)
		assert.LessOrEqual(t, sessions[0].DurationSeconds, int64(95))
	}
}
