package watch

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-worktime/internal/config"
	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/data/activity"
	"github.com/penwyp/go-worktime/internal/data/store"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAlerter) Alert(_, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
	return nil
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Timezone = "UTC"
	cfg.Store.Backend = store.BackendMemory
	cfg.Activity.Path = filepath.Join(t.TempDir(), "activity.jsonl")
	cfg.Goal = config.GoalConfig{DailyHours: 0.01, Notify: true}
	return cfg
}

func ping(t *testing.T, path, cat, src string, at time.Time) {
	t.Helper()
	require.NoError(t, activity.Append(path, activity.Event{
		Type: activity.EventPing, Category: cat, Source: src, Timestamp: at,
	}))
}

func TestNewOrchestratorValidation(t *testing.T) {
	_, err := NewOrchestrator(context.Background(), Options{})
	assert.True(t, model.IsConfigurationError(err))

	_, err = NewOrchestrator(context.Background(), Options{Config: testConfig(t), SnapshotInterval: time.Second})
	assert.True(t, model.IsConfigurationError(err))

	cfg := testConfig(t)
	cfg.Tracker.IdleTimeout = 0
	_, err = NewOrchestrator(context.Background(), Options{Config: cfg})
	assert.True(t, model.IsConfigurationError(err))
}

func TestOrchestratorRecordsSessionsFromLog(t *testing.T) {
	cfg := testConfig(t)
	path := cfg.Activity.Path

	ping(t, path, "go", "main.go", base)
	ping(t, path, "go", "main.go", base.Add(60*time.Second))

	alerter := &recordingAlerter{}
	out := &syncBuffer{}
	o, err := NewOrchestrator(context.Background(), Options{
		Config:           cfg,
		FromStart:        true,
		SnapshotInterval: 20 * time.Millisecond,
		Output:           out,
		Alerter:          alerter,
		Clock:            fixedClock{t: base.Add(1000 * time.Second)},
	})
	require.NoError(t, err)
	engine := o.Engine()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	// A ping after the idle timeout closes the first session.
	ping(t, path, "sql", "q.sql", base.Add(1000*time.Second))

	require.Eventually(t, func() bool {
		agg, err := engine.Aggregator.DailyAggregate(ctx, "2024-03-01")
		return err == nil && agg.TotalSeconds == 60
	}, 5*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return alerter.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("2024-03-01 1m0s  Go 100.0%"))
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	agg, err := engine.Aggregator.DailyAggregate(context.Background(), "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(60), agg.TotalSeconds, "single-ping sql session is below the minimum")
	assert.Equal(t, 1, alerter.count())
	assert.NoError(t, o.Close())
}

func TestOrchestratorHandleEventRouting(t *testing.T) {
	o, err := NewOrchestrator(context.Background(), Options{Config: testConfig(t)})
	require.NoError(t, err)
	defer o.Close()

	assert.NoError(t, o.handleEvent(context.Background(), activity.Event{Type: "scroll"}))

	err = o.handleEvent(context.Background(), activity.Event{Type: activity.EventPing, Category: "go", Source: "a.go"})
	assert.ErrorIs(t, err, model.ErrNotInitialized)
	assert.True(t, model.IsConfigurationError(err))
}

func TestSnapshotLine(t *testing.T) {
	cfg := testConfig(t)
	cfg.Categories = map[string]string{"go": "Golang"}
	engine, err := OpenEngine(context.Background(), cfg)
	require.NoError(t, err)
	defer engine.Close()

	agg := model.NewDailyAggregate("2024-03-01")
	agg.Add(model.Session{Category: "go", DurationSeconds: 3000})
	agg.Add(model.Session{Category: "sql", DurationSeconds: 1000})

	line := SnapshotLine(agg, engine, base.Add(90*time.Minute))
	assert.Equal(t, "[10:30:00] 2024-03-01 1h6m  Golang 75.0%, SQL 25.0%", line)

	empty := SnapshotLine(model.NewDailyAggregate("2024-03-02"), engine, base)
	assert.Equal(t, "[09:00:00] 2024-03-02 0s", empty)
}

func TestOpenEngineFileBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = store.BackendFile
	cfg.Store.Path = t.TempDir()

	engine, err := OpenEngine(context.Background(), cfg)
	require.NoError(t, err)
	_, err = engine.Aggregator.RecordSession(context.Background(), model.Session{
		Category: "go", SourceID: "a.go", StartTime: base, EndTime: base.Add(time.Minute), DurationSeconds: 60,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Close())

	reopened, err := OpenEngine(context.Background(), cfg)
	require.NoError(t, err)
	defer reopened.Close()
	agg, err := reopened.Aggregator.DailyAggregate(context.Background(), "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(60), agg.TotalSeconds)
}
