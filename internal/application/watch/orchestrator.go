package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/penwyp/go-worktime/internal/config"
	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/core/tracker"
	"github.com/penwyp/go-worktime/internal/data/activity"
	"github.com/penwyp/go-worktime/internal/presentation/notify"
	"github.com/penwyp/go-worktime/internal/presentation/report"
	"github.com/penwyp/go-worktime/internal/util"
)

// Options configures an Orchestrator.
type Options struct {
	Config *config.Config

	// FromStart replays the existing activity log before following it.
	FromStart bool
	// SnapshotInterval prints today's snapshot periodically; 0 disables.
	SnapshotInterval time.Duration
	// Output receives snapshots. Required when SnapshotInterval is set.
	Output io.Writer

	// Alerter overrides the desktop alerter used for the daily goal.
	Alerter notify.Alerter
	// Clock overrides the system clock.
	Clock util.Clock
}

// Orchestrator follows the activity log and feeds the tracker until its
// context is cancelled.
type Orchestrator struct {
	opts    Options
	engine  *Engine
	tracker *tracker.Service
	tailer  *activity.Tailer

	notifier    *notify.GoalNotifier
	unsubscribe func()
	closeOnce   sync.Once
}

// NewOrchestrator opens the store and builds every component. Nothing runs
// until Run.
func NewOrchestrator(ctx context.Context, opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, &model.ConfigurationError{Component: "watch", Reason: "config is required"}
	}
	if opts.SnapshotInterval > 0 && opts.Output == nil {
		return nil, &model.ConfigurationError{Component: "watch", Reason: "snapshot output is required"}
	}
	if opts.Clock == nil {
		opts.Clock = util.SystemClock{}
	}
	cfg := opts.Config

	engine, err := OpenEngine(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := tracker.NewService(cfg.Tracker, engine.Aggregator, opts.Clock,
		tracker.WithErrorHandler(func(err error) {
			util.LogWarn("Session was not stored", util.F("error", err.Error()))
		}))
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to create tracker: %w", err)
	}

	tailer, err := activity.NewTailer(cfg.Activity.Path, opts.FromStart)
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to watch activity log: %w", err)
	}

	o := &Orchestrator{
		opts:    opts,
		engine:  engine,
		tracker: svc,
		tailer:  tailer,
	}

	if cfg.Goal.Notify {
		alerter := opts.Alerter
		if alerter == nil {
			alerter = notify.NewDesktopAlerter("go-worktime")
		}
		if n := notify.NewGoalNotifier(alerter, cfg.Goal.Goal()); n != nil {
			o.notifier = n
			o.unsubscribe = engine.Aggregator.Subscribe(n.OnUpdate)
		}
	}
	return o, nil
}

// Run blocks until ctx is cancelled or the activity log can no longer be
// followed. The open session is flushed before it returns.
func (o *Orchestrator) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer o.Close()

	util.LogInfo("Starting watch", util.F("activity", o.opts.Config.Activity.Path))

	if err := o.tracker.Init(runCtx); err != nil {
		return err
	}

	tailErr := make(chan error, 1)
	go func() {
		tailErr <- o.tailer.Run(runCtx)
	}()

	var snapshots <-chan time.Time
	if o.opts.SnapshotInterval > 0 {
		ticker := time.NewTicker(o.opts.SnapshotInterval)
		defer ticker.Stop()
		snapshots = ticker.C
	}

	events := o.tailer.Events()
	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down watch...")
			return nil

		case ev, ok := <-events:
			if !ok {
				err := <-tailErr
				if err != nil {
					return fmt.Errorf("activity log: %w", err)
				}
				return nil
			}
			if err := o.handleEvent(runCtx, ev); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

		case <-snapshots:
			o.printSnapshot(runCtx)
		}
	}
}

// handleEvent feeds one event to the tracker. Storage failures are logged
// and tracking continues; configuration errors, such as a tracker that is
// disposed or not initialized, end the loop.
func (o *Orchestrator) handleEvent(ctx context.Context, ev activity.Event) error {
	var err error
	switch ev.Type {
	case activity.EventPing:
		err = o.tracker.RecordPing(ctx, ev.Ping())
	case activity.EventFocus:
		err = o.tracker.RecordFocusChange(ctx, ev.Focus())
	case activity.EventEditor:
		err = o.tracker.RecordEditorChange(ctx, ev.Document(), ev.Timestamp)
	default:
		util.LogDebug("Ignoring activity event", util.F("type", string(ev.Type)))
		return nil
	}

	switch {
	case err == nil:
		return nil
	case model.IsConfigurationError(err), errors.Is(err, context.Canceled):
		return err
	default:
		util.LogError("Failed to apply activity event",
			util.F("type", string(ev.Type)),
			util.F("error", err.Error()))
		return nil
	}
}

func (o *Orchestrator) printSnapshot(ctx context.Context) {
	agg, err := o.tracker.TodaySnapshot(ctx)
	if err != nil {
		util.LogWarn("Failed to take today snapshot", util.F("error", err.Error()))
		return
	}
	fmt.Fprintln(o.opts.Output, SnapshotLine(agg, o.engine, o.opts.Clock.Now()))
}

// SnapshotLine renders agg as a single status line.
func SnapshotLine(agg *model.DailyAggregate, e *Engine, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s", e.Time.Format(now, "15:04:05"), agg.DayKey, util.FormatDuration(agg.TotalSeconds))

	shares := report.SharesOf(agg, e.Directory)
	for i, s := range shares {
		if i == 0 {
			b.WriteString("  ")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", s.DisplayName, util.FormatPercent(s.Percentage))
	}
	return b.String()
}

// Engine exposes the storage components, mainly for the CLI and tests.
func (o *Orchestrator) Engine() *Engine {
	return o.engine
}

// Close disposes the tracker, flushing the open session, waits for pending
// goal alerts and releases the store. It is safe to call more than once.
func (o *Orchestrator) Close() error {
	var err error
	o.closeOnce.Do(func() {
		o.tracker.Dispose()
		if o.unsubscribe != nil {
			o.unsubscribe()
		}
		o.notifier.Wait()
		err = o.engine.Close()
	})
	return err
}
