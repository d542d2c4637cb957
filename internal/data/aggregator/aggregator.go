// Package aggregator folds closed sessions into per-day totals and derives
// per-day working hours from commit logs.
package aggregator

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/data/store"
	"github.com/penwyp/go-worktime/internal/util"
)

// Listener is notified with a copy of the aggregate after every recorded
// session.
type Listener func(*model.DailyAggregate)

// Aggregator is the live-session side of the interval aggregator. It is the
// tracker's session sink.
type Aggregator struct {
	store      *store.DailyStore
	tp         *util.TimeProvider
	minSession time.Duration

	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

// New creates an Aggregator. minSession also gates the provisional time
// added by TodaySnapshot.
func New(s *store.DailyStore, tp *util.TimeProvider, minSession time.Duration) (*Aggregator, error) {
	if s == nil {
		return nil, &model.ConfigurationError{Component: "aggregator", Reason: "daily store is required"}
	}
	if tp == nil {
		return nil, &model.ConfigurationError{Component: "aggregator", Reason: "time provider is required"}
	}
	return &Aggregator{
		store:      s,
		tp:         tp,
		minSession: minSession,
		listeners:  make(map[int]Listener),
	}, nil
}

// RecordSession adds a closed session to the aggregate of its start day.
// A session crossing midnight is attributed wholly to the start day.
func (a *Aggregator) RecordSession(ctx context.Context, s model.Session) (*model.DailyAggregate, error) {
	dayKey := a.tp.DayKey(s.StartTime)
	updated, err := a.store.Update(ctx, dayKey, func(agg *model.DailyAggregate) error {
		agg.Add(s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.LogDebug("Session recorded",
		util.F("day", dayKey),
		util.F("category", s.Category),
		util.F("seconds", s.DurationSeconds),
		util.F("day_total", updated.TotalSeconds))
	a.notify(updated)
	return updated, nil
}

// Subscribe registers fn for update notifications. The returned function
// removes it and may be called more than once.
func (a *Aggregator) Subscribe(fn Listener) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners, id)
			a.mu.Unlock()
		})
	}
}

func (a *Aggregator) notify(agg *model.DailyAggregate) {
	a.mu.RLock()
	ids := make([]int, 0, len(a.listeners))
	for id := range a.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, a.listeners[id])
	}
	a.mu.RUnlock()

	for _, fn := range listeners {
		fn(agg.Clone())
	}
}

// TodaySnapshot returns today's stored aggregate. When open is non-nil and
// started today, now - open.Start is folded into the returned copy, provided
// it reaches the minimum session length. Nothing is written.
func (a *Aggregator) TodaySnapshot(ctx context.Context, now time.Time, open *model.OpenSession) (*model.DailyAggregate, error) {
	today := a.tp.DayKey(now)
	agg, err := a.store.Get(ctx, today)
	if errors.Is(err, model.ErrNotFound) {
		agg = model.NewDailyAggregate(today)
	} else if err != nil {
		return nil, err
	}

	if open == nil || a.tp.DayKey(open.Start) != today {
		return agg, nil
	}
	provisional := int64(now.Sub(open.Start) / time.Second)
	if provisional <= 0 || time.Duration(provisional)*time.Second < a.minSession {
		return agg, nil
	}
	agg.TotalSeconds += provisional
	agg.PerCategorySeconds[open.Category] += provisional
	return agg, nil
}

// DailyAggregate returns a copy of the stored aggregate for dayKey, or
// model.ErrNotFound.
func (a *Aggregator) DailyAggregate(ctx context.Context, dayKey string) (*model.DailyAggregate, error) {
	return a.store.Get(ctx, dayKey)
}

// StoredDayKeys lists every day with a stored aggregate, ascending.
func (a *Aggregator) StoredDayKeys(ctx context.Context) ([]string, error) {
	return a.store.DayKeys(ctx)
}

// ClearDay removes the aggregate of one day.
func (a *Aggregator) ClearDay(ctx context.Context, dayKey string) error {
	if err := a.store.ClearDay(ctx, dayKey); err != nil {
		return err
	}
	util.LogInfo("Cleared day", util.F("day", dayKey))
	return nil
}

// ClearAll removes every stored aggregate.
func (a *Aggregator) ClearAll(ctx context.Context) (int, error) {
	n, err := a.store.ClearAll(ctx)
	if err != nil {
		return n, err
	}
	util.LogInfo("Cleared all days", util.F("count", n))
	return n, nil
}

// RangeTotal sums the stored days from..to (inclusive, empty bounds open)
// into one transient aggregate keyed "from..to". Sessions are not copied.
func (a *Aggregator) RangeTotal(ctx context.Context, from, to string) (*model.DailyAggregate, []*model.DailyAggregate, error) {
	days, err := a.store.Range(ctx, from, to)
	if err != nil {
		return nil, nil, err
	}

	total := model.NewDailyAggregate(from + ".." + to)
	for _, day := range days {
		total.TotalSeconds += day.TotalSeconds
		for category, seconds := range day.PerCategorySeconds {
			total.PerCategorySeconds[category] += seconds
		}
	}
	return total, days, nil
}
