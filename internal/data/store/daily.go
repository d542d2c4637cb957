package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-worktime/internal/core/constants"
	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/util"
)

// DailyStore keeps one DailyAggregate per day key. Read-modify-write on the
// same day is serialized; different days proceed in parallel.
type DailyStore struct {
	kv KV

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDailyStore(kv KV) (*DailyStore, error) {
	if kv == nil {
		return nil, &model.ConfigurationError{Component: "store", Reason: "key-value backend is required"}
	}
	return &DailyStore{
		kv:    kv,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// KeyFor returns the storage key of a day.
func KeyFor(dayKey string) string {
	return constants.DailyKeyPrefix + dayKey
}

func (s *DailyStore) lockFor(dayKey string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[dayKey]
	if !ok {
		l = &sync.Mutex{}
		s.locks[dayKey] = l
	}
	return l
}

// Update loads the aggregate for dayKey, creating it when absent, applies fn
// and writes it back. It returns a copy of the written aggregate.
func (s *DailyStore) Update(ctx context.Context, dayKey string, fn func(*model.DailyAggregate) error) (*model.DailyAggregate, error) {
	l := s.lockFor(dayKey)
	l.Lock()
	defer l.Unlock()

	agg, err := s.load(ctx, dayKey)
	if errors.Is(err, model.ErrNotFound) {
		agg = model.NewDailyAggregate(dayKey)
	} else if err != nil {
		return nil, err
	}

	if err := fn(agg); err != nil {
		return nil, err
	}

	data, err := sonic.Marshal(agg)
	if err != nil {
		return nil, &model.StorageError{Op: "encode", Key: KeyFor(dayKey), Err: err}
	}
	if err := s.kv.Set(ctx, KeyFor(dayKey), data); err != nil {
		util.LogError("Failed to write daily aggregate", util.F("day", dayKey), util.F("error", err.Error()))
		return nil, &model.StorageError{Op: "set", Key: KeyFor(dayKey), Err: err}
	}
	return agg.Clone(), nil
}

// Get returns a copy of the stored aggregate, or model.ErrNotFound.
func (s *DailyStore) Get(ctx context.Context, dayKey string) (*model.DailyAggregate, error) {
	return s.load(ctx, dayKey)
}

func (s *DailyStore) load(ctx context.Context, dayKey string) (*model.DailyAggregate, error) {
	key := KeyFor(dayKey)
	data, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		util.LogError("Failed to read daily aggregate", util.F("day", dayKey), util.F("error", err.Error()))
		return nil, &model.StorageError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return nil, model.ErrNotFound
	}

	var agg model.DailyAggregate
	if err := sonic.Unmarshal(data, &agg); err != nil {
		return nil, &model.StorageError{Op: "decode", Key: key, Err: err}
	}
	if agg.DayKey == "" {
		agg.DayKey = dayKey
	}
	if agg.PerCategorySeconds == nil {
		agg.PerCategorySeconds = make(map[string]int64)
	}
	if agg.Sessions == nil {
		agg.Sessions = make([]model.Session, 0)
	}
	if err := agg.Validate(); err != nil {
		util.LogWarn("Stored daily aggregate is inconsistent", util.F("day", dayKey), util.F("error", err.Error()))
	}
	return &agg, nil
}

// DayKeys returns every stored day key in ascending order.
func (s *DailyStore) DayKeys(ctx context.Context) ([]string, error) {
	keys, err := s.kv.ListKeys(ctx, constants.DailyKeyPrefix)
	if err != nil {
		return nil, &model.StorageError{Op: "list", Key: constants.DailyKeyPrefix, Err: err}
	}
	days := make([]string, 0, len(keys))
	for _, key := range keys {
		days = append(days, strings.TrimPrefix(key, constants.DailyKeyPrefix))
	}
	return days, nil
}

// Range returns the stored aggregates with from <= dayKey <= to, in day
// order. Empty bounds are open.
func (s *DailyStore) Range(ctx context.Context, from, to string) ([]*model.DailyAggregate, error) {
	days, err := s.DayKeys(ctx)
	if err != nil {
		return nil, err
	}

	var out []*model.DailyAggregate
	for _, day := range days {
		if (from != "" && day < from) || (to != "" && day > to) {
			continue
		}
		agg, err := s.load(ctx, day)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

// ClearDay removes one day.
func (s *DailyStore) ClearDay(ctx context.Context, dayKey string) error {
	l := s.lockFor(dayKey)
	l.Lock()
	defer l.Unlock()

	if err := s.kv.Delete(ctx, KeyFor(dayKey)); err != nil {
		return &model.StorageError{Op: "delete", Key: KeyFor(dayKey), Err: err}
	}
	return nil
}

// ClearAll removes every stored day and returns how many were removed.
func (s *DailyStore) ClearAll(ctx context.Context) (int, error) {
	days, err := s.DayKeys(ctx)
	if err != nil {
		return 0, err
	}
	for i, day := range days {
		if err := s.ClearDay(ctx, day); err != nil {
			return i, err
		}
	}
	return len(days), nil
}
