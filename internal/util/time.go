package util

import (
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-worktime/internal/core/constants"
)

// Clock supplies the current time. Tests inject a fake.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// TimeProvider pins the timezone used to derive calendar day keys.
type TimeProvider struct {
	location *time.Location
	mu       sync.RWMutex
}

// NewTimeProvider creates a provider for the named timezone ("" and "Local"
// mean the machine's local zone).
func NewTimeProvider(timezone string) (*TimeProvider, error) {
	tp := &TimeProvider{}
	if err := tp.SetTimezone(timezone); err != nil {
		return nil, err
	}
	return tp, nil
}

// MustTimeProvider is NewTimeProvider for zones known to be valid.
func MustTimeProvider(timezone string) *TimeProvider {
	tp, err := NewTimeProvider(timezone)
	if err != nil {
		panic(err)
	}
	return tp
}

// SetTimezone updates the timezone for the time provider
func (tp *TimeProvider) SetTimezone(timezone string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	loc := time.Local
	if timezone != "" && timezone != "Local" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/New_York, Asia/Shanghai, Europe/London", timezone, err)
		}
		loc = l
	}
	tp.location = loc
	return nil
}

// Location returns the configured location.
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

// In converts a time to the configured timezone
func (tp *TimeProvider) In(t time.Time) time.Time {
	return t.In(tp.Location())
}

// Format formats a time according to the layout in the configured timezone
func (tp *TimeProvider) Format(t time.Time, layout string) string {
	return t.In(tp.Location()).Format(layout)
}

// DayKey returns the calendar date of t in the configured timezone.
func (tp *TimeProvider) DayKey(t time.Time) string {
	return tp.Format(t, constants.DayKeyLayout)
}

// ParseDayKey parses a YYYY-MM-DD key as local midnight of that day.
func (tp *TimeProvider) ParseDayKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DayKeyLayout, key, tp.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q (want YYYY-MM-DD): %w", key, err)
	}
	return t, nil
}

// StartOfDay returns midnight of t's calendar day in the configured timezone.
func (tp *TimeProvider) StartOfDay(t time.Time) time.Time {
	local := t.In(tp.Location())
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, tp.Location())
}

// DayKeysBetween lists every day key from `from` to `to`, inclusive.
func (tp *TimeProvider) DayKeysBetween(from, to string) ([]string, error) {
	start, err := tp.ParseDayKey(from)
	if err != nil {
		return nil, err
	}
	end, err := tp.ParseDayKey(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s is before start %s", to, from)
	}

	var keys []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(constants.DayKeyLayout))
	}
	return keys, nil
}
