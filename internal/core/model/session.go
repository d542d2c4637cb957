package model

import (
	"fmt"
	"sort"
	"time"
)

// Session is one closed, contiguous period of work on a single document.
type Session struct {
	ID              string    `json:"id"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Category        string    `json:"category"`
	SourceID        string    `json:"sourceId"`
	DurationSeconds int64     `json:"durationSeconds"`
}

// Duration returns the session length as a time.Duration.
func (s Session) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

// DailyAggregate accumulates the recorded sessions of one calendar day.
type DailyAggregate struct {
	DayKey             string           `json:"dayKey"`
	TotalSeconds       int64            `json:"totalSeconds"`
	PerCategorySeconds map[string]int64 `json:"perCategorySeconds"`
	Sessions           []Session        `json:"sessions"`
}

// NewDailyAggregate returns an empty aggregate for dayKey.
func NewDailyAggregate(dayKey string) *DailyAggregate {
	return &DailyAggregate{
		DayKey:             dayKey,
		PerCategorySeconds: make(map[string]int64),
		Sessions:           make([]Session, 0),
	}
}

// Add folds a session into the aggregate.
func (d *DailyAggregate) Add(s Session) {
	if d.PerCategorySeconds == nil {
		d.PerCategorySeconds = make(map[string]int64)
	}
	d.TotalSeconds += s.DurationSeconds
	d.PerCategorySeconds[s.Category] += s.DurationSeconds
	d.Sessions = append(d.Sessions, s)
}

// Clone returns a deep copy that shares no maps or slices with d.
func (d *DailyAggregate) Clone() *DailyAggregate {
	if d == nil {
		return nil
	}
	out := &DailyAggregate{
		DayKey:             d.DayKey,
		TotalSeconds:       d.TotalSeconds,
		PerCategorySeconds: make(map[string]int64, len(d.PerCategorySeconds)),
		Sessions:           make([]Session, len(d.Sessions)),
	}
	for k, v := range d.PerCategorySeconds {
		out.PerCategorySeconds[k] = v
	}
	copy(out.Sessions, d.Sessions)
	return out
}

// Categories returns the category ids present in the aggregate, sorted.
func (d *DailyAggregate) Categories() []string {
	keys := make([]string, 0, len(d.PerCategorySeconds))
	for k := range d.PerCategorySeconds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks total == sum(per category) == sum(session durations).
func (d *DailyAggregate) Validate() error {
	var categorySum int64
	for _, v := range d.PerCategorySeconds {
		if v < 0 {
			return fmt.Errorf("day %s: negative category seconds", d.DayKey)
		}
		categorySum += v
	}
	if categorySum != d.TotalSeconds {
		return fmt.Errorf("day %s: total %d != category sum %d", d.DayKey, d.TotalSeconds, categorySum)
	}

	var sessionSum int64
	for _, s := range d.Sessions {
		sessionSum += s.DurationSeconds
	}
	if sessionSum != d.TotalSeconds {
		return fmt.Errorf("day %s: total %d != session sum %d", d.DayKey, d.TotalSeconds, sessionSum)
	}
	return nil
}
