package constants

import "time"

const (
	// Tracker defaults
	DefaultIdleTimeout     = 5 * time.Minute
	DefaultHeartbeatPeriod = 30 * time.Second
	DefaultMinSession      = 10 * time.Second

	// DayKeyLayout is the calendar-date format of day keys.
	DayKeyLayout = "2006-01-02"

	// DailyKeyPrefix namespaces daily aggregates in the key-value store.
	DailyKeyPrefix = "daily/"

	// Git invocation timeout for commit-log queries
	GitLogTimeout = 30 * time.Second
)
