package model

import "time"

// CommitRecord is one entry of a version-control history.
type CommitRecord struct {
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	ID        string    `json:"id"`
}

// DayWorkRecord is the elapsed time between an author's first and last
// commit on one calendar day.
type DayWorkRecord struct {
	DayKey         string         `json:"dayKey"`
	FirstTimestamp time.Time      `json:"firstTimestamp"`
	LastTimestamp  time.Time      `json:"lastTimestamp"`
	Hours          float64        `json:"hours"`
	Commits        []CommitRecord `json:"commits"`
}

// SingleCommit reports whether the day has only one observation, and so
// contributes zero hours.
func (d DayWorkRecord) SingleCommit() bool {
	return len(d.Commits) == 1
}

// AuthorWorkRecord groups one author's commits and the days derived from them.
type AuthorWorkRecord struct {
	Author     string          `json:"author"`
	Commits    []CommitRecord  `json:"commits"`
	DailyWork  []DayWorkRecord `json:"dailyWork"`
	TotalHours float64         `json:"totalHours"`
}
