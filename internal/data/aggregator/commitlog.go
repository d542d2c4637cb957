package aggregator

import (
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/util"
)

// AggregateCommitLog groups commits by author and calendar day and derives
// each day's hours from the spread between its first and last commit. A day
// with a single commit contributes zero hours.
//
// Records without an author or timestamp are skipped and reported; they never
// abort the aggregation. The input is not modified.
func AggregateCommitLog(commits []model.CommitRecord, tp *util.TimeProvider) ([]model.AuthorWorkRecord, []*model.InvalidInputError) {
	var (
		invalid []*model.InvalidInputError
		order   []string
	)
	byAuthor := make(map[string][]model.CommitRecord)

	for i, c := range commits {
		if err := validateCommit(i, c); err != nil {
			util.LogWarn("Skipping commit record", util.F("error", err.Error()))
			invalid = append(invalid, err)
			continue
		}
		if _, seen := byAuthor[c.Author]; !seen {
			order = append(order, c.Author)
		}
		byAuthor[c.Author] = append(byAuthor[c.Author], c)
	}

	records := make([]model.AuthorWorkRecord, 0, len(order))
	for _, author := range order {
		authorCommits := byAuthor[author]
		sort.SliceStable(authorCommits, func(i, j int) bool {
			return authorCommits[i].Timestamp.Before(authorCommits[j].Timestamp)
		})

		days := groupByDay(authorCommits, tp)
		var total float64
		for _, d := range days {
			total += d.Hours
		}

		records = append(records, model.AuthorWorkRecord{
			Author:     author,
			Commits:    authorCommits,
			DailyWork:  days,
			TotalHours: total,
		})
	}
	return records, invalid
}

// groupByDay expects commits in ascending time order.
func groupByDay(commits []model.CommitRecord, tp *util.TimeProvider) []model.DayWorkRecord {
	index := make(map[string]int)
	var days []model.DayWorkRecord

	for _, c := range commits {
		key := tp.DayKey(c.Timestamp)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, model.DayWorkRecord{DayKey: key})
		}
		days[i].Commits = append(days[i].Commits, c)
	}

	for i := range days {
		d := &days[i]
		d.FirstTimestamp = d.Commits[0].Timestamp
		d.LastTimestamp = d.Commits[len(d.Commits)-1].Timestamp
		d.Hours = d.LastTimestamp.Sub(d.FirstTimestamp).Hours()
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].FirstTimestamp.Before(days[j].FirstTimestamp)
	})
	return days
}

func validateCommit(index int, c model.CommitRecord) *model.InvalidInputError {
	switch {
	case strings.TrimSpace(c.Author) == "":
		return &model.InvalidInputError{Index: index, ID: c.ID, Field: "author", Reason: "missing"}
	case c.Timestamp.IsZero():
		return &model.InvalidInputError{Index: index, ID: c.ID, Field: "timestamp", Reason: "missing"}
	}
	return nil
}

// FilterSince keeps commits at or after since. A zero since keeps all.
// Commits without a timestamp are kept so AggregateCommitLog reports them.
func FilterSince(commits []model.CommitRecord, since time.Time) []model.CommitRecord {
	if since.IsZero() {
		return commits
	}
	out := make([]model.CommitRecord, 0, len(commits))
	for _, c := range commits {
		if c.Timestamp.IsZero() || !c.Timestamp.Before(since) {
			out = append(out, c)
		}
	}
	return out
}

// TotalHours sums the hours of every author.
func TotalHours(records []model.AuthorWorkRecord) float64 {
	var total float64
	for _, r := range records {
		total += r.TotalHours
	}
	return total
}
