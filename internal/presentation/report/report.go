// Package report derives display views from daily aggregates.
package report

import (
	"sort"

	"github.com/penwyp/go-worktime/internal/core/category"
	"github.com/penwyp/go-worktime/internal/core/model"
)

// Share is one category's part of a period's total.
type Share struct {
	Category    string  `json:"category"`
	DisplayName string  `json:"displayName"`
	Seconds     int64   `json:"seconds"`
	Percentage  float64 `json:"percentage"`
}

// LanguageShares lists the categories with time in perCategory, largest
// first, ties by category id. A zero total yields no shares. Percentages are
// not rounded.
func LanguageShares(perCategory map[string]int64, total int64, dir *category.Directory) []Share {
	if total <= 0 {
		return []Share{}
	}

	shares := make([]Share, 0, len(perCategory))
	for id, seconds := range perCategory {
		if seconds <= 0 {
			continue
		}
		shares = append(shares, Share{
			Category:    id,
			DisplayName: dir.DisplayName(id),
			Seconds:     seconds,
			Percentage:  100 * float64(seconds) / float64(total),
		})
	}

	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Seconds != shares[j].Seconds {
			return shares[i].Seconds > shares[j].Seconds
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// SharesOf is LanguageShares over an aggregate; nil yields no shares.
func SharesOf(agg *model.DailyAggregate, dir *category.Directory) []Share {
	if agg == nil {
		return []Share{}
	}
	return LanguageShares(agg.PerCategorySeconds, agg.TotalSeconds, dir)
}

// DayRow summarizes one stored day.
type DayRow struct {
	DayKey       string  `json:"dayKey"`
	TotalSeconds int64   `json:"totalSeconds"`
	Sessions     int     `json:"sessions"`
	Shares       []Share `json:"shares"`
}

// Report is the view of one day or a range of days.
type Report struct {
	From         string   `json:"from"`
	To           string   `json:"to"`
	TotalSeconds int64    `json:"totalSeconds"`
	Shares       []Share  `json:"shares"`
	Days         []DayRow `json:"days"`
	// GoalSeconds is the daily goal, 0 when unset.
	GoalSeconds int64 `json:"goalSeconds,omitempty"`
}

// Build assembles a report of days, which must be in day order. The total
// and shares cover every day together.
func Build(from, to string, days []*model.DailyAggregate, dir *category.Directory) Report {
	perCategory := make(map[string]int64)
	var total int64
	rows := make([]DayRow, 0, len(days))

	for _, day := range days {
		if day == nil {
			continue
		}
		total += day.TotalSeconds
		for id, seconds := range day.PerCategorySeconds {
			perCategory[id] += seconds
		}
		rows = append(rows, DayRow{
			DayKey:       day.DayKey,
			TotalSeconds: day.TotalSeconds,
			Sessions:     len(day.Sessions),
			Shares:       SharesOf(day, dir),
		})
	}

	return Report{
		From:         from,
		To:           to,
		TotalSeconds: total,
		Shares:       LanguageShares(perCategory, total, dir),
		Days:         rows,
	}
}

// GoalProgress returns the percentage of goalSeconds reached by total, or 0
// when no goal is set.
func GoalProgress(total, goalSeconds int64) float64 {
	if goalSeconds <= 0 {
		return 0
	}
	return 100 * float64(total) / float64(goalSeconds)
}
