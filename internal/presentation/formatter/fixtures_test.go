package formatter

import (
	"time"

	"github.com/penwyp/go-worktime/internal/core/category"
	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/presentation/report"
)

func sampleReport() report.Report {
	day1 := model.NewDailyAggregate("2024-03-01")
	day1.Add(model.Session{Category: "go", DurationSeconds: 3661})
	day1.Add(model.Session{Category: "sql", DurationSeconds: 125})
	day2 := model.NewDailyAggregate("2024-03-02")
	day2.Add(model.Session{Category: "typescript", DurationSeconds: 45})

	return report.Build("2024-03-01", "2024-03-02", []*model.DailyAggregate{day1, day2}, category.NewDirectory(nil))
}

func sampleWorkLog() []model.AuthorWorkRecord {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c1 := model.CommitRecord{Author: "Ana", ID: "a1", Timestamp: base}
	c2 := model.CommitRecord{Author: "Ana", ID: "a2", Timestamp: base.Add(90 * time.Minute)}
	c3 := model.CommitRecord{Author: "Ana", ID: "a3", Timestamp: base.Add(24 * time.Hour)}

	return []model.AuthorWorkRecord{
		{
			Author:  "Ana",
			Commits: []model.CommitRecord{c1, c2, c3},
			DailyWork: []model.DayWorkRecord{
				{DayKey: "2024-03-01", FirstTimestamp: c1.Timestamp, LastTimestamp: c2.Timestamp, Hours: 1.5, Commits: []model.CommitRecord{c1, c2}},
				{DayKey: "2024-03-02", FirstTimestamp: c3.Timestamp, LastTimestamp: c3.Timestamp, Hours: 0, Commits: []model.CommitRecord{c3}},
			},
			TotalHours: 1.5,
		},
	}
}
