package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/presentation/report"
)

type CSVFormatter struct {
	opts Options
}

func NewCSVFormatter(opts Options) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

// FormatReport writes one row per day and category.
func (f *CSVFormatter) FormatReport(w io.Writer, r report.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Date", "Category", "Display Name", "Seconds", "Percentage"}); err != nil {
		return err
	}
	for _, day := range r.Days {
		for _, s := range day.Shares {
			record := []string{
				day.DayKey,
				s.Category,
				s.DisplayName,
				fmt.Sprintf("%d", s.Seconds),
				fmt.Sprintf("%.2f", s.Percentage),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatWorkLog writes one row per author and day.
func (f *CSVFormatter) FormatWorkLog(w io.Writer, records []model.AuthorWorkRecord) error {
	loc := f.opts.location()
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Author", "Date", "First", "Last", "Commits", "Hours"}); err != nil {
		return err
	}
	for _, rec := range records {
		for _, day := range rec.DailyWork {
			record := []string{
				rec.Author,
				day.DayKey,
				day.FirstTimestamp.In(loc).Format(time.RFC3339),
				day.LastTimestamp.In(loc).Format(time.RFC3339),
				fmt.Sprintf("%d", len(day.Commits)),
				fmt.Sprintf("%.4f", day.Hours),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
