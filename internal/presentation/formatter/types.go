// Package formatter renders reports and commit-log work records.
package formatter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/presentation/report"
)

// Formatter writes reports in one output format.
type Formatter interface {
	FormatReport(w io.Writer, r report.Report) error
	FormatWorkLog(w io.Writer, records []model.AuthorWorkRecord) error
}

// Options controls presentation details shared by all formats.
type Options struct {
	// Location renders commit timestamps; nil means time.Local.
	Location *time.Location
	// Width caps the table output width; 0 means unlimited.
	Width int
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// Output format names.
const (
	FormatTable   = "table"
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatSummary = "summary"
)

// New returns the formatter for format.
func New(format string, opts Options) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return NewTableFormatter(opts), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(opts), nil
	case FormatSummary:
		return NewSummaryFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want table, json, csv or summary)", format)
	}
}

// topShares renders the first n shares as "Go 60.0%, SQL 40.0%".
func topShares(shares []report.Share, n int) string {
	if len(shares) < n {
		n = len(shares)
	}
	parts := make([]string, 0, n)
	for _, s := range shares[:n] {
		parts = append(parts, fmt.Sprintf("%s %.1f%%", s.DisplayName, s.Percentage))
	}
	if len(shares) > n {
		parts = append(parts, fmt.Sprintf("+%d", len(shares)-n))
	}
	return strings.Join(parts, ", ")
}
