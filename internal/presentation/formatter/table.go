package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/presentation/report"
	"github.com/penwyp/go-worktime/internal/util"
)

type TableFormatter struct {
	opts Options
}

func NewTableFormatter(opts Options) *TableFormatter {
	return &TableFormatter{opts: opts}
}

// table collects rows and renders them with box borders. Columns after the
// first `leftAligned` are right-aligned.
type table struct {
	headers     []string
	rows        [][]string
	separators  map[int]bool
	leftAligned int
}

func newTable(leftAligned int, headers ...string) *table {
	return &table{headers: headers, separators: make(map[int]bool), leftAligned: leftAligned}
}

func (t *table) add(values ...string) {
	t.rows = append(t.rows, values)
}

// separator draws a rule before the next added row.
func (t *table) separator() {
	t.separators[len(t.rows)] = true
}

// calculateColumnWidths determines the display width of each column.
func (t *table) calculateColumnWidths(maxWidth int) []int {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = util.GetDisplayWidth(header)
	}
	for _, row := range t.rows {
		for i, value := range row {
			if w := util.GetDisplayWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}

	// Shrink the widest text column when the table would overflow.
	if maxWidth > 0 && t.leftAligned > 0 {
		total := 1
		for _, w := range widths {
			total += w + 3
		}
		if over := total - maxWidth; over > 0 {
			widest := 0
			for i := 1; i < t.leftAligned; i++ {
				if widths[i] > widths[widest] {
					widest = i
				}
			}
			if widths[widest]-over >= 8 {
				widths[widest] -= over
			}
		}
	}
	return widths
}

func (t *table) render(w io.Writer, maxWidth int) {
	widths := t.calculateColumnWidths(maxWidth)

	printBorder(w, widths, "top")
	t.printRow(w, t.headers, widths)
	printBorder(w, widths, "middle")
	for i, row := range t.rows {
		if t.separators[i] && i > 0 {
			printBorder(w, widths, "middle")
		}
		t.printRow(w, row, widths)
	}
	printBorder(w, widths, "bottom")
}

// printBorder prints table borders (top, middle, bottom)
func printBorder(w io.Writer, widths []int, borderType string) {
	var left, middle, right, separator string

	switch borderType {
	case "top":
		left, middle, right, separator = "┌", "┬", "┐", "─"
	case "middle":
		left, middle, right, separator = "├", "┼", "┤", "─"
	case "bottom":
		left, middle, right, separator = "└", "┴", "┘", "─"
	}

	fmt.Fprint(w, left)
	for i, width := range widths {
		fmt.Fprint(w, strings.Repeat(separator, width+2)) // +2 for padding spaces
		if i < len(widths)-1 {
			fmt.Fprint(w, middle)
		}
	}
	fmt.Fprintln(w, right)
}

func (t *table) printRow(w io.Writer, values []string, widths []int) {
	fmt.Fprint(w, "│")
	for i, value := range values {
		value = truncate(value, widths[i])
		fmt.Fprintf(w, " %s │", util.PadString(value, widths[i], i < t.leftAligned))
	}
	fmt.Fprintln(w)
}

func truncate(s string, width int) string {
	if util.GetDisplayWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && util.GetDisplayWidth(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func (f *TableFormatter) FormatReport(w io.Writer, r report.Report) error {
	days := newTable(2, "Date", "Top Categories", "Sessions", "Time")
	for _, day := range r.Days {
		days.add(day.DayKey, topShares(day.Shares, 3), fmt.Sprintf("%d", day.Sessions), util.FormatDuration(day.TotalSeconds))
	}
	days.separator()
	days.add("Total", "", "", util.FormatDuration(r.TotalSeconds))
	days.render(w, f.opts.Width)

	if len(r.Shares) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	shares := newTable(2, "Category", "Id", "Time", "Share")
	for _, s := range r.Shares {
		shares.add(s.DisplayName, s.Category, util.FormatDuration(s.Seconds), util.FormatPercent(s.Percentage))
	}
	shares.render(w, f.opts.Width)
	return nil
}

func (f *TableFormatter) FormatWorkLog(w io.Writer, records []model.AuthorWorkRecord) error {
	loc := f.opts.location()
	t := newTable(2, "Author", "Date", "First", "Last", "Commits", "Hours")

	var total float64
	for i, rec := range records {
		if i > 0 {
			t.separator()
		}
		for j, day := range rec.DailyWork {
			author := ""
			if j == 0 {
				author = rec.Author
			}
			hours := util.FormatHours(day.Hours)
			if day.SingleCommit() {
				hours += "*"
			}
			t.add(author, day.DayKey,
				day.FirstTimestamp.In(loc).Format("15:04"),
				day.LastTimestamp.In(loc).Format("15:04"),
				fmt.Sprintf("%d", len(day.Commits)),
				hours)
		}
		t.add("", "└ total", "", "", fmt.Sprintf("%d", len(rec.Commits)), util.FormatHours(rec.TotalHours))
		total += rec.TotalHours
	}
	t.separator()
	t.add("Total", "", "", "", "", util.FormatHours(total))
	t.render(w, f.opts.Width)

	fmt.Fprintln(w, "* single commit: a day needs two commits to measure elapsed time")
	return nil
}
