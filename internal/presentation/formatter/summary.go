package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/presentation/report"
	"github.com/penwyp/go-worktime/internal/util"
)

const summaryBarWidth = 24

type summaryStyles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	bar     lipgloss.Style
	faint   lipgloss.Style
	reached lipgloss.Style
}

func newSummaryStyles(w io.Writer) summaryStyles {
	r := lipgloss.NewRenderer(w)
	return summaryStyles{
		title:   r.NewStyle().Bold(true),
		label:   r.NewStyle().Foreground(lipgloss.Color("241")),
		value:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		bar:     r.NewStyle().Foreground(lipgloss.Color("159")),
		faint:   r.NewStyle().Faint(true),
		reached: r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
	}
}

// SummaryFormatter prints a compact human-readable overview.
type SummaryFormatter struct {
	opts Options
}

func NewSummaryFormatter(opts Options) *SummaryFormatter {
	return &SummaryFormatter{opts: opts}
}

func (f *SummaryFormatter) FormatReport(w io.Writer, r report.Report) error {
	st := newSummaryStyles(w)
	var b strings.Builder

	b.WriteString(st.title.Render("Work Time Summary"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n\n")

	if r.From == r.To {
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("Date:"), r.From)
	} else {
		fmt.Fprintf(&b, "%s %s to %s\n", st.label.Render("Date Range:"), r.From, r.To)
	}
	fmt.Fprintf(&b, "%s %s\n", st.label.Render("Total:"), st.value.Render(util.FormatDuration(r.TotalSeconds)))
	if len(r.Days) > 1 {
		fmt.Fprintf(&b, "%s %d\n", st.label.Render("Days:"), len(r.Days))
	}

	if r.GoalSeconds > 0 {
		pct := report.GoalProgress(r.TotalSeconds, r.GoalSeconds)
		line := fmt.Sprintf("%s of %s (%s)", util.FormatDuration(r.TotalSeconds), util.FormatDuration(r.GoalSeconds), util.FormatPercent(pct))
		if pct >= 100 {
			line = st.reached.Render(line)
		}
		fmt.Fprintf(&b, "%s %s\n", st.label.Render("Goal:"), line)
	}
	b.WriteString("\n")

	if len(r.Shares) == 0 {
		b.WriteString(st.faint.Render("No tracked time"))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	nameWidth := 0
	for _, s := range r.Shares {
		if n := util.GetDisplayWidth(s.DisplayName); n > nameWidth {
			nameWidth = n
		}
	}
	for _, s := range r.Shares {
		fmt.Fprintf(&b, "  %s %s %7s %8s\n",
			util.PadString(s.DisplayName, nameWidth, true),
			st.bar.Render(util.CreateProgressBar(s.Percentage, summaryBarWidth)),
			util.FormatPercent(s.Percentage),
			util.FormatDuration(s.Seconds))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (f *SummaryFormatter) FormatWorkLog(w io.Writer, records []model.AuthorWorkRecord) error {
	st := newSummaryStyles(w)
	var b strings.Builder

	b.WriteString(st.title.Render("Commit Log Hours"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", 40))
	b.WriteString("\n\n")

	if len(records) == 0 {
		b.WriteString(st.faint.Render("No commits"))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	var total float64
	for _, rec := range records {
		single := 0
		for _, d := range rec.DailyWork {
			if d.SingleCommit() {
				single++
			}
		}
		fmt.Fprintf(&b, "%s  %s over %d days, %d commits",
			st.value.Render(rec.Author), util.FormatHours(rec.TotalHours), len(rec.DailyWork), len(rec.Commits))
		if single > 0 {
			b.WriteString(st.faint.Render(fmt.Sprintf(" (%d single-commit days)", single)))
		}
		b.WriteString("\n")
		total += rec.TotalHours
	}
	fmt.Fprintf(&b, "\n%s %s\n", st.label.Render("Total:"), util.FormatHours(total))

	_, err := io.WriteString(w, b.String())
	return err
}
