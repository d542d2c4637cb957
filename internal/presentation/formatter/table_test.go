package formatter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-worktime/internal/presentation/report"
)

func TestTableFormatterReport(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(Options{})
	require.NoError(t, f.FormatReport(&buf, sampleReport()))

	out := buf.String()
	wantInBody := []string{
		"┌", "┘",
		"2024-03-01", "2024-03-02",
		"1h3m",
		"Go", "SQL", "TypeScript",
		"Total",
		"95.6%",
	}
	for _, want := range wantInBody {
		assert.Contains(t, out, want)
	}

	// Every rendered row of a table has the same display width.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	first := lines[0]
	for _, line := range lines[1:] {
		if line == "" {
			break
		}
		assert.Equal(t, len([]rune(first)), len([]rune(line)), line)
	}
}

func TestTableFormatterEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(Options{})
	require.NoError(t, f.FormatReport(&buf, report.Report{From: "2024-03-01", To: "2024-03-01"}))

	out := buf.String()
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "0s")
	assert.NotContains(t, out, "Share")
}

func TestTableFormatterWorkLog(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(Options{Location: time.UTC})
	require.NoError(t, f.FormatWorkLog(&buf, sampleWorkLog()))

	out := buf.String()
	for _, want := range []string{"Ana", "09:00", "10:30", "1.50h", "0.00h*", "└ total", "single commit"} {
		assert.Contains(t, out, want)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestTableShrinksToWidth(t *testing.T) {
	tbl := newTable(2, "Date", "Top Categories", "Time")
	tbl.add("2024-03-01", strings.Repeat("x", 60), "1h")

	widths := tbl.calculateColumnWidths(40)
	total := 1
	for _, w := range widths {
		total += w + 3
	}
	assert.LessOrEqual(t, total, 40)
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  string
		want    interface{}
		wantErr bool
	}{
		{format: "", want: &TableFormatter{}},
		{format: "table", want: &TableFormatter{}},
		{format: "JSON", want: &JSONFormatter{}},
		{format: "csv", want: &CSVFormatter{}},
		{format: "summary", want: &SummaryFormatter{}},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := New(tt.format, Options{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, f)
		})
	}
}
