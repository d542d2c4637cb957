package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	reportFrom   string
	reportTo     string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize tracked time over a range of days",
	Long: `Sums every stored day from --from to --to (inclusive) and shows the
share of each language over the whole range plus one row per day.

Examples:
  go-worktime report                                   # Last 7 days
  go-worktime report --from 2024-03-01 --to 2024-03-31
  go-worktime report --from 2024-03-01 --output json`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFrom, "from", "",
		"First day, YYYY-MM-DD (default 6 days before --to)")
	reportCmd.Flags().StringVar(&reportTo, "to", "",
		"Last day, YYYY-MM-DD (default today)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "table",
		"Output format (table, json, csv, summary)")
}

func runReport(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	tp := engine.Time
	to := reportTo
	if to == "" {
		to = tp.DayKey(time.Now())
	}
	end, err := tp.ParseDayKey(to)
	if err != nil {
		return fmt.Errorf("invalid --to %q: %w", to, err)
	}

	from := reportFrom
	if from == "" {
		from = tp.DayKey(end.AddDate(0, 0, -6))
	}
	if _, err := tp.DayKeysBetween(from, to); err != nil {
		return fmt.Errorf("invalid range: %w", err)
	}

	_, days, err := engine.Aggregator.RangeTotal(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	return printDays(cmd, engine, reportOutput, from, to, days)
}
