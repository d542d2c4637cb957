package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-worktime/internal/application/watch"
	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/presentation/report"
)

var (
	todayOutput string
	dayOutput   string
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's tracked time by language",
	Long: `Shows the stored total for today with the share of each language.
A session still open in a running watch is counted once it closes.`,
	Args: cobra.NoArgs,
	RunE: runToday,
}

var dayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "Show the tracked time of one day",
	Args:  cobra.ExactArgs(1),
	RunE:  runDay,
}

func init() {
	rootCmd.AddCommand(todayCmd)
	rootCmd.AddCommand(dayCmd)

	todayCmd.Flags().StringVarP(&todayOutput, "output", "o", "summary",
		"Output format (table, json, csv, summary)")
	dayCmd.Flags().StringVarP(&dayOutput, "output", "o", "table",
		"Output format (table, json, csv, summary)")
}

func runToday(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	agg, err := engine.Aggregator.TodaySnapshot(cmd.Context(), time.Now(), nil)
	if err != nil {
		return err
	}
	return printDays(cmd, engine, todayOutput, agg.DayKey, agg.DayKey, []*model.DailyAggregate{agg})
}

func runDay(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	dayKey := args[0]
	if _, err := engine.Time.ParseDayKey(dayKey); err != nil {
		return fmt.Errorf("invalid day %q: %w", dayKey, err)
	}

	agg, err := engine.Aggregator.DailyAggregate(cmd.Context(), dayKey)
	if errors.Is(err, model.ErrNotFound) {
		fmt.Fprintf(out(cmd), "No tracked time on %s\n", dayKey)
		return nil
	}
	if err != nil {
		return err
	}
	return printDays(cmd, engine, dayOutput, dayKey, dayKey, []*model.DailyAggregate{agg})
}

func printDays(cmd *cobra.Command, engine *watch.Engine, format, from, to string, days []*model.DailyAggregate) error {
	f, err := newFormatter(format, engine)
	if err != nil {
		return err
	}
	r := report.Build(from, to, days, engine.Directory)
	if from == to {
		r.GoalSeconds = int64(appConfig.Goal.Goal() / time.Second)
	}
	return f.FormatReport(out(cmd), r)
}
