package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-worktime/internal/presentation/report"
	"github.com/penwyp/go-worktime/internal/util"
)

var daysCmd = &cobra.Command{
	Use:   "days",
	Short: "List the stored days with their totals",
	Args:  cobra.NoArgs,
	RunE:  runDays,
}

func init() {
	rootCmd.AddCommand(daysCmd)
}

func runDays(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	days, err := engine.Store.Range(cmd.Context(), "", "")
	if err != nil {
		return err
	}
	if len(days) == 0 {
		fmt.Fprintln(out(cmd), "No stored days")
		return nil
	}

	w := out(cmd)
	var total int64
	for _, day := range days {
		total += day.TotalSeconds
		shares := report.SharesOf(day, engine.Directory)
		top := ""
		if len(shares) > 0 {
			top = fmt.Sprintf("%s %s", shares[0].DisplayName, util.FormatPercent(shares[0].Percentage))
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			day.DayKey,
			util.PadString(util.FormatDuration(day.TotalSeconds), 8, false),
			util.PadString(fmt.Sprintf("%d sessions", len(day.Sessions)), 12, true),
			top)
	}
	fmt.Fprintf(w, "%d days, %s total\n", len(days), util.FormatDuration(total))
	return nil
}
