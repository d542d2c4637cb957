package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	clearDay string
	clearAll bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete stored days",
	Long: `Deletes the stored aggregate of one day (--day) or of every day (--all).
Deleted days cannot be recovered. A running watch picks up the deletion on
its next write to the day.`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().StringVar(&clearDay, "day", "",
		"Day to delete, YYYY-MM-DD")
	clearCmd.Flags().BoolVar(&clearAll, "all", false,
		"Delete every stored day")
	clearCmd.MarkFlagsMutuallyExclusive("day", "all")
	clearCmd.MarkFlagsOneRequired("day", "all")
}

func runClear(cmd *cobra.Command, args []string) error {
	engine, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	if clearAll {
		n, err := engine.Aggregator.ClearAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Cleared %d days\n", n)
		return nil
	}

	if _, err := engine.Time.ParseDayKey(clearDay); err != nil {
		return fmt.Errorf("invalid --day %q: %w", clearDay, err)
	}
	if err := engine.Aggregator.ClearDay(cmd.Context(), clearDay); err != nil {
		return err
	}
	fmt.Fprintf(out(cmd), "Cleared %s\n", clearDay)
	return nil
}
