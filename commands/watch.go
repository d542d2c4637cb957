package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-worktime/internal/application/watch"
)

var (
	watchFromStart bool
	watchSnapshot  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the activity log and record work sessions",
	Long: `Follows the activity log and feeds every event to the session tracker.

Session rules:
- A session is one continuous stretch on a single language and source
- A gap longer than the idle timeout, a focus loss or a source change ends it
- Sessions shorter than the minimum length are discarded
- The open session is flushed when watch exits`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchFromStart, "from-start", false,
		"Replay the existing activity log before following it")
	watchCmd.Flags().DurationVar(&watchSnapshot, "snapshot", 0,
		"Print today's total at this interval (e.g. 1m; 0 disables)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o, err := watch.NewOrchestrator(ctx, watch.Options{
		Config:           appConfig,
		FromStart:        watchFromStart,
		SnapshotInterval: watchSnapshot,
		Output:           out(cmd),
	})
	if err != nil {
		return err
	}
	return o.Run(ctx)
}
