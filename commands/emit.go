package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-worktime/internal/data/activity"
	"github.com/penwyp/go-worktime/internal/util"
)

var (
	emitCategory string
	emitSource   string
	emitFocused  bool
	emitAt       string
)

var emitCmd = &cobra.Command{
	Use:   "emit <ping|focus|editor>",
	Short: "Append an activity event to the activity log",
	Long: `Appends one event to the activity log followed by "watch".

  ping    the user edited --source in language --category
  focus   the editor window gained (--focused) or lost focus
  editor  the active document changed; omit --source for no document

Editor integrations call this on every keystroke batch, save or switch.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(activity.EventPing), string(activity.EventFocus), string(activity.EventEditor)},
	RunE:      runEmit,
}

func init() {
	rootCmd.AddCommand(emitCmd)

	emitCmd.Flags().StringVarP(&emitCategory, "category", "c", "",
		"Language identifier (e.g. go, typescript)")
	emitCmd.Flags().StringVarP(&emitSource, "source", "s", "",
		"Source identifier, usually the document path")
	emitCmd.Flags().BoolVar(&emitFocused, "focused", false,
		"Focus state for focus events")
	emitCmd.Flags().StringVar(&emitAt, "at", "",
		"Event time in RFC 3339 (default now)")
}

func runEmit(cmd *cobra.Command, args []string) error {
	ev := activity.Event{
		Type:     activity.EventType(strings.ToLower(args[0])),
		Category: emitCategory,
		Source:   emitSource,
		Focused:  emitFocused,
	}

	if emitAt != "" {
		ts, err := time.Parse(time.RFC3339, emitAt)
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", emitAt, err)
		}
		ev.Timestamp = ts
	} else {
		ev.Timestamp = time.Now()
	}

	if ev.Type == activity.EventPing && (ev.Category == "" || ev.Source == "") {
		return fmt.Errorf("ping requires --category and --source")
	}

	if err := activity.Append(appConfig.Activity.Path, ev); err != nil {
		return fmt.Errorf("failed to append activity event: %w", err)
	}
	util.LogDebug("Activity event appended",
		util.F("type", string(ev.Type)),
		util.F("category", ev.Category),
		util.F("source", ev.Source))
	return nil
}
