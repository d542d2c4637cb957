package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-worktime/internal/data/aggregator"
	"github.com/penwyp/go-worktime/internal/data/gitlog"
	"github.com/penwyp/go-worktime/internal/presentation/formatter"
	"github.com/penwyp/go-worktime/internal/util"
)

var (
	gitDir    string
	gitSince  string
	gitAuthor string
	gitOutput string
)

var gitCmd = &cobra.Command{
	Use:   "git",
	Short: "Estimate working hours per author from a commit log",
	Long: `Reads the commit log of a repository and estimates, for every author and
calendar day, the hours between the day's first and last commit.

A day with a single commit counts as 0 hours and is flagged in the output.`,
	Args: cobra.NoArgs,
	RunE: runGit,
}

func init() {
	rootCmd.AddCommand(gitCmd)

	gitCmd.Flags().StringVar(&gitDir, "dir", ".",
		"Repository directory")
	gitCmd.Flags().StringVar(&gitSince, "since", "",
		"Only commits on or after this day, YYYY-MM-DD")
	gitCmd.Flags().StringVar(&gitAuthor, "author", "",
		"Only commits whose author matches this pattern")
	gitCmd.Flags().StringVarP(&gitOutput, "output", "o", "table",
		"Output format (table, json, csv, summary)")
}

func runGit(cmd *cobra.Command, args []string) error {
	tp, err := util.NewTimeProvider(appConfig.Timezone)
	if err != nil {
		return err
	}

	opts := gitlog.Options{Dir: expandPath(gitDir), Author: gitAuthor}
	if gitSince != "" {
		since, err := tp.ParseDayKey(gitSince)
		if err != nil {
			return fmt.Errorf("invalid --since %q: %w", gitSince, err)
		}
		opts.Since = since
	}

	commits, err := gitlog.Read(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if !opts.Since.IsZero() {
		// git filters by committer date; records are keyed by author date.
		commits = aggregator.FilterSince(commits, opts.Since)
	}

	records, invalid := aggregator.AggregateCommitLog(commits, tp)
	if len(invalid) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %d malformed commits (see log for details)\n", len(invalid))
	}

	f, err := formatter.New(gitOutput, formatter.Options{
		Location: tp.Location(),
		Width:    util.TerminalWidth(0),
	})
	if err != nil {
		return err
	}
	return f.FormatWorkLog(out(cmd), records)
}
