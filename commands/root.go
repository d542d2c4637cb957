package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-worktime/internal/application/watch"
	"github.com/penwyp/go-worktime/internal/config"
	"github.com/penwyp/go-worktime/internal/presentation/formatter"
	"github.com/penwyp/go-worktime/internal/util"
)

var (
	// Logging related
	debug bool

	// Configuration file
	configPath string

	// Effective configuration, loaded before every command runs
	appConfig *config.Config

	rootCmd = &cobra.Command{
		Use:   "go-worktime",
		Short: "Track working time per language from editor activity",
		Long: `go-worktime turns editor activity signals into work sessions and keeps
per-day totals broken down by language.

Activity events are appended to a JSON-lines log (see "emit") and followed by
"watch", which closes a session after the idle timeout and stores it under the
calendar day it started on.

Examples:
  go-worktime watch                               # Track until interrupted
  go-worktime emit ping --category go --source main.go
  go-worktime today                               # Today's total with shares
  go-worktime report --from 2024-03-01 --to 2024-03-07 --output csv
  go-worktime git --dir . --since 2024-03-01      # Hours per author per day`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

const (
	defaultLogFile = "~/.go-worktime/logs/app.log"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default ~/.go-worktime/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

// setup loads the configuration and initializes logging. config init runs
// on defaults since the file it writes may not exist yet.
func setup(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if cmd != configInitCmd {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	appConfig = cfg

	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = expandPath(defaultLogFile)
	}
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(util.LoggerOptions{
		Level:   logLevel,
		File:    logFile,
		Console: debug,
		Format:  util.LogFormat(cfg.Log.Format),
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	util.LogDebug("Command started", util.F("command", cmd.Name()), util.F("config", cfg.File))
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer util.CloseLogger()
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	return config.ExpandPath(path)
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func openEngine(cmd *cobra.Command) (*watch.Engine, error) {
	return watch.OpenEngine(cmd.Context(), appConfig)
}

func newFormatter(format string, engine *watch.Engine) (formatter.Formatter, error) {
	opts := formatter.Options{Width: util.TerminalWidth(0)}
	if engine != nil {
		opts.Location = engine.Time.Location()
	}
	return formatter.New(format, opts)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
