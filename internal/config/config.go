// Package config loads go-worktime settings from TOML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/penwyp/go-worktime/internal/core/constants"
	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/core/tracker"
	"github.com/penwyp/go-worktime/internal/data/store"
	"github.com/penwyp/go-worktime/internal/util"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "WORKTIME"

	DefaultHome = "~/.go-worktime"
)

// Keys
const (
	keyIdleTimeout     = "tracker.idle_timeout"
	keyHeartbeatPeriod = "tracker.heartbeat_period"
	keyMinSession      = "tracker.min_session"
	keyTimezone        = "timezone"
	keyStoreBackend    = "store.backend"
	keyStorePath       = "store.path"
	keyActivityPath    = "activity.path"
	keyGoalHours       = "goal.daily_hours"
	keyGoalNotify      = "goal.notify"
	keyLogFile         = "log.file"
	keyLogFormat       = "log.format"
	keyCategories      = "categories"
)

// Config is the effective configuration.
type Config struct {
	Tracker    tracker.Config
	Timezone   string
	Store      StoreConfig
	Activity   ActivityConfig
	Goal       GoalConfig
	Log        LogConfig
	Categories map[string]string

	// File is the config file that was read, empty when none was found.
	File string
}

type StoreConfig struct {
	Backend string
	Path    string
}

type ActivityConfig struct {
	Path string
}

type GoalConfig struct {
	DailyHours float64
	Notify     bool
}

// Goal returns the daily goal as a duration, 0 when disabled.
func (g GoalConfig) Goal() time.Duration {
	if g.DailyHours <= 0 {
		return 0
	}
	return time.Duration(g.DailyHours * float64(time.Hour))
}

type LogConfig struct {
	File   string
	Format string
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	return filepath.Join(ExpandPath(DefaultHome), configName+"."+configType)
}

func setDefaults(v *viper.Viper) {
	home := DefaultHome
	v.SetDefault(keyIdleTimeout, constants.DefaultIdleTimeout.String())
	v.SetDefault(keyHeartbeatPeriod, constants.DefaultHeartbeatPeriod.String())
	v.SetDefault(keyMinSession, constants.DefaultMinSession.String())
	v.SetDefault(keyTimezone, "Local")
	v.SetDefault(keyStoreBackend, store.BackendFile)
	v.SetDefault(keyStorePath, home+"/data")
	v.SetDefault(keyActivityPath, home+"/activity.jsonl")
	v.SetDefault(keyGoalHours, 0.0)
	v.SetDefault(keyGoalNotify, true)
	v.SetDefault(keyLogFile, home+"/logs/app.log")
	v.SetDefault(keyLogFormat, string(util.FormatText))
}

// Load reads path, or the default config file when path is empty. A missing
// default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(ExpandPath(path))
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(ExpandPath(DefaultHome))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &model.ConfigurationError{Component: "config", Reason: "read config file", Err: err}
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	util.LogDebug("Configuration loaded", util.F("file", cfg.File))
	return cfg, nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	durations := map[string]time.Duration{}
	for _, key := range []string{keyIdleTimeout, keyHeartbeatPeriod, keyMinSession} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, &model.ConfigurationError{Component: "config", Reason: fmt.Sprintf("invalid %s", key), Err: err}
		}
		durations[key] = d
	}

	categories := make(map[string]string)
	for id, name := range v.GetStringMapString(keyCategories) {
		categories[strings.ToLower(id)] = name
	}

	return &Config{
		Tracker: tracker.Config{
			IdleTimeout:     durations[keyIdleTimeout],
			HeartbeatPeriod: durations[keyHeartbeatPeriod],
			MinSession:      durations[keyMinSession],
		},
		Timezone: v.GetString(keyTimezone),
		Store: StoreConfig{
			Backend: strings.ToLower(v.GetString(keyStoreBackend)),
			Path:    ExpandPath(v.GetString(keyStorePath)),
		},
		Activity: ActivityConfig{Path: ExpandPath(v.GetString(keyActivityPath))},
		Goal: GoalConfig{
			DailyHours: v.GetFloat64(keyGoalHours),
			Notify:     v.GetBool(keyGoalNotify),
		},
		Log: LogConfig{
			File:   ExpandPath(v.GetString(keyLogFile)),
			Format: v.GetString(keyLogFormat),
		},
		Categories: categories,
		File:       v.ConfigFileUsed(),
	}, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if err := c.Tracker.Validate(); err != nil {
		return err
	}
	if c.Tracker.HeartbeatPeriod > c.Tracker.IdleTimeout {
		return &model.ConfigurationError{Component: "config", Reason: fmt.Sprintf(
			"heartbeat period %s exceeds idle timeout %s", c.Tracker.HeartbeatPeriod, c.Tracker.IdleTimeout)}
	}
	if _, err := util.NewTimeProvider(c.Timezone); err != nil {
		return &model.ConfigurationError{Component: "config", Reason: "invalid timezone", Err: err}
	}
	switch c.Store.Backend {
	case store.BackendFile, store.BackendSQLite, store.BackendMemory:
	default:
		return &model.ConfigurationError{Component: "config", Reason: fmt.Sprintf("unknown store backend %q", c.Store.Backend)}
	}
	if c.Store.Backend != store.BackendMemory && c.Store.Path == "" {
		return &model.ConfigurationError{Component: "config", Reason: "store.path is required"}
	}
	if c.Goal.DailyHours < 0 || c.Goal.DailyHours > 24 {
		return &model.ConfigurationError{Component: "config", Reason: fmt.Sprintf("goal.daily_hours must be within 0..24, got %g", c.Goal.DailyHours)}
	}
	switch util.LogFormat(c.Log.Format) {
	case util.FormatText, util.FormatJSON:
	default:
		return &model.ConfigurationError{Component: "config", Reason: fmt.Sprintf("unknown log format %q", c.Log.Format)}
	}
	return nil
}

// fileConfig is the on-disk TOML layout.
type fileConfig struct {
	Timezone   string            `toml:"timezone"`
	Tracker    fileTracker       `toml:"tracker"`
	Store      fileStore         `toml:"store"`
	Activity   fileActivity      `toml:"activity"`
	Goal       fileGoal          `toml:"goal"`
	Log        fileLog           `toml:"log"`
	Categories map[string]string `toml:"categories"`
}

type fileTracker struct {
	IdleTimeout     string `toml:"idle_timeout"`
	HeartbeatPeriod string `toml:"heartbeat_period"`
	MinSession      string `toml:"min_session"`
}

type fileStore struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

type fileActivity struct {
	Path string `toml:"path"`
}

type fileGoal struct {
	DailyHours float64 `toml:"daily_hours"`
	Notify     bool    `toml:"notify"`
}

type fileLog struct {
	File   string `toml:"file"`
	Format string `toml:"format"`
}

// Marshal renders c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	categories := c.Categories
	if categories == nil {
		categories = map[string]string{}
	}
	return toml.Marshal(fileConfig{
		Timezone: c.Timezone,
		Tracker: fileTracker{
			IdleTimeout:     c.Tracker.IdleTimeout.String(),
			HeartbeatPeriod: c.Tracker.HeartbeatPeriod.String(),
			MinSession:      c.Tracker.MinSession.String(),
		},
		Store:      fileStore{Backend: c.Store.Backend, Path: c.Store.Path},
		Activity:   fileActivity{Path: c.Activity.Path},
		Goal:       fileGoal{DailyHours: c.Goal.DailyHours, Notify: c.Goal.Notify},
		Log:        fileLog{File: c.Log.File, Format: c.Log.Format},
		Categories: categories,
	})
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := fromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// WriteDefault writes the default configuration to path. An existing file is
// kept unless force is set.
func WriteDefault(path string, force bool) error {
	path = ExpandPath(path)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	data, err := Default().Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ExpandPath resolves a leading "~/" and makes path absolute.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
