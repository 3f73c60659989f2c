package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Storage drivers understood by Load.
const (
	DriverDiskv  = "diskv"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config names where and how planners are stored.
type Config interface {
	BasePath() string
	Driver() string
}

// Settings is the full planner configuration read from .planner.yaml and
// PLANNER_* environment variables.
type Settings struct {
	Path        string   `mapstructure:"path"`
	DriverName  string   `mapstructure:"driver"`
	Calendars   []string `mapstructure:"calendars"`
	Timezone    string   `mapstructure:"timezone"`
	Keep        string   `mapstructure:"keep"`
	Refresh     string   `mapstructure:"refresh"`
	Rollover    string   `mapstructure:"rollover"`
	MetricsAddr string   `mapstructure:"metrics_addr"`
	LogLevel    string   `mapstructure:"log_level"`
}

func (s *Settings) BasePath() string { return s.Path }
func (s *Settings) Driver() string   { return s.DriverName }

// Location resolves Timezone, falling back to the local zone.
func (s *Settings) Location() (*time.Location, error) {
	if strings.TrimSpace(s.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("store: timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// LoadConfig reads the configuration. Missing config files are not an error.
func LoadConfig() (Config, error) {
	return LoadSettings()
}

// LoadSettings is LoadConfig returning the concrete settings.
func LoadSettings() (*Settings, error) {
	v := viper.New()
	v.SetDefault("path", "~/.planner.db")
	v.SetDefault("driver", DriverDiskv)
	v.SetDefault("keep", "1w")
	v.SetDefault("refresh", "*/15 * * * *")
	v.SetDefault("rollover", "5 0 * * *")
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("calendars", []string{})

	v.SetConfigName(".planner") // .yaml is implicit
	v.SetEnvPrefix("PLANNER")
	v.AutomaticEnv()

	if override := os.Getenv("PLANNER_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("store: decode config: %w", err)
	}
	// AutomaticEnv does not split lists.
	if raw := os.Getenv("PLANNER_CALENDARS"); raw != "" {
		s.Calendars = strings.Split(raw, ",")
	}
	path, err := homedir.Expand(s.Path)
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}
	s.Path = path
	return s, nil
}
