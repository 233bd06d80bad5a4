// Package config loads run configuration from a YAML file, a .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // default zone is Asia/Tokyo, hosts may lack zoneinfo

	"github.com/joho/godotenv"
	"github.com/matillion/reaction-tally/internal/aggregator"
	"github.com/matillion/reaction-tally/internal/reaction"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is read when no --config flag is given.
	DefaultConfigFile = "reaction-tally.yml"
	// DefaultEnvFile is loaded before the environment is read.
	DefaultEnvFile = ".env"

	timeLayout = "2006-01-02 15:04:05"
)

// Config is everything one run needs.
type Config struct {
	Token             string        `yaml:"slack_bot_token,omitempty"`
	Cookie            string        `yaml:"slack_cookie,omitempty"`
	Channel           string        `yaml:"channel"`
	Timezone          string        `yaml:"timezone"`
	Start             string        `yaml:"start"`
	End               string        `yaml:"end"`
	TargetUsers       []string      `yaml:"target_users"`
	Reaction          string        `yaml:"reaction"`
	AffiliationTokens []string      `yaml:"affiliation_tokens"`
	ChannelTypes      string        `yaml:"channel_types"`
	HistoryPageSize   int           `yaml:"history_page_size"`
	RepliesPageSize   int           `yaml:"replies_page_size"`
	PageDelay         time.Duration `yaml:"page_delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout"`
	LogLevel          string        `yaml:"log_level"`
	LogDir            string        `yaml:"log_dir"`
	OutDir            string        `yaml:"out_dir,omitempty"`
	DryRun            bool          `yaml:"dry_run"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Timezone:        "Asia/Tokyo",
		Reaction:        "回答",
		ChannelTypes:    "public",
		HistoryPageSize: aggregator.DefaultHistoryPageSize,
		RepliesPageSize: aggregator.DefaultRepliesPageSize,
		PageDelay:       aggregator.DefaultPageDelay,
		LogLevel:        "info",
		LogDir:          "logs",
	}
}

// Load builds a Config from defaults, the YAML file at path (a missing file
// is not an error), envFile and the environment, in that order.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if envFile != "" {
		// A missing .env file is normal outside local development.
		_ = godotenv.Load(envFile)
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("SLACK_COOKIE"); v != "" {
		c.Cookie = v
	}
	if v := os.Getenv("REACTION_TALLY_CHANNEL"); v != "" {
		c.Channel = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Location returns the configured time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Window parses the aggregation window. Bounds are RFC3339 or
// "2006-01-02 15:04:05" in the configured time zone.
func (c Config) Window() (reaction.Window, error) {
	loc, err := c.Location()
	if err != nil {
		return reaction.Window{}, err
	}
	start, err := parseTime(c.Start, loc)
	if err != nil {
		return reaction.Window{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseTime(c.End, loc)
	if err != nil {
		return reaction.Window{}, fmt.Errorf("end: %w", err)
	}
	w := reaction.Window{Start: start, End: end}
	return w, w.Validate()
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(timeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (want RFC3339 or %q)", s, timeLayout)
	}
	return t, nil
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.Token == "" {
		return errors.New("slack token is required (set SLACK_BOT_TOKEN)")
	}
	if c.Channel == "" && !c.DryRun {
		return errors.New("destination channel is required unless dry_run is set")
	}
	if len(c.TargetUsers) == 0 {
		return errors.New("target_users must not be empty")
	}
	if c.Reaction == "" {
		return errors.New("reaction must not be empty")
	}
	if _, err := reaction.ParseChannelTypes(c.ChannelTypes); err != nil {
		return err
	}
	if _, err := c.Window(); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

// Options converts the configuration to pipeline options.
func (c Config) Options() (aggregator.Options, error) {
	if err := c.Validate(); err != nil {
		return aggregator.Options{}, err
	}
	types, _ := reaction.ParseChannelTypes(c.ChannelTypes)
	window, _ := c.Window()
	loc, _ := c.Location()

	return aggregator.Options{
		TargetNames:       c.TargetUsers,
		Reaction:          c.Reaction,
		AffiliationTokens: c.AffiliationTokens,
		ChannelTypes:      types,
		Window:            window,
		HistoryPageSize:   c.HistoryPageSize,
		RepliesPageSize:   c.RepliesPageSize,
		PageDelay:         c.PageDelay,
		Destination:       c.Channel,
		DryRun:            c.DryRun,
		Location:          loc,
	}, nil
}
