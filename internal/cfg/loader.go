package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

const dotEnvFile = ".env"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Sources
	SourcesFile   string `long:"sources-file" env:"SOURCES_FILE" description:"YAML file with the source table (built-in table when empty)"`
	FinnhubAPIKey string `long:"finnhub-api-key" env:"FINNHUB_API_KEY" description:"Finnhub API key (API source is skipped when empty)"`

	// Polling
	Interval  int    `long:"interval" env:"POLL_INTERVAL" default:"60" description:"Seconds between the end of one poll cycle and the start of the next"`
	Timeout   int    `long:"timeout" env:"FETCH_TIMEOUT" default:"30" description:"Default per-source HTTP timeout in seconds"`
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"newswire/1.0" description:"User agent string for HTTP requests"`

	// Outputs
	Port         string `long:"port" env:"PORT" description:"Status API port (disabled when empty)"`
	ArchivePath  string `long:"archive-path" env:"ARCHIVE_PATH" description:"SQLite archive file (disabled when empty)"`
	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for item publishing (disabled when empty)"`
	RedisChannel string `long:"redis-channel" env:"REDIS_CHANNEL" default:"newswire:items" description:"Redis pub/sub channel"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads configuration from an optional .env file, the environment and
// args. It returns nil, nil when help was requested.
func Load(args []string) (*Cfg, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, err
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", raw.Interval)
	}
	if raw.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %d", raw.Timeout)
	}

	cfg := &Cfg{
		SourcesFile:   raw.SourcesFile,
		FinnhubAPIKey: raw.FinnhubAPIKey,
		Interval:      time.Duration(raw.Interval) * time.Second,
		Timeout:       time.Duration(raw.Timeout) * time.Second,
		UserAgent:     raw.UserAgent,
		Port:          raw.Port,
		ArchivePath:   raw.ArchivePath,
		RedisAddr:     raw.RedisAddr,
		RedisChannel:  raw.RedisChannel,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}
	cfg.Location = loc

	return cfg, nil
}

// loadDotEnv never overrides variables already set in the environment.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func loadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(timezone)
}
