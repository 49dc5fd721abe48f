// Package config provides configuration parsing and management for trendd.
//
// It handles both command-line flags and environment variables, with flags taking
// precedence over environment variables. The Config struct contains all runtime
// configuration for the daemon including:
//   - Collection settings (provider kind, mount point, docker binary, interval)
//   - Analysis settings (window duration, classification thresholds)
//   - Store backend settings (fs directory, redis connection)
//   - Report output settings (format, destination)
//   - Logging configuration (level, format)
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
package config

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"time"
)

// Config holds all trendd configuration.
type Config struct {
	Listen    string
	LogFormat string
	LogLevel  string

	Store         string
	DataDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	Host     string
	Provider string
	Mount    string
	Docker   string
	File     string

	Window   time.Duration
	Interval time.Duration

	DiskWarnMedium  float64
	DiskWarnHigh    float64
	GrowthSamples   int
	GrowthRate      float64
	LoadWarn        float64
	SpikeMultiplier float64

	Format string
	Output string
	Once   bool
}

// ParseFlags parses command-line flags and environment variables into a Config.
// Environment variables are used as fallbacks when flags are not provided.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8082"), "HTTP listen address")

	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.StringVar(&cfg.Store, "store", getEnv("STORE", "fs"), "Snapshot store backend: fs, memory, or redis")
	flag.StringVar(&cfg.DataDir, "data-dir", getEnv("DATA_DIR", "/tmp/hostpulse"), "Directory for snapshot files (fs store)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	flag.DurationVar(&cfg.RedisTTL, "redis-ttl", getEnvDuration("REDIS_TTL", 0), "Redis series retention (0 keeps everything)")

	flag.StringVar(&cfg.Host, "host", getEnv("HOST", defaultHostname()), "Host identifier keying the snapshot series")
	flag.StringVar(&cfg.Provider, "provider", getEnv("PROVIDER", "system"), "Snapshot provider: system or file")
	flag.StringVar(&cfg.Mount, "mount", getEnv("MOUNT", "/"), "Filesystem mount to sample disk usage from")
	flag.StringVar(&cfg.Docker, "docker", getEnv("DOCKER", "docker"), "Docker binary used for container counts")
	flag.StringVar(&cfg.File, "file", getEnv("FILE", ""), "Snapshot document path (required when provider=file)")

	flag.DurationVar(&cfg.Window, "window", getEnvDuration("WINDOW", 24*time.Hour), "Analysis window duration")
	flag.DurationVar(&cfg.Interval, "interval", getEnvDuration("INTERVAL", 60*time.Second), "Collection loop interval")

	flag.Float64Var(&cfg.DiskWarnMedium, "disk-warn-medium", getEnvFloat("DISK_WARN_MEDIUM", 70), "Disk usage percent for a medium warning")
	flag.Float64Var(&cfg.DiskWarnHigh, "disk-warn-high", getEnvFloat("DISK_WARN_HIGH", 80), "Disk usage percent for a high warning")
	flag.IntVar(&cfg.GrowthSamples, "growth-samples", getEnvInt("GROWTH_SAMPLES", 4), "Trailing samples used by the disk growth rule")
	flag.Float64Var(&cfg.GrowthRate, "growth-rate", getEnvFloat("GROWTH_RATE", 2.0), "Disk growth percent-per-sample anomaly threshold")
	flag.Float64Var(&cfg.LoadWarn, "load-warn", getEnvFloat("LOAD_WARN", 2.0), "Window-average load_1min warning threshold")
	flag.Float64Var(&cfg.SpikeMultiplier, "spike-multiplier", getEnvFloat("SPIKE_MULTIPLIER", 3.0), "Load spike multiplier over the window average")

	flag.StringVar(&cfg.Format, "format", getEnv("FORMAT", "text"), "Report format: text or json")
	flag.StringVar(&cfg.Output, "output", getEnv("OUTPUT", ""), "Report file path (empty writes to stdout in -once mode)")
	flag.BoolVar(&cfg.Once, "once", getEnvBool("ONCE", false), "Collect and report once, then exit")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

var hostNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]{0,251}[a-zA-Z0-9])?$`)

// Validate checks configuration consistency. Bad values are reported back
// to the operator instead of silently fixed.
func (c *Config) Validate() error {
	switch c.Store {
	case "fs", "memory", "redis":
	default:
		return fmt.Errorf("invalid store %q (must be fs, memory, or redis)", c.Store)
	}

	if c.Store == "fs" && c.DataDir == "" {
		return fmt.Errorf("--data-dir is required when store=fs")
	}
	if c.Store == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("--redis-addr is required when store=redis")
	}

	if c.Host == "" {
		return fmt.Errorf("--host is required")
	}
	if !hostNameRegex.MatchString(c.Host) {
		return fmt.Errorf("invalid host %q (must be alphanumeric with dot/dash/underscore, 1-253 chars)", c.Host)
	}

	switch c.Provider {
	case "system":
	case "file":
		if c.File == "" {
			return fmt.Errorf("--file is required when provider=file")
		}
	default:
		return fmt.Errorf("invalid provider %q (must be system or file)", c.Provider)
	}

	if c.Window <= 0 {
		return fmt.Errorf("window must be > 0")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if c.Interval > c.Window {
		return fmt.Errorf("interval (%v) cannot exceed window (%v)", c.Interval, c.Window)
	}

	if c.DiskWarnMedium <= 0 || c.DiskWarnMedium > 100 {
		return fmt.Errorf("disk-warn-medium must be in (0, 100]")
	}
	if c.DiskWarnHigh <= c.DiskWarnMedium || c.DiskWarnHigh > 100 {
		return fmt.Errorf("disk-warn-high must be in (disk-warn-medium, 100]")
	}
	if c.GrowthSamples < 2 {
		return fmt.Errorf("growth-samples must be >= 2")
	}
	if c.GrowthRate <= 0 {
		return fmt.Errorf("growth-rate must be > 0")
	}
	if c.LoadWarn <= 0 {
		return fmt.Errorf("load-warn must be > 0")
	}
	if c.SpikeMultiplier <= 1 {
		return fmt.Errorf("spike-multiplier must be > 1")
	}

	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q (must be text or json)", c.Format)
	}

	return nil
}

func defaultHostname() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return "localhost"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
