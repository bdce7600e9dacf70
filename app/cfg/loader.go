package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Upstream configuration
	UpstreamURL       string        `long:"upstream-url" env:"UPSTREAM_URL" default:"http://api.mediastack.com/v1/news" description:"News API endpoint"`
	APIKeys           []string      `long:"upstream-key" env:"NEWS_API_KEYS" env-delim:"," description:"Upstream access key, repeat the flag or comma-separate the env var to build a rotation pool"`
	DefaultRetryAfter time.Duration `long:"default-retry-after" env:"DEFAULT_RETRY_AFTER" default:"1h" description:"Live fetch suppression window when upstream sends no Retry-After"`
	UpstreamTimeout   time.Duration `long:"upstream-timeout" env:"UPSTREAM_TIMEOUT" default:"10s" description:"Timeout for a single upstream request"`
	UpstreamRPS       float64       `long:"upstream-rps" env:"UPSTREAM_RPS" default:"0" description:"Outbound requests per second, 0 for unlimited"`
	PageSize          int           `long:"page-size" env:"PAGE_SIZE" default:"10" description:"Default number of headlines per page"`

	// Storage configuration
	CatalogFile string `long:"catalog" env:"CATALOG_FILE" description:"Fallback catalog YAML, the built-in catalog is used when empty"`
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./news-comb.db" description:"SQLite database file for bookmarks (:memory: for a throwaway store)"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for sharing rate-limit state between instances (optional)"`
	RedisPrefix string `long:"redis-prefix" env:"REDIS_PREFIX" default:"news-comb:" description:"Key prefix for Redis entries"`

	// Application configuration
	Port          string        `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl       string        `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	WorkerCount   int           `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	ProbeInterval time.Duration `long:"probe-interval" env:"PROBE_INTERVAL" default:"5m" description:"How often to check whether a rate-limited upstream has recovered, 0 to disable"`
	APIAccessKey  string        `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for bookmark endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"News Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses the process arguments and environment. It returns nil, nil
// when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		UpstreamURL:       raw.UpstreamURL,
		APIKeys:           cleanKeys(raw.APIKeys),
		DefaultRetryAfter: raw.DefaultRetryAfter,
		UpstreamTimeout:   raw.UpstreamTimeout,
		UpstreamRPS:       raw.UpstreamRPS,
		PageSize:          raw.PageSize,
		CatalogFile:       raw.CatalogFile,
		DBPath:            raw.DBPath,
		RedisAddr:         raw.RedisAddr,
		RedisPrefix:       raw.RedisPrefix,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		ProbeInterval:     raw.ProbeInterval,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

// BaseURL falls back to localhost when no public URL is configured.
func (c *Cfg) BaseURL() string {
	if c.BaseUrl != "" {
		return strings.TrimRight(c.BaseUrl, "/")
	}
	return fmt.Sprintf("http://localhost:%s", c.Port)
}

func validate(cfg *Cfg) error {
	if len(cfg.APIKeys) == 0 {
		return errors.New("at least one upstream key is required (--upstream-key or NEWS_API_KEYS)")
	}
	if cfg.UpstreamURL == "" {
		return errors.New("upstream URL is required")
	}

	nonNegative := map[string]time.Duration{
		"default retry after": cfg.DefaultRetryAfter,
		"upstream timeout":    cfg.UpstreamTimeout,
		"probe interval":      cfg.ProbeInterval,
	}
	for name, value := range nonNegative {
		if value < 0 {
			return fmt.Errorf("%s must be non-negative", name)
		}
	}

	if cfg.PageSize < 1 {
		return errors.New("page size must be positive")
	}
	if cfg.WorkerCount < 1 {
		return errors.New("worker count must be positive")
	}
	if cfg.UpstreamRPS < 0 {
		return errors.New("upstream rps must be non-negative")
	}

	return nil
}

func cleanKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			out = append(out, key)
		}
	}
	return out
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
