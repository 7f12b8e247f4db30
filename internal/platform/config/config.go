// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultServerPort is the default HTTP server port for serve mode.
	DefaultServerPort = 8080

	// DefaultMaxRequestSize is the default maximum request body size (1MB).
	DefaultMaxRequestSize = 1 << 20

	// DefaultClientRetryMaxAttempts is the default number of retry attempts.
	DefaultClientRetryMaxAttempts = 3

	// DefaultClientRetryMultiplier is the default exponential backoff multiplier.
	DefaultClientRetryMultiplier = 2.0

	// DefaultClientRetryJitterFactor is the default jitter percentage (±25%).
	DefaultClientRetryJitterFactor = 0.25

	// DefaultClientCircuitMaxFailures is the default failures before circuit opens.
	DefaultClientCircuitMaxFailures = 5

	// DefaultClientCircuitHalfOpenLimit is the default successes to close circuit.
	DefaultClientCircuitHalfOpenLimit = 3

	// DefaultTransportMaxIdleConns is the default max idle connections.
	DefaultTransportMaxIdleConns = 10

	// DefaultTransportMaxIdleConnsPerHost is the default max idle connections per host.
	DefaultTransportMaxIdleConnsPerHost = 2

	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28

	// DefaultTargetRecordsPerCategory is the default number of records wanted per category.
	DefaultTargetRecordsPerCategory = 50

	// DefaultPageSize is the number of quotes requested per listing page.
	DefaultPageSize = 10

	// DefaultMaxPagesConsidered bounds the page count used for sampling.
	DefaultMaxPagesConsidered = 20

	// DefaultInterRequestDelay is the pause after every page fetch.
	DefaultInterRequestDelay = 900 * time.Millisecond

	// DefaultSourceRateLimit is the outbound request budget in requests per second.
	DefaultSourceRateLimit = 1.0
)

// SamplingPolicy values accepted by harvest.sampling_policy.
const (
	PolicySequential = "sequential"
	PolicyRandomized = "randomized"
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Source    SourceConfig    `koanf:"source"    validate:"required"`
	Harvest   HarvestConfig   `koanf:"harvest"   validate:"required"`
	Output    OutputConfig    `koanf:"output"    validate:"required"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings for the snapshot read API.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	RequestTimeout  time.Duration `koanf:"request_timeout"  validate:"required,min=100ms"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `koanf:"insecure"`
}

// ClientConfig contains HTTP client settings for the quote source.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig contains retry settings for HTTP clients.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig contains circuit breaker settings for HTTP clients.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

// SourceConfig describes the paginated HTML quote source.
type SourceConfig struct {
	Name string `koanf:"name" validate:"required"`

	// BaseURL is the scheme and host of the source.
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// PathTemplate is the listing path; {category} is replaced by the category name.
	PathTemplate string `koanf:"path_template" validate:"required,startswith=/,contains={category}"`

	UserAgent string `koanf:"user_agent" validate:"required"`

	// RateLimit is the outbound budget in requests per second. Zero disables it.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
	RateBurst int     `koanf:"rate_burst" validate:"min=1"`

	Selectors SelectorConfig `koanf:"selectors" validate:"required"`
}

// SelectorConfig holds the CSS selectors used to read listing pages.
type SelectorConfig struct {
	Container  string `koanf:"container"  validate:"required"`
	Text       string `koanf:"text"       validate:"required"`
	Author     string `koanf:"author"     validate:"required"`
	Tag        string `koanf:"tag"        validate:"required"`
	Pagination string `koanf:"pagination" validate:"required"`
}

// HarvestConfig controls the harvesting pipeline.
type HarvestConfig struct {
	Categories               []string      `koanf:"categories"                  validate:"required,min=1,unique,dive,notblank"`
	TargetRecordsPerCategory int           `koanf:"target_records_per_category" validate:"min=0"`
	PageSize                 int           `koanf:"page_size"                   validate:"required,min=1,max=100"`
	MaxPagesConsidered       int           `koanf:"max_pages_considered"        validate:"required,min=1,max=500"`
	SamplingPolicy           string        `koanf:"sampling_policy"             validate:"required,oneof=sequential randomized"`
	InterRequestDelay        time.Duration `koanf:"inter_request_delay"         validate:"min=0"`

	// MaxRecordsPerCategory caps each category result. Zero means uncapped.
	MaxRecordsPerCategory int `koanf:"max_records_per_category" validate:"min=0"`

	// Concurrency is the number of categories harvested at once.
	Concurrency int `koanf:"concurrency" validate:"required,min=1,max=16"`

	// Seed fixes the sampling RNG. Zero seeds from the clock.
	Seed uint64 `koanf:"seed"`
}

// OutputConfig controls where snapshots are written.
type OutputConfig struct {
	Dir    string       `koanf:"dir"    validate:"required"`
	SQLite SQLiteConfig `koanf:"sqlite"`
}

// SQLiteConfig controls the optional SQLite snapshot archive.
type SQLiteConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path" validate:"required_if=Enabled true"`
}

// MetricsConfig controls Prometheus harvest metrics.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace" validate:"required_if=Enabled true"`

	// TextfilePath, when set, receives the metrics after each run in
	// node-exporter textfile format.
	TextfilePath string `koanf:"textfile_path"`
}

// SourceBudget returns the outbound rate and burst used toward the source.
// A non-zero inter-request delay caps the rate at one request per delay with
// a burst of one, so categories harvested in parallel never reach the host
// closer together than a serial run would.
func (c *Config) SourceBudget() (limit float64, burst int) {
	limit, burst = c.Source.RateLimit, c.Source.RateBurst

	delay := c.Harvest.InterRequestDelay
	if delay <= 0 {
		return limit, burst
	}

	ceiling := float64(time.Second) / float64(delay)
	if limit == 0 || limit > ceiling {
		limit = ceiling
	}

	return limit, 1
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quote-harvester",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.request_timeout":  "10s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/harvester.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "quote-harvester",
		"telemetry.sampling_rate": 1.0,
		"telemetry.insecure":      false,

		"client.timeout":                           "15s",
		"client.retry.max_attempts":                DefaultClientRetryMaxAttempts,
		"client.retry.initial_interval":            "250ms",
		"client.retry.max_interval":                "5s",
		"client.retry.multiplier":                  DefaultClientRetryMultiplier,
		"client.retry.jitter_factor":               DefaultClientRetryJitterFactor,
		"client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",

		"source.name":                 "thequoteshub",
		"source.base_url":             "https://thequoteshub.com",
		"source.path_template":        "/api/tags/{category}",
		"source.user_agent":           "quote-harvester/dev (+https://github.com/jsamuelsen/quote-harvester)",
		"source.rate_limit":           DefaultSourceRateLimit,
		"source.rate_burst":           1,
		"source.selectors.container":  ".quote-container",
		"source.selectors.text":       ".quote-text",
		"source.selectors.author":     ".author",
		"source.selectors.tag":        ".tag",
		"source.selectors.pagination": ".pagination-info",

		"harvest.categories":                  []string{"daily", "motivational", "love", "happiness", "positive", "strength"},
		"harvest.target_records_per_category": DefaultTargetRecordsPerCategory,
		"harvest.page_size":                   DefaultPageSize,
		"harvest.max_pages_considered":        DefaultMaxPagesConsidered,
		"harvest.sampling_policy":             PolicySequential,
		"harvest.inter_request_delay":         DefaultInterRequestDelay.String(),
		"harvest.max_records_per_category":    DefaultTargetRecordsPerCategory,
		"harvest.concurrency":                 1,
		"harvest.seed":                        0,

		"output.dir":            "daily-quotes",
		"output.sqlite.enabled": false,
		"output.sqlite.path":    "daily-quotes/archive.db",

		"metrics.enabled":       true,
		"metrics.namespace":     "quote_harvester",
		"metrics.textfile_path": "",
	}
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (APP_ prefix)
//  2. Profile config file (configs/{profile}.yaml)
//  3. Base config file (configs/base.yaml)
//  4. Default values
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load base config file if it exists
	err = loadFileIfExists(k, "configs/base.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	// 3. Load profile config file if it exists
	if profile != "" {
		profilePath := fmt.Sprintf("configs/%s.yaml", profile)

		err := loadFileIfExists(k, profilePath)
		if err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	// 4. Load environment variables with APP_ prefix
	err = k.Load(env.ProviderWithValue("APP_", ".", envMapper(k.Keys())), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envMapper maps APP_HARVEST_PAGE_SIZE to harvest.page_size by matching
// against the known keys, so that keys containing underscores survive.
// Unknown variables fall back to replacing every underscore with a dot.
// List-valued keys are split on commas.
func envMapper(known []string) func(string, string) (string, any) {
	lookup := make(map[string]string, len(known))
	for _, key := range known {
		lookup[strings.ReplaceAll(key, ".", "_")] = key
	}

	return func(name, value string) (string, any) {
		name = strings.ToLower(strings.TrimPrefix(name, "APP_"))

		key, ok := lookup[name]
		if !ok {
			key = strings.ReplaceAll(name, "_", ".")
		}

		if key == "harvest.categories" {
			return key, splitList(value)
		}

		return key, value
	}
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
