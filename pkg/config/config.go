package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG directories and dotfiles used by the CLI
const AppName = "firecrawl"

// DefaultAPIURL is the base URL of a self-hosted Firecrawl Simple instance
const DefaultAPIURL = "http://localhost:3002/v1"

// Config holds all configuration options for the Firecrawl CLI
type Config struct {
	API           APIConfig          `yaml:"api" toml:"api" json:"api"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`
	Retry         RetryConfig        `yaml:"retry" toml:"retry" json:"retry"`
	Poll          PollConfig         `yaml:"poll" toml:"poll" json:"poll"`
	Batch         BatchConfig        `yaml:"batch" toml:"batch" json:"batch"`
	Output        OutputConfig       `yaml:"output" toml:"output" json:"output"`
	Jobs          JobsConfig         `yaml:"jobs" toml:"jobs" json:"jobs"`
	Export        ExportConfig       `yaml:"export" toml:"export" json:"export"`
	Telemetry     TelemetryConfig    `yaml:"telemetry" toml:"telemetry" json:"telemetry"`
	Notifications NotificationConfig `yaml:"notifications" toml:"notifications" json:"notifications"`
	Logging       LoggingConfig      `yaml:"logging" toml:"logging" json:"logging"`
}

// APIConfig holds the connection settings for the Firecrawl API
type APIConfig struct {
	URL     string   `yaml:"url" toml:"url" json:"url"`
	APIKey  string   `yaml:"api_key" toml:"api_key" json:"api_key"`
	Timeout Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
}

// RateLimitConfig caps how fast the CLI issues requests
// Strategy is "smooth" (token bucket refilled continuously), "fixed_window"
// or "sliding_window".
type RateLimitConfig struct {
	Strategy          string `yaml:"strategy" toml:"strategy" json:"strategy"`
	RequestsPerMinute int    `yaml:"requests_per_minute" toml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int    `yaml:"burst_size" toml:"burst_size" json:"burst_size"`
}

// RetryConfig controls the opt-in retry helper used by the CLI
type RetryConfig struct {
	Enabled     bool     `yaml:"enabled" toml:"enabled" json:"enabled"`
	MaxAttempts int      `yaml:"max_attempts" toml:"max_attempts" json:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay" toml:"base_delay" json:"base_delay"`
	MaxDelay    Duration `yaml:"max_delay" toml:"max_delay" json:"max_delay"`
	Multiplier  float64  `yaml:"multiplier" toml:"multiplier" json:"multiplier"`
}

// PollConfig controls crawl status polling
type PollConfig struct {
	Interval        Duration `yaml:"interval" toml:"interval" json:"interval"`
	Timeout         Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
	CancelOnTimeout bool     `yaml:"cancel_on_timeout" toml:"cancel_on_timeout" json:"cancel_on_timeout"`
}

// BatchConfig sizes the batch scrape worker pool
type BatchConfig struct {
	Workers   int `yaml:"workers" toml:"workers" json:"workers"`
	QueueSize int `yaml:"queue_size" toml:"queue_size" json:"queue_size"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory     string   `yaml:"base_directory" toml:"base_directory" json:"base_directory"`
	Formats           []string `yaml:"formats" toml:"formats" json:"formats"`
	WriteReport       bool     `yaml:"write_report" toml:"write_report" json:"write_report"`
	OverwriteExisting bool     `yaml:"overwrite_existing" toml:"overwrite_existing" json:"overwrite_existing"`
}

// JobsConfig selects where started crawls are recorded
type JobsConfig struct {
	Backend     string   `yaml:"backend" toml:"backend" json:"backend"`
	Path        string   `yaml:"path" toml:"path" json:"path"`
	RedisAddr   string   `yaml:"redis_addr" toml:"redis_addr" json:"redis_addr"`
	RedisPrefix string   `yaml:"redis_prefix" toml:"redis_prefix" json:"redis_prefix"`
	RedisTTL    Duration `yaml:"redis_ttl" toml:"redis_ttl" json:"redis_ttl"`
}

// ExportConfig holds settings for streaming crawled pages to Kafka
type ExportConfig struct {
	KafkaBrokers []string `yaml:"kafka_brokers" toml:"kafka_brokers" json:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic" toml:"kafka_topic" json:"kafka_topic"`
}

// TelemetryConfig holds metrics and tracing settings
type TelemetryConfig struct {
	Enabled        bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	ServiceName    string `yaml:"service_name" toml:"service_name" json:"service_name"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" toml:"otlp_endpoint" json:"otlp_endpoint"`
	MetricsAddress string `yaml:"metrics_address" toml:"metrics_address" json:"metrics_address"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" toml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" toml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" toml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
	File  string `yaml:"file" toml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:     DefaultAPIURL,
			Timeout: Duration(60 * time.Second),
		},
		RateLimit: RateLimitConfig{
			Strategy:          "smooth",
			RequestsPerMinute: 60,
			BurstSize:         5,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   Duration(time.Second),
			MaxDelay:    Duration(30 * time.Second),
			Multiplier:  2.0,
		},
		Poll: PollConfig{
			Interval: Duration(2 * time.Second),
			Timeout:  Duration(5 * time.Minute),
		},
		Batch: BatchConfig{
			Workers:   3,
			QueueSize: 100,
		},
		Output: OutputConfig{
			BaseDirectory: "./firecrawl-output",
			Formats:       []string{"markdown"},
			WriteReport:   true,
		},
		Jobs: JobsConfig{
			Backend:     "file",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "firecrawl:jobs:",
			RedisTTL:    Duration(7 * 24 * time.Hour),
		},
		Export: ExportConfig{
			KafkaTopic: "firecrawl.pages",
		},
		Telemetry: TelemetryConfig{
			ServiceName: AppName,
		},
		Notifications: NotificationConfig{
			Enabled:    true,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG config directory for the CLI
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DataDir returns the XDG data directory for the CLI
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultPath is where `config init` writes the configuration file
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// JobsPath returns the job store location, deriving one from the data
// directory when none is configured
func (c *Config) JobsPath() string {
	if c.Jobs.Path != "" {
		return c.Jobs.Path
	}
	switch c.Jobs.Backend {
	case "sqlite":
		return filepath.Join(DataDir(), "jobs.db")
	default:
		return filepath.Join(DataDir(), "jobs.json")
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("FIRECRAWL_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("FIRECRAWL_API_KEY"); v != "" {
		c.API.APIKey = v
	}
	if v := os.Getenv("FIRECRAWL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FIRECRAWL_TIMEOUT: %w", err))
		} else {
			c.API.Timeout = Duration(d)
		}
	}
	if v := os.Getenv("FIRECRAWL_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FIRECRAWL_REQUESTS_PER_MINUTE: %w", err))
		} else if n > 0 {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("FIRECRAWL_RATE_LIMIT_STRATEGY"); v != "" {
		c.RateLimit.Strategy = v
	}
	if v := os.Getenv("FIRECRAWL_OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv("FIRECRAWL_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FIRECRAWL_JOBS_BACKEND"); v != "" {
		c.Jobs.Backend = v
	}
	if v := os.Getenv("FIRECRAWL_REDIS_ADDR"); v != "" {
		c.Jobs.RedisAddr = v
	}
	if v := os.Getenv("FIRECRAWL_KAFKA_BROKERS"); v != "" {
		c.Export.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("FIRECRAWL_KAFKA_TOPIC"); v != "" {
		c.Export.KafkaTopic = v
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML or TOML file. The format is
// chosen by extension; anything other than .toml is read as YAML.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, c)
	} else {
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// findConfigFile searches the working directory, then the XDG config dirs
func findConfigFile() string {
	for _, loc := range []string{".firecrawl.yaml", ".firecrawl.yml", ".firecrawl.toml"} {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		if path, err := xdg.SearchConfigFile(filepath.Join(AppName, name)); err == nil {
			return path
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.URL == "" {
		errs = append(errs, errors.New("API URL is required"))
	} else if u, err := url.Parse(c.API.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("API URL must be an http(s) URL: %q", c.API.URL))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("API timeout cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}
	switch c.RateLimit.Strategy {
	case "", "smooth", "fixed_window", "sliding_window":
	default:
		errs = append(errs, fmt.Errorf("invalid rate limit strategy: %q", c.RateLimit.Strategy))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry multiplier must be at least 1"))
	}

	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Poll.Timeout <= 0 {
		errs = append(errs, errors.New("poll timeout must be positive"))
	}

	if c.Batch.Workers <= 0 {
		errs = append(errs, errors.New("batch workers must be positive"))
	}
	if c.Batch.Workers > 20 {
		errs = append(errs, errors.New("batch workers should not exceed 20"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	validFormats := map[string]bool{"markdown": true, "rawHtml": true, "screenshot": true}
	for _, f := range c.Output.Formats {
		if !validFormats[f] {
			errs = append(errs, fmt.Errorf("invalid output format: %q", f))
		}
	}

	switch c.Jobs.Backend {
	case "file", "sqlite":
	case "redis":
		if c.Jobs.RedisAddr == "" {
			errs = append(errs, errors.New("redis address is required for the redis job backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid job backend: %q", c.Jobs.Backend))
	}

	if len(c.Export.KafkaBrokers) > 0 && c.Export.KafkaTopic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to path, as TOML when the extension is
// .toml and YAML otherwise
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may hold an API key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Zero values leave the existing setting alone.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["api-url"].(string); ok && v != "" {
		c.API.URL = v
	}
	if v, ok := flags["api-key"].(string); ok && v != "" {
		c.API.APIKey = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.API.Timeout = Duration(v)
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["formats"].([]string); ok && len(v) > 0 {
		c.Output.Formats = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.Batch.Workers = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["jobs-backend"].(string); ok && v != "" {
		c.Jobs.Backend = v
	}
	if v, ok := flags["no-retry"].(bool); ok && v {
		c.Retry.Enabled = false
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment > .env file > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// godotenv never overrides variables that are already set
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(ConfigDir(), ".env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
