package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. ERT_SERVER_PORT.
const EnvPrefix = "ERT"

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Report  ReportConfig  `yaml:"report" envconfig:"REPORT"`
	Jobs    JobsConfig    `yaml:"jobs" envconfig:"JOBS"`
	Otel    OtelConfig    `yaml:"otel" envconfig:"OTEL"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string          `yaml:"host" envconfig:"HOST"`
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int             `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// Log line formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ReportConfig contains report generation defaults
type ReportConfig struct {
	OutputDir      string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	SettingsDir    string `yaml:"settings_dir" envconfig:"SETTINGS_DIR"`
	EventsDir      string `yaml:"events_dir" envconfig:"EVENTS_DIR"`
	Format         string `yaml:"format" envconfig:"FORMAT"`
	FileName       string `yaml:"file_name" envconfig:"FILE_NAME"`
	EmptyCellValue string `yaml:"empty_cell_value" envconfig:"EMPTY_CELL_VALUE"`
	WriteHeader    bool   `yaml:"write_header" envconfig:"WRITE_HEADER"`
	UTF8BOM        bool   `yaml:"utf8_bom" envconfig:"UTF8_BOM"`
	CRLF           bool   `yaml:"crlf" envconfig:"CRLF"`
	UserName       string `yaml:"user_name" envconfig:"USER_NAME"`
}

// JobsConfig contains report job queue configuration
type JobsConfig struct {
	Workers         int           `yaml:"workers" envconfig:"WORKERS"`
	QueueSize       int           `yaml:"queue_size" envconfig:"QUEUE_SIZE"`
	Retention       time.Duration `yaml:"retention" envconfig:"RETENTION"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" envconfig:"CLEANUP_INTERVAL"`
	PollInterval    time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"`
}

// OtelConfig contains OpenTelemetry configuration
type OtelConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:8080"},
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   100,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   LogFormatJSON,
			Output:   "console",
			FilePath: "logs/ertcli.log",
		},
		Report: ReportConfig{
			OutputDir:   "output",
			SettingsDir: "settings",
			EventsDir:   "events",
			Format:      "csv",
			FileName:    "report.csv",
			WriteHeader: true,
			CRLF:        true,
		},
		Jobs: JobsConfig{
			Workers:         2,
			QueueSize:       64,
			Retention:       24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
			PollInterval:    time.Second,
		},
		Otel: OtelConfig{
			ServiceName:    "ertcli",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or the first config file found when path is empty), then ERT_*
// environment variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file at filePath onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}
	switch strings.ToLower(c.Logging.Format) {
	case LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path is required for output %q", c.Logging.Output)
	}

	if c.Report.OutputDir == "" {
		return fmt.Errorf("report output directory is required")
	}
	if c.Report.SettingsDir == "" {
		return fmt.Errorf("report settings directory is required")
	}
	switch strings.ToLower(c.Report.Format) {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("invalid report format: %q", c.Report.Format)
	}

	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs workers must be positive")
	}
	if c.Jobs.QueueSize <= 0 {
		return fmt.Errorf("jobs queue size must be positive")
	}
	if c.Jobs.PollInterval <= 0 {
		return fmt.Errorf("jobs poll interval must be positive")
	}

	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		return fmt.Errorf("otel sample ratio must be between 0 and 1")
	}
	return nil
}

// Address returns the host:port the HTTP server listens on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// findConfigFile returns the first config file found in the usual locations
func findConfigFile() string {
	locations := []string{
		"ertcli.yaml",
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
