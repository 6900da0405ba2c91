// Package config loads application configuration from defaults, a YAML
// config file, and environment variables, in ascending precedence.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Screening ScreeningConfig `mapstructure:"screening"`
	Server    ServerConfig    `mapstructure:"server"`
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Vault     VaultConfig     `mapstructure:"vault"`

	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ScreeningConfig holds the screening pipeline configuration.
type ScreeningConfig struct {
	FuzzyThreshold   float64       `mapstructure:"fuzzyThreshold"`   // Similarity a fuzzy match must exceed (0-1)
	MaxDocumentSize  int64         `mapstructure:"maxDocumentSize"`  // Maximum acquired document size in bytes
	FetchTimeout     time.Duration `mapstructure:"fetchTimeout"`     // HTTP timeout for document downloads
	BatchConcurrency int           `mapstructure:"batchConcurrency"` // Parallel runs in a batch request

	Synonyms SynonymsConfig `mapstructure:"synonyms"`
	OCR      OCRConfig      `mapstructure:"ocr"`
}

// SynonymsConfig controls the synonym table source.
type SynonymsConfig struct {
	File          string        `mapstructure:"file"`          // Optional YAML file merged over built-in entries
	AutoReload    bool          `mapstructure:"autoReload"`    // Watch the file and reload on change
	DebounceDelay time.Duration `mapstructure:"debounceDelay"` // Delay before reloading after a change burst
}

// OCRConfig holds the OCR fallback configuration.
type OCRConfig struct {
	Pdftoppm  string `mapstructure:"pdftoppm"`  // Binary name or absolute path
	Tesseract string `mapstructure:"tesseract"` // Binary name or absolute path
	Language  string `mapstructure:"language"`
	DPI       int    `mapstructure:"dpi"`
	Workers   int    `mapstructure:"workers"`
	MaxPages  int    `mapstructure:"maxPages"`

	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// TLS Configuration
	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // TLS mode: "disabled", "server", "mutual"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)
	CAFile   string `mapstructure:"caFile"`   // CA certificate file for client cert verification (PEM, required for mutual mode)

	MinVersion       string `mapstructure:"minVersion"`       // Minimum TLS version: "1.2", "1.3"
	ClientAuthPolicy string `mapstructure:"clientAuthPolicy"` // Client auth policy for mutual mode: "require", "request", "verify"
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
}

// DatabaseConfig holds the result sink database configuration. With the
// database disabled, outcomes go to the log sink only.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	SampleRate      float64          `mapstructure:"sampleRate"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from defaults, an optional config file
// and CVSCREEN_-prefixed environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CVSCREEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/cvscreen/")
	v.AddConfigPath("$HOME/.cvscreen")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileUsed = v.ConfigFileUsed()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	if configFileUsed != "" {
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Screening.FuzzyThreshold <= 0 || c.Screening.FuzzyThreshold >= 1 {
		return fmt.Errorf("screening fuzzyThreshold must be in (0, 1), got %g", c.Screening.FuzzyThreshold)
	}

	if c.Screening.OCR.DPI <= 0 {
		return fmt.Errorf("OCR dpi must be positive")
	}

	if c.Screening.BatchConcurrency <= 0 {
		return fmt.Errorf("batch concurrency must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database URL is required when the database sink is enabled (set CVSCREEN_DATABASE_URL)")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.Screening.Synonyms.AutoReload && c.Screening.Synonyms.File == "" {
		return fmt.Errorf("synonyms autoReload requires a synonyms file")
	}

	// Validate TLS configuration
	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

// applyFallbacks applies environment variable fallbacks for values viper
// cannot bind through struct unmarshaling.
func (c *Config) applyFallbacks() {
	// Comma-separated API key list, e.g. CVSCREEN_SERVER_APIKEYS="k1,k2"
	if len(c.Server.APIKeys) == 0 {
		if keys := os.Getenv("CVSCREEN_SERVER_APIKEYS"); keys != "" {
			for _, key := range strings.Split(keys, ",") {
				if key = strings.TrimSpace(key); key != "" {
					c.Server.APIKeys = append(c.Server.APIKeys, key)
				}
			}
		}
	}

	if c.Database.URL == "" {
		c.Database.URL = os.Getenv("CVSCREEN_DATABASE_URL")
	}
}
