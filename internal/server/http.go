package server

import (
	"encoding/json"
	"fmt"
	"time"

	"cvscreen/internal/config"
	cvscreenErrors "cvscreen/internal/errors"
	"cvscreen/internal/observability"
	"cvscreen/internal/screening"
	"cvscreen/internal/types"
)

// keywordList accepts either a JSON array of strings or a single
// comma-separated string, since upstream systems send both forms.
type keywordList []string

func (k *keywordList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = types.NormalizeKeywords(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = types.SplitKeywords(s)
		return nil
	}
	return fmt.Errorf("keywords must be a string or an array of strings")
}

// ScreenRequest represents the request body for the screen endpoint
type ScreenRequest struct {
	ApplicationID string      `json:"applicationId"`
	DocumentURL   string      `json:"documentUrl"`
	Keywords      keywordList `json:"keywords"`
	PassThreshold int         `json:"passThreshold,omitempty"`
}

// BatchRequest represents the request body for the batch screen endpoint
type BatchRequest struct {
	Applications []ScreenRequest `json:"applications"`
}

// BatchResponse wraps the per-application outcomes of a batch
type BatchResponse struct {
	Outcomes []types.ScreeningOutcome `json:"outcomes"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Screening pipeline
	Service *screening.Service

	// Observability manager shared with the screening pipeline
	Obs *observability.ObservabilityManager

	// Logger
	Logger *cvscreenErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct.
// The observability manager is shared with the screening service so
// pipeline metrics and HTTP traces land in the same exporters.
func NewServer(appCfg *config.Config, cfg ServerConfig, svc *screening.Service,
	om *observability.ObservabilityManager, logger *cvscreenErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Service:        svc,
		Obs:            om,
		Logger:         logger,
	}
}

// screeningRequest converts an API request into the engine's input form.
func (r ScreenRequest) screeningRequest() types.ScreeningRequest {
	return types.ScreeningRequest{
		ApplicationID:    r.ApplicationID,
		DocumentRef:      r.DocumentURL,
		RequiredKeywords: r.Keywords,
		PassThreshold:    r.PassThreshold,
	}
}
