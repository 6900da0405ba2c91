package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"cvscreen/internal/observability"
	"cvscreen/internal/types"
)

// createScreenHandler wraps the single-application screen handler with
// observability.
func (s *Server) createScreenHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx := r.Context()
		tracer := om.Tracer("cvscreen.api")
		ctx, span := tracer.Start(ctx, "api.screen")
		defer span.End()

		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		span.SetAttributes(attribute.String("request.id", requestID))

		var req ScreenRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := validateScreenRequest(req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid screening request", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("screening.application_id", req.ApplicationID),
			attribute.Int("screening.keyword_count", len(req.Keywords)),
			attribute.String("operation", "screen"),
		)

		// Screen never fails: pipeline errors surface as an unscreened
		// outcome in the response body, not as an HTTP error.
		outcome := s.Service.Screen(ctx, req.screeningRequest())

		span.SetAttributes(
			attribute.Bool("screening.screened", outcome.Screened()),
			attribute.String("screening.disposition", string(outcome.Disposition)),
		)

		writeJSONResponse(w, outcome)
	}
}

// createBatchHandler wraps the batch screen handler with observability.
func (s *Server) createBatchHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		ctx := r.Context()
		tracer := om.Tracer("cvscreen.api")
		ctx, span := tracer.Start(ctx, "api.screen_batch")
		defer span.End()

		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)
		span.SetAttributes(attribute.String("request.id", requestID))

		var req BatchRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if len(req.Applications) == 0 {
			err := fmt.Errorf("empty batch")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Empty batch", "applications field must contain at least one entry", http.StatusBadRequest)
			return
		}

		reqs := make([]types.ScreeningRequest, len(req.Applications))
		for i, app := range req.Applications {
			reqs[i] = app.screeningRequest()
		}

		span.SetAttributes(
			attribute.Int("screening.batch_size", len(reqs)),
			attribute.String("operation", "screen_batch"),
		)

		// Per-application failures yield unscreened outcomes in place;
		// the batch itself never aborts.
		outcomes := s.Service.ScreenBatch(ctx, reqs, s.AppConfig.Screening.BatchConcurrency)

		screened := 0
		for _, outcome := range outcomes {
			if outcome.Screened() {
				screened++
			}
		}
		span.SetAttributes(attribute.Int("screening.batch_screened", screened))

		writeJSONResponse(w, BatchResponse{Outcomes: outcomes})
	}
}

// validateScreenRequest checks the request fields the engine cannot
// sensibly default.
func validateScreenRequest(req ScreenRequest) error {
	if strings.TrimSpace(req.ApplicationID) == "" {
		return fmt.Errorf("applicationId field is required")
	}
	if strings.TrimSpace(req.DocumentURL) == "" {
		return fmt.Errorf("documentUrl field is required")
	}
	if len(req.Keywords) == 0 {
		return fmt.Errorf("keywords field must contain at least one keyword")
	}
	return nil
}

// healthHandler handles health check requests
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "cvscreen",
		"version": s.Version,
	}

	if s.AppConfig != nil {
		sinkBackend := "log"
		if s.AppConfig.Database.Enabled {
			sinkBackend = "postgres"
		}
		response["pipeline"] = map[string]any{
			"sink":                sinkBackend,
			"ocr_command":         s.AppConfig.Screening.OCR.Tesseract,
			"ocr_circuit_breaker": s.AppConfig.Screening.OCR.CircuitBreaker.Enabled,
		}
	}

	writeJSONResponse(w, response)
}

// statsHandler handles statistics requests
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "cvscreen",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.Service != nil {
		response["screening"] = s.Service.Stats()
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSONResponse(w, response)
}

// parseJSONRequest parses a JSON request body into the given value
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeJSONResponse writes a JSON response body
func writeJSONResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
