package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cvscreen/internal/acquire"
	"cvscreen/internal/config"
	"cvscreen/internal/errors"
	"cvscreen/internal/match"
	"cvscreen/internal/observability"
	"cvscreen/internal/screening"
	"cvscreen/internal/types"
)

const testResumeText = `John Doe
john.doe@example.com | 555-123-4567

Experience
Senior Engineer building Golang services with PostgreSQL and Docker.

Education
B.S. Computer Science

Skills
- Golang
- PostgreSQL
- Docker
- Kubernetes
- Terraform
- CI/CD pipelines
`

type stubExtractor struct {
	text string
}

func (e stubExtractor) Extract(ctx context.Context, path string) (*types.ExtractedDocument, error) {
	return &types.ExtractedDocument{PageCount: 1, RawText: e.text, Method: "text-layer"}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Screening.BatchConcurrency = 2
	cfg.Screening.OCR.Tesseract = "tesseract"
	return cfg
}

// newTestServer wires a server around a real acquirer and matcher with
// a stubbed text extractor, then returns the routed mux.
func newTestServer(t *testing.T, mutate func(*Server)) (*Server, http.Handler) {
	t.Helper()

	logger := errors.NewLogger(slog.LevelError)
	cfg := testConfig()

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, cfg)
	if err != nil {
		t.Fatalf("NewObservabilityManager: %v", err)
	}

	acquirer := acquire.NewAcquirer(nil, 0, logger)
	matcher := match.NewMatcher(match.NewSynonymTable(), 0.85)
	svc := screening.NewService(acquirer, stubExtractor{text: testResumeText}, matcher, nil, nil, nil, logger)

	srv := NewServer(cfg, ServerConfig{
		Host:           "localhost",
		Port:           "0",
		Version:        "test",
		MaxRequestSize: 1 << 20,
	}, svc, om, logger)

	if mutate != nil {
		mutate(srv)
	}

	return srv, srv.setupRoutes(om)
}

func writeTestDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func postJSON(t *testing.T, mux http.Handler, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	_, mux := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if body["service"] != "cvscreen" {
		t.Errorf("service = %v, want cvscreen", body["service"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	_, mux := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := body["screening"]; !ok {
		t.Error("stats response missing screening counters")
	}
	rl, ok := body["rate_limiting"].(map[string]any)
	if !ok || rl["enabled"] != false {
		t.Errorf("rate_limiting = %v, want disabled marker", body["rate_limiting"])
	}
}

func TestScreenHappyPath(t *testing.T) {
	_, mux := newTestServer(t, nil)
	doc := writeTestDocument(t)

	body, _ := json.Marshal(map[string]any{
		"applicationId": "app-42",
		"documentUrl":   doc,
		"keywords":      []string{"golang", "postgresql", "rust"},
	})
	rec := postJSON(t, mux, "/screen", string(body), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var outcome types.ScreeningOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !outcome.Screened() {
		t.Fatalf("outcome not screened: %s", outcome.Reasoning)
	}
	if outcome.ApplicationID != "app-42" {
		t.Errorf("applicationId = %q", outcome.ApplicationID)
	}
	if len(outcome.Matched) != 2 || len(outcome.Missing) != 1 {
		t.Errorf("matched/missing = %v / %v, want 2 matched 1 missing", outcome.Matched, outcome.Missing)
	}
}

func TestScreenAcceptsCommaSeparatedKeywords(t *testing.T) {
	_, mux := newTestServer(t, nil)
	doc := writeTestDocument(t)

	body, _ := json.Marshal(map[string]any{
		"applicationId": "app-43",
		"documentUrl":   doc,
		"keywords":      "golang, docker",
	})
	rec := postJSON(t, mux, "/screen", string(body), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var outcome types.ScreeningOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(outcome.Matched) != 2 {
		t.Errorf("matched = %v, want both keywords", outcome.Matched)
	}
}

func TestScreenValidation(t *testing.T) {
	_, mux := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"MissingApplicationID", `{"documentUrl":"x.pdf","keywords":["go"]}`},
		{"MissingDocumentURL", `{"applicationId":"a","keywords":["go"]}`},
		{"EmptyKeywords", `{"applicationId":"a","documentUrl":"x.pdf","keywords":[]}`},
		{"MalformedJSON", `{"applicationId":`},
		{"BadKeywordType", `{"applicationId":"a","documentUrl":"x.pdf","keywords":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, mux, "/screen", tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestScreenRejectsWrongMethod(t *testing.T) {
	_, mux := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/screen", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestScreenRejectsWrongContentType(t *testing.T) {
	_, mux := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/screen", strings.NewReader("applicationId=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBatchScreenSurvivesBadReference(t *testing.T) {
	_, mux := newTestServer(t, nil)
	doc := writeTestDocument(t)

	body, _ := json.Marshal(map[string]any{
		"applications": []map[string]any{
			{"applicationId": "good", "documentUrl": doc, "keywords": []string{"golang"}},
			{"applicationId": "bad", "documentUrl": "undefined", "keywords": []string{"golang"}},
		},
	})
	rec := postJSON(t, mux, "/screen/batch", string(body), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp BatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(resp.Outcomes))
	}
	if !resp.Outcomes[0].Screened() {
		t.Errorf("good outcome unscreened: %s", resp.Outcomes[0].Reasoning)
	}
	if resp.Outcomes[1].Screened() {
		t.Error("bad reference outcome should be unscreened")
	}
	if resp.Outcomes[1].Disposition != types.DispositionUnscreened {
		t.Errorf("disposition = %q", resp.Outcomes[1].Disposition)
	}
}

func TestBatchScreenRejectsEmptyBatch(t *testing.T) {
	_, mux := newTestServer(t, nil)

	rec := postJSON(t, mux, "/screen/batch", `{"applications":[]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, mux := newTestServer(t, func(s *Server) {
		s.APIKeys = map[string]bool{"secret-key-12345": true}
	})
	doc := writeTestDocument(t)
	body, _ := json.Marshal(map[string]any{
		"applicationId": "a", "documentUrl": doc, "keywords": []string{"golang"},
	})

	t.Run("MissingKey", func(t *testing.T) {
		rec := postJSON(t, mux, "/screen", string(body), nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("InvalidKey", func(t *testing.T) {
		rec := postJSON(t, mux, "/screen", string(body), map[string]string{"X-API-Key": "wrong"})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("ValidHeaderKey", func(t *testing.T) {
		rec := postJSON(t, mux, "/screen", string(body), map[string]string{"X-API-Key": "secret-key-12345"})
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("ValidBearerToken", func(t *testing.T) {
		rec := postJSON(t, mux, "/screen", string(body), map[string]string{"Authorization": "Bearer secret-key-12345"})
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("HealthStaysPublic", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRequestSizeLimit(t *testing.T) {
	_, mux := newTestServer(t, func(s *Server) {
		s.MaxRequestSize = 64
	})

	big := `{"applicationId":"a","documentUrl":"x.pdf","keywords":["` + strings.Repeat("k", 200) + `"]}`
	rec := postJSON(t, mux, "/screen", big, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "too large") {
		t.Errorf("body = %s, want size limit message", rec.Body.String())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := errors.NewLogger(slog.LevelError)
	_, mux := newTestServer(t, func(s *Server) {
		s.RateLimit = &config.RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 1,
			BurstCapacity:  1,
			ByIP:           true,
		}
		s.RateLimiter = NewRateLimiter(1, 0, 1, logger)
		t.Cleanup(s.RateLimiter.Close)
	})
	doc := writeTestDocument(t)
	body, _ := json.Marshal(map[string]any{
		"applicationId": "a", "documentUrl": doc, "keywords": []string{"golang"},
	})

	first := postJSON(t, mux, "/screen", string(body), nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := postJSON(t, mux, "/screen", string(body), nil)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", second.Code)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "****" {
		t.Errorf("maskAPIKey(short) = %q", got)
	}
	if got := maskAPIKey("abcdefgh12345678"); got != "abcdefgh****" {
		t.Errorf("maskAPIKey(long) = %q", got)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"ForwardedFor", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.9"},
		{"RealIP", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.2:1234", "198.51.100.7"},
		{"RemoteAddr", nil, "192.0.2.4:5678", "192.0.2.4"},
		{"InvalidForwardedFor", map[string]string{"X-Forwarded-For": "not-an-ip"}, "192.0.2.4:5678", "192.0.2.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeywordListUnmarshal(t *testing.T) {
	var k keywordList
	if err := json.Unmarshal([]byte(`["Go"," Go ","docker",""]`), &k); err != nil {
		t.Fatalf("array form: %v", err)
	}
	if len(k) != 2 {
		t.Errorf("array form = %v, want deduplicated pair", []string(k))
	}

	k = nil
	if err := json.Unmarshal([]byte(`"go, docker ,go"`), &k); err != nil {
		t.Fatalf("string form: %v", err)
	}
	if len(k) != 2 {
		t.Errorf("string form = %v, want deduplicated pair", []string(k))
	}

	if err := json.Unmarshal([]byte(`42`), &k); err == nil {
		t.Error("numeric keywords accepted, want error")
	}
}
