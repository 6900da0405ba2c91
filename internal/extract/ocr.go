package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"cvscreen/internal/errors"
)

// OCRConfig configures the rasterize-and-recognize fallback path.
type OCRConfig struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Language  string // default "eng"

	// DPI for page rasterization. PDF user space is 72 DPI, so the
	// default of 144 renders pages at twice their nominal size.
	DPI int

	Workers  int // concurrent tesseract invocations, default 4
	MaxPages int // 0 = no limit

	Breaker BreakerConfig
}

// BreakerConfig controls the circuit breaker around the OCR backend.
type BreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

const (
	defaultOCRDPI     = 144
	defaultOCRWorkers = 4
)

// OCREngine renders PDF pages to images and recognizes text per page.
// The external tesseract backend sits behind a circuit breaker so a
// broken or missing installation fails fast instead of timing out every
// page of every document.
type OCREngine struct {
	cfg     OCRConfig
	runner  Runner
	breaker *gobreaker.CircuitBreaker[string]
	logger  *errors.Logger
}

// NewOCREngine creates an engine with defaults applied for zero-valued
// config fields.
func NewOCREngine(cfg OCRConfig, logger *errors.Logger) *OCREngine {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = defaultOCRDPI
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultOCRWorkers
	}

	e := &OCREngine{cfg: cfg, runner: execRunner{}, logger: logger}
	if cfg.Breaker.Enabled {
		e.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "OCR-Tesseract",
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= cfg.Breaker.MinRequests &&
					failureRatio >= cfg.Breaker.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				if logger != nil {
					logger.Info("Circuit breaker state changed",
						"name", name,
						"from", from.String(),
						"to", to.String())
				}
			},
		})
	}
	return e
}

// Recognize rasterizes each page of the PDF and runs OCR over the
// images concurrently. Recognized text is joined in page order. It
// returns the rendered page count alongside the text.
func (e *OCREngine) Recognize(ctx context.Context, path string) (string, int, error) {
	tmpDir, err := os.MkdirTemp("", "cvscreen-ocr-*")
	if err != nil {
		return "", 0, errors.NewIOError(errors.ErrCodeOCRUnavailable,
			"failed to create OCR working directory", err)
	}
	defer func() {
		if removeErr := os.RemoveAll(tmpDir); removeErr != nil && e.logger != nil {
			e.logger.Warn("Failed to remove OCR working directory",
				"dir", tmpDir, "error", removeErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, errors.NewExtractionError(errors.ErrCodeOCRUnavailable,
			"failed to rasterize document pages", err).
			WithContext("stderr", truncate(string(errb), 2048))
	}

	images, err := pageImages(prefix)
	if err != nil {
		return "", 0, err
	}
	if e.cfg.MaxPages > 0 && len(images) > e.cfg.MaxPages {
		images = images[:e.cfg.MaxPages]
	}

	// Fan out per page; the indexed slice keeps page order on join.
	texts := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, img := range images {
		g.Go(func() error {
			text, err := e.recognizePage(gctx, img)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", 0, err
	}

	return strings.Join(texts, "\n"), len(images), nil
}

// recognizePage runs tesseract over one image through the breaker.
func (e *OCREngine) recognizePage(ctx context.Context, imagePath string) (string, error) {
	run := func() (string, error) {
		out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract,
			imagePath, "stdout", "-l", e.cfg.Language)
		if err != nil {
			return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
		}
		return string(out), nil
	}

	var text string
	var err error
	if e.breaker != nil {
		text, err = e.breaker.Execute(run)
	} else {
		text, err = run()
	}
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeOCRUnavailable,
			fmt.Sprintf("OCR failed for page image %s", filepath.Base(imagePath)), err)
	}
	return text, nil
}

// pageImages lists the rasterized page files in page-number order.
// pdftoppm names files <prefix>-<n>.png and only zero-pads when the
// document is large enough, so a numeric sort is required.
func pageImages(prefix string) ([]string, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeOCRUnavailable,
			"failed to list rasterized pages", err)
	}
	if len(matches) == 0 {
		return nil, errors.NewExtractionError(errors.ErrCodeOCRUnavailable,
			"rasterization produced no page images", nil)
	}
	sort.Slice(matches, func(i, j int) bool {
		return pageNumber(matches[i], prefix) < pageNumber(matches[j], prefix)
	})
	return matches, nil
}

func pageNumber(path, prefix string) int {
	s := strings.TrimSuffix(strings.TrimPrefix(path, prefix+"-"), ".png")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
