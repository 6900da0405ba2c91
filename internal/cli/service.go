package cli

import (
	"context"
	"fmt"
	"net/http"

	"cvscreen/internal/acquire"
	"cvscreen/internal/config"
	"cvscreen/internal/errors"
	"cvscreen/internal/extract"
	"cvscreen/internal/match"
	"cvscreen/internal/notify"
	"cvscreen/internal/observability"
	"cvscreen/internal/screening"
	"cvscreen/internal/sink"
	"cvscreen/internal/utils"
)

// buildObservability creates the observability manager from configuration.
func buildObservability(cfg *config.Config, version string) (*observability.ObservabilityManager, error) {
	obsConfig := observability.ObservabilityConfig{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
		Enabled:        cfg.Observability.Enabled,
		ConsoleOutput:  cfg.Observability.Console.Enabled,
		PrettyPrint:    cfg.Observability.Console.PrettyPrint,
		SampleRate:     cfg.Observability.SampleRate,
		Prometheus:     observability.GetPrometheusConfig(cfg),
	}

	om, err := observability.NewObservabilityManager(obsConfig, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

// buildScreeningService wires the full pipeline from configuration. The
// returned cleanup stops the synonym watcher and closes the result sink;
// callers must invoke it on shutdown.
func buildScreeningService(ctx context.Context, cfg *config.Config,
	metrics screening.MetricsRecorder, logger *errors.Logger) (*screening.Service, func(), error) {

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	acquirer := acquire.NewAcquirer(
		&http.Client{Timeout: cfg.Screening.FetchTimeout},
		cfg.Screening.MaxDocumentSize,
		logger,
	)

	table := match.NewSynonymTable()
	if cfg.Screening.Synonyms.File != "" {
		if err := utils.ValidateInputFile(cfg.Screening.Synonyms.File); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("synonyms file is not usable: %w", err)
		}
		if !utils.IsTextFile(cfg.Screening.Synonyms.File) {
			logger.Warn("Synonyms file does not have a text extension",
				"file", cfg.Screening.Synonyms.File)
		}
		if err := table.LoadFile(cfg.Screening.Synonyms.File); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to load synonyms file: %w", err)
		}
		if cfg.Screening.Synonyms.AutoReload {
			watcher := match.NewTableWatcher(cfg.Screening.Synonyms.File, table,
				cfg.Screening.Synonyms.DebounceDelay, logger)
			if err := watcher.Start(); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("failed to watch synonyms file: %w", err)
			}
			cleanups = append(cleanups, watcher.Stop)
		}
	}
	matcher := match.NewMatcher(table, cfg.Screening.FuzzyThreshold)

	ocr := extract.NewOCREngine(extract.OCRConfig{
		Pdftoppm:  cfg.Screening.OCR.Pdftoppm,
		Tesseract: cfg.Screening.OCR.Tesseract,
		Language:  cfg.Screening.OCR.Language,
		DPI:       cfg.Screening.OCR.DPI,
		Workers:   cfg.Screening.OCR.Workers,
		MaxPages:  cfg.Screening.OCR.MaxPages,
		Breaker: extract.BreakerConfig{
			Enabled:          cfg.Screening.OCR.CircuitBreaker.Enabled,
			MaxRequests:      cfg.Screening.OCR.CircuitBreaker.MaxRequests,
			Interval:         cfg.Screening.OCR.CircuitBreaker.Interval,
			Timeout:          cfg.Screening.OCR.CircuitBreaker.Timeout,
			MinRequests:      cfg.Screening.OCR.CircuitBreaker.MinRequests,
			FailureThreshold: cfg.Screening.OCR.CircuitBreaker.FailureThreshold,
		},
	}, logger)
	extractor := extract.NewExtractor(ocr, logger)

	var resultSink sink.Sink
	if cfg.Database.Enabled {
		pgSink, err := sink.NewPostgresSink(ctx, cfg.Database.URL, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect result sink: %w", err)
		}
		cleanups = append(cleanups, pgSink.Close)
		resultSink = pgSink
	} else {
		resultSink = sink.NewLogSink(logger)
	}

	notifier := notify.NewLogNotifier(logger)

	svc := screening.NewService(acquirer, extractor, matcher, resultSink, notifier, metrics, logger)
	return svc, cleanup, nil
}
