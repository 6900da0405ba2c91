// Package screening orchestrates the full pipeline: acquire, extract,
// match, analyze, score, persist. Screen is a non-throwing boundary: it
// always returns a ScreeningOutcome, converting every failure into the
// unscreened disposition so batch callers can process N outcomes
// uniformly without one bad document aborting the rest.
package screening

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cvscreen/internal/acquire"
	"cvscreen/internal/errors"
	"cvscreen/internal/extract"
	"cvscreen/internal/match"
	"cvscreen/internal/notify"
	"cvscreen/internal/quality"
	"cvscreen/internal/score"
	"cvscreen/internal/sink"
	"cvscreen/internal/types"
)

// DefaultBatchConcurrency bounds parallel screening runs in a batch.
const DefaultBatchConcurrency = 4

type documentAcquirer interface {
	Acquire(ctx context.Context, ref string) (*acquire.Document, error)
}

type textExtractor interface {
	Extract(ctx context.Context, path string) (*types.ExtractedDocument, error)
}

type keywordMatcher interface {
	Match(text string, keywords []string) types.MatchResult
}

// MetricsRecorder receives pipeline measurements. Implemented by the
// observability manager; nil disables recording.
type MetricsRecorder interface {
	TrackScreening(ctx context.Context, method string, duration time.Duration, failed bool)
	RecordDisposition(ctx context.Context, disposition types.Disposition)
	RecordOCRFallback(ctx context.Context)
}

// Service screens application documents.
type Service struct {
	acquirer  documentAcquirer
	extractor textExtractor
	matcher   keywordMatcher
	sink      sink.Sink
	notifier  notify.Notifier
	metrics   MetricsRecorder
	logger    *errors.Logger

	mu      sync.Mutex
	total   int64
	byDispo map[types.Disposition]int64
}

// NewService wires the pipeline stages. Sink, notifier and metrics may
// be nil; outcomes are then returned to the caller only.
func NewService(acquirer *acquire.Acquirer, extractor textExtractor, matcher *match.Matcher,
	resultSink sink.Sink, notifier notify.Notifier, metrics MetricsRecorder,
	logger *errors.Logger) *Service {
	return &Service{
		acquirer:  acquirer,
		extractor: extractor,
		matcher:   matcher,
		sink:      resultSink,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		byDispo:   make(map[types.Disposition]int64),
	}
}

// Screen runs one complete screening. It never returns an error: any
// failure yields an unscreened outcome whose Reasoning carries the
// cause and whose Score is nil.
func (s *Service) Screen(ctx context.Context, req types.ScreeningRequest) types.ScreeningOutcome {
	start := time.Now()

	keywords := types.NormalizeKeywords(req.RequiredKeywords)
	if len(keywords) == 0 {
		// Caller error; rejected before any I/O.
		err := errors.NewValidationError(errors.ErrCodeNoKeywords,
			"no required keywords provided", nil)
		return s.finishFailed(ctx, req, "", start, err)
	}

	doc, err := s.acquirer.Acquire(ctx, req.DocumentRef)
	if err != nil {
		return s.finishFailed(ctx, req, "", start, err)
	}
	defer func() {
		if closeErr := doc.Close(); closeErr != nil && s.logger != nil {
			s.logger.Warn("Failed to release document",
				"application_id", req.ApplicationID, "error", closeErr)
		}
	}()

	extracted, err := s.extractor.Extract(ctx, doc.Path)
	if err != nil {
		return s.finishFailed(ctx, req, "", start, err)
	}
	if extracted.Method == extract.MethodOCR && s.metrics != nil {
		s.metrics.RecordOCRFallback(ctx)
	}

	matchResult := s.matcher.Match(extracted.RawText, keywords)
	signals := quality.Analyze(extracted.RawText)
	result := score.Compute(matchResult, signals)

	outcome := types.ScreeningOutcome{
		ApplicationID: req.ApplicationID,
		Score:         &result.Score,
		Matched:       matchResult.Matched,
		Missing:       matchResult.Missing,
		Reasoning:     result.Reasoning,
		Quality:       signals,
		Disposition:   result.Disposition,
	}

	s.deliver(ctx, outcome)
	s.finish(ctx, outcome, extracted.Method, start)

	if s.logger != nil {
		s.logger.Info("Application screened",
			"application_id", req.ApplicationID,
			"score", result.Score,
			"disposition", outcome.Disposition,
			"extraction_method", extracted.Method,
			"pages", extracted.PageCount,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return outcome
}

// ScreenBatch screens several requests concurrently, bounded by
// concurrency (<=0 selects DefaultBatchConcurrency). The result slice
// is index-aligned with the input; failures appear as unscreened
// outcomes, never as missing entries.
func (s *Service) ScreenBatch(ctx context.Context, reqs []types.ScreeningRequest, concurrency int) []types.ScreeningOutcome {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	outcomes := make([]types.ScreeningOutcome, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			outcomes[i] = s.Screen(gctx, req)
			return nil
		})
	}
	// Screen never errors, so Wait cannot either.
	_ = g.Wait()
	return outcomes
}

// Stats reports cumulative screening counters for the admin surface.
func (s *Service) Stats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDispo := make(map[string]int64, len(s.byDispo))
	for d, n := range s.byDispo {
		byDispo[string(d)] = n
	}
	return map[string]any{
		"total_screened": s.total,
		"by_disposition": byDispo,
	}
}

// deliver persists the outcome and triggers the rejection notice. Both
// are best-effort: a sink or notifier failure is logged but does not
// change the outcome the caller receives.
func (s *Service) deliver(ctx context.Context, outcome types.ScreeningOutcome) {
	if s.sink != nil {
		if err := s.sink.Save(ctx, outcome); err != nil && s.logger != nil {
			s.logger.LogError(err, "Failed to persist screening outcome",
				"application_id", outcome.ApplicationID)
		}
	}
	if s.notifier != nil && outcome.Disposition == types.DispositionAutoRejected {
		if err := s.notifier.RejectionNotice(ctx, outcome.ApplicationID); err != nil && s.logger != nil {
			s.logger.LogError(err, "Failed to trigger rejection notice",
				"application_id", outcome.ApplicationID)
		}
	}
}

func (s *Service) finishFailed(ctx context.Context, req types.ScreeningRequest, method string, start time.Time, err error) types.ScreeningOutcome {
	if s.logger != nil {
		s.logger.LogError(err, "Screening failed",
			"application_id", req.ApplicationID,
			"document_ref", req.DocumentRef)
	}

	outcome := types.ScreeningOutcome{
		ApplicationID: req.ApplicationID,
		Score:         nil,
		Matched:       []string{},
		Missing:       []string{},
		Reasoning:     failureReason(err),
		Disposition:   types.DispositionUnscreened,
	}

	s.deliver(ctx, outcome)
	s.finish(ctx, outcome, method, start)
	return outcome
}

func (s *Service) finish(ctx context.Context, outcome types.ScreeningOutcome, method string, start time.Time) {
	s.mu.Lock()
	s.total++
	s.byDispo[outcome.Disposition]++
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.TrackScreening(ctx, method, time.Since(start), !outcome.Screened())
		s.metrics.RecordDisposition(ctx, outcome.Disposition)
	}
}

// failureReason extracts a human-readable cause for the outcome.
func failureReason(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
