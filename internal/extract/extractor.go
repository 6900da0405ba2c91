// Package extract turns an acquired PDF into plain text. The primary
// path reads the embedded text layer; scanned documents with no usable
// text layer fall back to per-page OCR.
package extract

import (
	"context"
	"strings"

	"cvscreen/internal/errors"
	"cvscreen/internal/types"
)

// minTextLength is the minimum number of non-whitespace characters a
// document must yield to count as readable. Below this the text layer
// is treated as absent and, after OCR, the document as unreadable.
const minTextLength = 50

// Extraction method labels recorded on the outcome.
const (
	MethodTextLayer = "text-layer"
	MethodOCR       = "ocr"
)

// ocrBackend is the OCR fallback contract, satisfied by OCREngine.
type ocrBackend interface {
	Recognize(ctx context.Context, path string) (string, int, error)
}

// Extractor orchestrates text-layer extraction with OCR fallback.
type Extractor struct {
	ocr    ocrBackend
	logger *errors.Logger

	textLayer func(path string) (string, int, error)
}

// NewExtractor creates an extractor using the given OCR engine for the
// fallback path.
func NewExtractor(ocr *OCREngine, logger *errors.Logger) *Extractor {
	return &Extractor{
		ocr:       ocr,
		logger:    logger,
		textLayer: extractTextLayer,
	}
}

// Extract produces plain text from the document at path. Documents with
// a usable text layer never touch the OCR backend. A document yielding
// fewer than minTextLength non-whitespace characters on both paths is
// unreadable.
func (e *Extractor) Extract(ctx context.Context, path string) (*types.ExtractedDocument, error) {
	text, pages, err := e.textLayer(path)
	if err != nil {
		return nil, err
	}

	if usable(text) {
		return &types.ExtractedDocument{
			PageCount: pages,
			RawText:   text,
			Method:    MethodTextLayer,
		}, nil
	}

	if e.logger != nil {
		e.logger.Info("Text layer unusable, falling back to OCR",
			"path", path,
			"text_layer_chars", len(strings.TrimSpace(text)))
	}

	ocrText, ocrPages, err := e.ocr.Recognize(ctx, path)
	if err != nil {
		return nil, err
	}
	if !usable(ocrText) {
		return nil, errors.NewExtractionError(errors.ErrCodeUnreadableDocument,
			"document yielded no usable text after OCR", nil).
			WithContext("path", path)
	}

	if pages == 0 {
		pages = ocrPages
	}
	return &types.ExtractedDocument{
		PageCount: pages,
		RawText:   ocrText,
		Method:    MethodOCR,
	}, nil
}

// usable reports whether text carries enough non-whitespace content to
// screen.
func usable(text string) bool {
	count := 0
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			continue
		default:
			count++
			if count >= minTextLength {
				return true
			}
		}
	}
	return false
}
