package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"cvscreen/internal/errors"
)

// attempt is one text-layer extraction strategy.
type attempt func(path string) (text string, pages int, err error)

// extractTextLayer reads the embedded text layer of a PDF using a
// two-attempt strategy: a fast path sharing one font cache across all
// pages, then an isolated per-page path that survives pages the fast
// path cannot decode. Both failing is an ExtractionFailed error.
func extractTextLayer(path string) (string, int, error) {
	return runAttempts(path, attemptShared, attemptIsolated)
}

// runAttempts drives the Primary -> Fallback -> Fail sequence. The pdf
// library panics on some malformed documents; panics count as attempt
// failures, not crashes.
func runAttempts(path string, primary, fallback attempt) (string, int, error) {
	text, pages, primaryErr := safeAttempt(primary, path)
	if primaryErr == nil {
		return text, pages, nil
	}

	text, pages, fallbackErr := safeAttempt(fallback, path)
	if fallbackErr == nil {
		return text, pages, nil
	}

	return "", 0, errors.NewExtractionError(errors.ErrCodeExtractionFailed,
		"text layer extraction failed on both attempts",
		fmt.Errorf("primary: %v; fallback: %w", primaryErr, fallbackErr))
}

func safeAttempt(a attempt, path string) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()
	return a(path)
}

// attemptShared extracts all pages with a single shared font cache. Any
// page error aborts the attempt; a document that trips the decoder mid
// way is retried page-isolated by the caller.
func attemptShared(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	fonts := make(map[string]*pdf.Font)
	var b strings.Builder
	totalPages := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return "", 0, fmt.Errorf("page %d: %w", pageIndex, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), totalPages, nil
}

// attemptIsolated extracts page by page with no shared state, recovering
// per page so one broken page does not lose the rest of the document.
func attemptIsolated(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	totalPages := r.NumPage()
	extracted := 0

	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		text, err := isolatedPageText(r, pageIndex)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
		extracted++
	}

	if totalPages > 0 && extracted == 0 {
		return "", 0, fmt.Errorf("no page of %d could be decoded", totalPages)
	}
	return b.String(), totalPages, nil
}

func isolatedPageText(r *pdf.Reader, pageIndex int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d panicked: %v", pageIndex, rec)
		}
	}()

	page := r.Page(pageIndex)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
