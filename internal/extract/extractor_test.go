package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"cvscreen/internal/errors"
)

const readableText = "Software engineer with ten years of experience building distributed systems in Go."

type fakeOCR struct {
	text  string
	pages int
	err   error
	calls int
}

func (f *fakeOCR) Recognize(ctx context.Context, path string) (string, int, error) {
	f.calls++
	return f.text, f.pages, f.err
}

func newTestExtractor(textLayer func(string) (string, int, error), ocr *fakeOCR) *Extractor {
	return &Extractor{
		ocr:       ocr,
		textLayer: textLayer,
	}
}

func TestExtractTextLayerPath(t *testing.T) {
	ocr := &fakeOCR{}
	e := newTestExtractor(func(string) (string, int, error) {
		return readableText, 2, nil
	}, ocr)

	doc, err := e.Extract(context.Background(), "cv.pdf")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if doc.Method != MethodTextLayer {
		t.Errorf("Method = %s, want %s", doc.Method, MethodTextLayer)
	}
	if doc.PageCount != 2 {
		t.Errorf("PageCount = %d, want 2", doc.PageCount)
	}
	if ocr.calls != 0 {
		t.Errorf("OCR invoked %d times for a document with a text layer", ocr.calls)
	}
}

func TestExtractOCRFallback(t *testing.T) {
	tests := []struct {
		name      string
		layerText string
	}{
		{"EmptyTextLayer", ""},
		{"WhitespaceOnly", "   \n\t\n  "},
		{"BelowMinimum", "short scan artifact"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ocr := &fakeOCR{text: readableText, pages: 3}
			e := newTestExtractor(func(string) (string, int, error) {
				return tt.layerText, 0, nil
			}, ocr)

			doc, err := e.Extract(context.Background(), "scan.pdf")
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if doc.Method != MethodOCR {
				t.Errorf("Method = %s, want %s", doc.Method, MethodOCR)
			}
			if doc.PageCount != 3 {
				t.Errorf("PageCount = %d, want OCR page count 3", doc.PageCount)
			}
			if ocr.calls != 1 {
				t.Errorf("OCR calls = %d, want 1", ocr.calls)
			}
		})
	}
}

func TestExtractUnreadableDocument(t *testing.T) {
	ocr := &fakeOCR{text: "  \n ", pages: 1}
	e := newTestExtractor(func(string) (string, int, error) {
		return "", 0, nil
	}, ocr)

	_, err := e.Extract(context.Background(), "blank.pdf")
	if errors.Code(err) != errors.ErrCodeUnreadableDocument {
		t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeUnreadableDocument)
	}
}

func TestExtractTextLayerFailure(t *testing.T) {
	ocr := &fakeOCR{text: readableText}
	e := newTestExtractor(func(string) (string, int, error) {
		return "", 0, errors.NewExtractionError(errors.ErrCodeExtractionFailed, "both attempts failed", nil)
	}, ocr)

	_, err := e.Extract(context.Background(), "broken.pdf")
	if errors.Code(err) != errors.ErrCodeExtractionFailed {
		t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeExtractionFailed)
	}
	if ocr.calls != 0 {
		t.Error("OCR must not run when text layer extraction errors")
	}
}

func TestRunAttempts(t *testing.T) {
	t.Run("PrimarySucceeds", func(t *testing.T) {
		fallbackCalled := false
		text, pages, err := runAttempts("x.pdf",
			func(string) (string, int, error) { return "ok", 1, nil },
			func(string) (string, int, error) { fallbackCalled = true; return "", 0, nil })
		if err != nil || text != "ok" || pages != 1 {
			t.Fatalf("got (%q, %d, %v)", text, pages, err)
		}
		if fallbackCalled {
			t.Error("fallback ran despite primary success")
		}
	})

	t.Run("PrimaryPanicsFallbackRecovers", func(t *testing.T) {
		text, _, err := runAttempts("x.pdf",
			func(string) (string, int, error) { panic("malformed xref") },
			func(string) (string, int, error) { return "recovered", 1, nil })
		if err != nil {
			t.Fatalf("runAttempts failed: %v", err)
		}
		if text != "recovered" {
			t.Errorf("text = %q, want fallback result", text)
		}
	})

	t.Run("BothFail", func(t *testing.T) {
		_, _, err := runAttempts("x.pdf",
			func(string) (string, int, error) { return "", 0, fmt.Errorf("primary broke") },
			func(string) (string, int, error) { panic("fallback broke") })
		if errors.Code(err) != errors.ErrCodeExtractionFailed {
			t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeExtractionFailed)
		}
		if !strings.Contains(err.Error(), "both attempts") {
			t.Errorf("error should mention both attempts: %v", err)
		}
	})
}

func TestUsable(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"Empty", "", false},
		{"Whitespace", " \n\t ", false},
		{"FortyNineChars", strings.Repeat("a", 49), false},
		{"FiftyChars", strings.Repeat("a", 50), true},
		{"FiftySpreadAcrossWhitespace", strings.Repeat("a ", 50), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := usable(tt.text); got != tt.want {
				t.Errorf("usable(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
