package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"cvscreen/internal/errors"
)

func TestAcquireInvalidReferences(t *testing.T) {
	a := NewAcquirer(nil, 0, nil)

	refs := []struct {
		name string
		ref  string
	}{
		{"Empty", ""},
		{"Whitespace", "   "},
		{"UndefinedPlaceholder", "undefined"},
		{"NullPlaceholder", "null"},
		{"UppercasePlaceholder", "NULL"},
		{"UnsupportedScheme", "ftp://example.com/cv.pdf"},
	}
	for _, tt := range refs {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Acquire(context.Background(), tt.ref)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Code(err) != errors.ErrCodeInvalidReference {
				t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeInvalidReference)
			}
		})
	}
}

func TestAcquireRemote(t *testing.T) {
	content := []byte("%PDF-1.4 fake document body")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cv.pdf":
			if _, err := w.Write(content); err != nil {
				t.Error(err)
			}
		case "/empty.pdf":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	a := NewAcquirer(server.Client(), 0, nil)

	t.Run("Success", func(t *testing.T) {
		doc, err := a.Acquire(context.Background(), server.URL+"/cv.pdf")
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		defer func() {
			if err := doc.Close(); err != nil {
				t.Errorf("Close failed: %v", err)
			}
		}()

		data, err := os.ReadFile(doc.Path)
		if err != nil {
			t.Fatalf("cannot read acquired document: %v", err)
		}
		if string(data) != string(content) {
			t.Error("downloaded content does not match served content")
		}
		if doc.Size != int64(len(content)) {
			t.Errorf("Size = %d, want %d", doc.Size, len(content))
		}
	})

	t.Run("CloseRemovesTempFile", func(t *testing.T) {
		doc, err := a.Acquire(context.Background(), server.URL+"/cv.pdf")
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := doc.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if _, err := os.Stat(doc.Path); !os.IsNotExist(err) {
			t.Error("temp file still exists after Close")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := a.Acquire(context.Background(), server.URL+"/missing.pdf")
		if errors.Code(err) != errors.ErrCodeDocumentUnavailable {
			t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeDocumentUnavailable)
		}
	})

	t.Run("EmptyBody", func(t *testing.T) {
		_, err := a.Acquire(context.Background(), server.URL+"/empty.pdf")
		if errors.Code(err) != errors.ErrCodeDocumentUnavailable {
			t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeDocumentUnavailable)
		}
	})

	t.Run("NetworkFailure", func(t *testing.T) {
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		down.Close()
		_, err := a.Acquire(context.Background(), down.URL+"/cv.pdf")
		if errors.Code(err) != errors.ErrCodeDocumentUnavailable {
			t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeDocumentUnavailable)
		}
	})

	t.Run("SizeLimit", func(t *testing.T) {
		small := NewAcquirer(server.Client(), 10, nil)
		_, err := small.Acquire(context.Background(), server.URL+"/cv.pdf")
		if errors.Code(err) != errors.ErrCodeInvalidFormat {
			t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeInvalidFormat)
		}
	})
}

func TestAcquireLocal(t *testing.T) {
	a := NewAcquirer(nil, 0, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.pdf")
	if err := os.WriteFile(path, []byte("local document"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("BarePath", func(t *testing.T) {
		doc, err := a.Acquire(context.Background(), path)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if doc.Path != path {
			t.Errorf("Path = %s, want %s", doc.Path, path)
		}
		if err := doc.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Error("Close must not remove caller-owned files")
		}
	})

	t.Run("FileURL", func(t *testing.T) {
		doc, err := a.Acquire(context.Background(), "file://"+path)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if doc.Path != path {
			t.Errorf("Path = %s, want %s", doc.Path, path)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := a.Acquire(context.Background(), filepath.Join(dir, "nope.pdf"))
		if errors.Code(err) != errors.ErrCodeFileNotFound {
			t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeFileNotFound)
		}
	})

	t.Run("Directory", func(t *testing.T) {
		_, err := a.Acquire(context.Background(), dir)
		if errors.Code(err) != errors.ErrCodeInvalidReference {
			t.Errorf("error code = %s, want %s", errors.Code(err), errors.ErrCodeInvalidReference)
		}
	})
}
