// Package acquire resolves a document reference into local bytes the
// extractor can read. References are http(s) URLs, file:// URLs, or bare
// filesystem paths. This layer does not retry; transient failures
// propagate to the caller, which may retry the whole screening request.
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"cvscreen/internal/errors"
	"cvscreen/internal/utils"
)

// DefaultMaxDocumentSize caps a fetched document at 25 MB. Uploaded CVs
// are rarely above a few megabytes; anything larger is almost certainly
// not a resume.
const DefaultMaxDocumentSize int64 = 25 << 20

const defaultFetchTimeout = 30 * time.Second

// Document is an acquired document on local disk. Close removes the
// backing file when it was downloaded to a temp location; for documents
// referenced by local path, Close is a no-op.
type Document struct {
	Path string
	Size int64

	temp bool
}

// Close releases the document's backing storage.
func (d *Document) Close() error {
	if !d.temp {
		return nil
	}
	return os.Remove(d.Path)
}

// Acquirer fetches document references.
type Acquirer struct {
	client  *http.Client
	maxSize int64
	logger  *errors.Logger
}

// NewAcquirer creates an acquirer. A nil client gets a default with a
// 30-second timeout; maxSize <= 0 selects DefaultMaxDocumentSize.
func NewAcquirer(client *http.Client, maxSize int64, logger *errors.Logger) *Acquirer {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxDocumentSize
	}
	return &Acquirer{client: client, maxSize: maxSize, logger: logger}
}

// Acquire resolves a reference into a local Document. The caller owns
// the document and must Close it.
func (a *Acquirer) Acquire(ctx context.Context, ref string) (*Document, error) {
	ref = strings.TrimSpace(ref)
	if err := validateReference(ref); err != nil {
		return nil, err
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidReference,
			fmt.Sprintf("malformed document reference: %s", ref), err)
	}

	switch parsed.Scheme {
	case "http", "https":
		return a.fetch(ctx, ref)
	case "file":
		return a.local(parsed.Path)
	case "":
		return a.local(ref)
	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidReference,
			fmt.Sprintf("unsupported reference scheme: %s", parsed.Scheme), nil)
	}
}

// validateReference rejects empty references and the literal placeholder
// values some upstream forms submit when no document was attached.
func validateReference(ref string) error {
	switch strings.ToLower(ref) {
	case "", "undefined", "null":
		return errors.NewValidationError(errors.ErrCodeInvalidReference,
			"document reference is missing", nil)
	}
	return nil
}

// fetch downloads a remote document to a temp file.
func (a *Acquirer) fetch(ctx context.Context, ref string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidReference,
			fmt.Sprintf("malformed document URL: %s", ref), err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeDocumentUnavailable,
			"failed to fetch document", err).WithContext("url", ref)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && a.logger != nil {
			a.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewNetworkError(errors.ErrCodeDocumentUnavailable,
			fmt.Sprintf("document fetch returned status %d", resp.StatusCode), nil).
			WithContext("url", ref)
	}

	tmp, err := os.CreateTemp("", "cvscreen-doc-*.pdf")
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"failed to create temp file for document", err)
	}

	size, err := io.Copy(tmp, io.LimitReader(resp.Body, a.maxSize+1))
	if closeErr := tmp.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		removeTemp(tmp.Name(), a.logger)
		return nil, errors.NewIOError(errors.ErrCodeDocumentUnavailable,
			"failed to read document body", err).WithContext("url", ref)
	}
	if size > a.maxSize {
		removeTemp(tmp.Name(), a.logger)
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("document exceeds maximum size of %d bytes", a.maxSize), nil)
	}
	if size == 0 {
		removeTemp(tmp.Name(), a.logger)
		return nil, errors.NewNetworkError(errors.ErrCodeDocumentUnavailable,
			"document fetch returned an empty body", nil).WithContext("url", ref)
	}

	if a.logger != nil {
		a.logger.Debug("Document fetched", "url", ref, "size", utils.FormatFileSize(size))
	}
	return &Document{Path: tmp.Name(), Size: size, temp: true}, nil
}

// local wraps an existing file on disk.
func (a *Acquirer) local(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("document file does not exist: %s", path), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("cannot access document file: %s", path), err)
	}
	if info.IsDir() {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidReference,
			fmt.Sprintf("document reference is a directory: %s", path), nil)
	}
	if info.Size() > a.maxSize {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("document exceeds maximum size of %d bytes", a.maxSize), nil)
	}
	if a.logger != nil {
		a.logger.Debug("Using local document", "path", path, "size", utils.FormatFileSize(info.Size()))
	}
	return &Document{Path: path, Size: info.Size()}, nil
}

func removeTemp(path string, logger *errors.Logger) {
	if err := os.Remove(path); err != nil && logger != nil {
		logger.Warn("Failed to remove temp document", "path", path, "error", err)
	}
}
