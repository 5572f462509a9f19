package lens

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ironsheep/lens-ocr/internal/blob"
	"github.com/ironsheep/lens-ocr/internal/imaging"
)

var (
	// ErrMissingRedirectTarget is returned when a 302 response has no Location.
	ErrMissingRedirectTarget = errors.New("redirect response has no Location header")

	// ErrDoubleRedirect is returned when the request is redirected again after
	// consent was saved.
	ErrDoubleRedirect = errors.New("lens returned a 302 status code twice")

	// ErrUnexpectedStatus is returned for any status the session does not handle.
	ErrUnexpectedStatus = errors.New("lens returned an unexpected status code")

	// ErrInvalidGeometry is returned for bounding boxes that cannot be placed.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrCancelled is returned when the context ends before a scan completes.
	ErrCancelled = errors.New("scan cancelled")

	// Re-exported so callers only need this package to classify failures.
	ErrUnsupportedMime = imaging.ErrUnsupportedMime
	ErrImageTooLarge   = imaging.ErrImageTooLarge
	ErrBlobNotFound    = blob.ErrBlobNotFound
	ErrBlobParse       = blob.ErrBlobParse
)

// ResponseError carries the response that a scan failed on, so a change in
// the service's output format can be diagnosed from the error alone.
type ResponseError struct {
	StatusCode int
	Header     http.Header
	Body       string
	Err        error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("lens: %v (status %d)", e.Err, e.StatusCode)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// TransportError wraps a failure to complete an HTTP exchange.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("lens: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// cancelled reports err as ErrCancelled when ctx has ended.
func cancelled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}
