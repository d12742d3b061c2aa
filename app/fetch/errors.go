package fetch

import (
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindTimeout          ErrorKind = "timeout"
	KindHTTPStatus       ErrorKind = "http_status"
	KindConnectionFailed ErrorKind = "connection_failed"
)

// Error is the terminal failure of a fetch after all retry attempts.
type Error struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	case KindTimeout:
		return fmt.Sprintf("fetch %s: timed out", e.URL)
	default:
		return fmt.Sprintf("fetch %s: connection failed", e.URL)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Forbidden reports whether the failure was an HTTP 403. Sources behind an
// access tier return 403 consistently, so callers skip retries and surface
// the restriction instead.
func (e *Error) Forbidden() bool {
	return e.Kind == KindHTTPStatus && e.StatusCode == http.StatusForbidden
}
