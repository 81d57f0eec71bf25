package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRequestFailed is the single error kind for failed backend calls.
// Non-2xx responses and transport failures both match it via errors.Is.
var ErrRequestFailed = errors.New("request failed")

// RequestError describes a failed backend call.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int // 0 when no response was received
	Body       []byte
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s %s: backend returned %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: backend returned %d: %s", e.Method, e.Path, e.StatusCode, string(e.Body))
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool { return target == ErrRequestFailed }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
