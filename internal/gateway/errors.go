package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned when no API token is set
	ErrMissingCredential = errors.New("api credential missing")

	// ErrQuotaExceeded is returned when the hourly request budget is spent
	ErrQuotaExceeded = errors.New("request quota exceeded")

	// ErrUpstream matches every *UpstreamError
	ErrUpstream = errors.New("upstream request failed")

	// ErrUnsupportedEndpoint is returned for endpoints the adapter does not serve
	ErrUnsupportedEndpoint = errors.New("unsupported endpoint")

	// ErrMalformedResponse is returned when a payload has no usable records
	ErrMalformedResponse = errors.New("malformed response")
)

// UpstreamError is a failed dispatch: a non-2xx status, a transport failure or a
// body that is not JSON. StatusCode is 0 when no response was received.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: %s", e.Message)
}

// Unwrap exposes both ErrUpstream and the underlying cause
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}

// statusCoder is implemented by adapter errors that carry an HTTP status
type statusCoder interface {
	HTTPStatus() int
}

func newUpstreamError(err error) *UpstreamError {
	upstream := &UpstreamError{Message: err.Error(), Err: err}
	var sc statusCoder
	if errors.As(err, &sc) {
		upstream.StatusCode = sc.HTTPStatus()
	}
	return upstream
}
