package prometheus

import (
	"errors"
	"fmt"

	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
)

// ErrorKind classifies how a call against a tenant backend failed.
type ErrorKind string

const (
	// ErrorUnreachable covers transport failures: DNS, refused
	// connections, timeouts, cancelled contexts.
	ErrorUnreachable ErrorKind = "unreachable"
	// ErrorUpstreamRejected covers calls the backend received and turned
	// down: an HTTP status >= 400 or a non-success Prometheus envelope.
	ErrorUpstreamRejected ErrorKind = "upstream_rejected"
	// ErrorMalformedResponse covers responses that could not be decoded.
	ErrorMalformedResponse ErrorKind = "malformed_response"
)

// BackendError describes a failed call against one tenant's backend.
type BackendError struct {
	Kind ErrorKind
	// Status carries the upstream error type (e.g. "bad_data",
	// "server_error") when the backend rejected the call.
	Status  string
	Message string
	cause   error
}

func (e *BackendError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.cause
}

// classifyError maps errors from the Prometheus client onto the backend
// error taxonomy. The official client reports HTTP-level and envelope
// errors as *v1.Error; anything else failed below HTTP.
func classifyError(err error) *BackendError {
	var apiErr *v1.Error
	if errors.As(err, &apiErr) {
		if apiErr.Type == v1.ErrBadResponse {
			return &BackendError{Kind: ErrorMalformedResponse, Message: apiErr.Msg, cause: err}
		}
		msg := apiErr.Msg
		if apiErr.Detail != "" {
			msg = fmt.Sprintf("%s: %s", msg, apiErr.Detail)
		}
		return &BackendError{
			Kind:    ErrorUpstreamRejected,
			Status:  string(apiErr.Type),
			Message: msg,
			cause:   err,
		}
	}
	return &BackendError{Kind: ErrorUnreachable, Message: err.Error(), cause: err}
}
