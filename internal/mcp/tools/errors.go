package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/usestring/gatrack/pkg/hit"
	"github.com/usestring/gatrack/pkg/tracker"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInvalidHit   = "INVALID_HIT"
	ErrCodeNoTransport  = "NO_TRANSPORT"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeTracker      = "TRACKER_ERROR"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapTrackerError converts a tracker or validation error to a coded error.
// The message is the tracker error code name (e.g. missing_required_parameter).
func WrapTrackerError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	var (
		validationErr *hit.ValidationError
		netErr        net.Error
	)
	switch {
	case errors.As(err, &validationErr):
		coded = &CodedError{
			Code:    ErrCodeInvalidHit,
			Message: tracker.CodeOf(err).String(),
			Cause:   err,
		}
	case errors.Is(err, tracker.ErrNoNetworkTransport):
		coded = &CodedError{
			Code:    ErrCodeNoTransport,
			Message: "no transport attached to the tracker",
			Cause:   err,
		}
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		coded = &CodedError{
			Code:    ErrCodeTimeout,
			Message: "timed out",
			Cause:   err,
		}
	default:
		coded = &CodedError{
			Code:    ErrCodeTracker,
			Message: tracker.CodeOf(err).String(),
			Cause:   err,
		}
	}

	slog.Warn("tracker error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
