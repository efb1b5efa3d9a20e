package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// ErrService matches every *ServiceError via errors.Is.
var ErrService = errors.New("completion service error")

// ServiceReason classifies a failed completion call.
type ServiceReason string

const (
	ReasonRejected  ServiceReason = "rejected"
	ReasonTimeout   ServiceReason = "timeout"
	ReasonCanceled  ServiceReason = "canceled"
	ReasonTransport ServiceReason = "transport"
	ReasonNoContent ServiceReason = "no_content"
)

// ServiceError reports a completion call that produced no usable text.
type ServiceError struct {
	Reason ServiceReason
	// StatusCode is the HTTP status for rejected calls, 0 otherwise.
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("completion service %s (HTTP %d): %v", e.Reason, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("completion service %s: %v", e.Reason, e.Err)
	default:
		return fmt.Sprintf("completion service %s", e.Reason)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrService) true for any ServiceError.
func (e *ServiceError) Is(target error) bool { return target == ErrService }

// classifyError maps an SDK error onto a ServiceError.
func classifyError(err error) *ServiceError {
	var apiErr *anthropic.Error
	switch {
	case errors.As(err, &apiErr):
		return &ServiceError{Reason: ReasonRejected, StatusCode: apiErr.StatusCode, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ServiceError{Reason: ReasonTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &ServiceError{Reason: ReasonCanceled, Err: err}
	default:
		return &ServiceError{Reason: ReasonTransport, Err: err}
	}
}
