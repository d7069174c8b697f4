package client

import (
	"context"
	"errors"
	"net"

	"github.com/kjstillabower/airlytics/internal/circuitbreaker"
)

// ErrorCategory is a stable label for error classification in logs and metrics.
type ErrorCategory string

const (
	ErrorCategoryTimeout       ErrorCategory = "timeout"
	ErrorCategoryNetwork       ErrorCategory = "network"
	ErrorCategoryUpstream      ErrorCategory = "upstream_status"
	ErrorCategoryParsing       ErrorCategory = "parsing"
	ErrorCategoryMissingField  ErrorCategory = "missing_field"
	ErrorCategoryCircuitOpen   ErrorCategory = "circuit_open"
	ErrorCategoryConfiguration ErrorCategory = "configuration"
	ErrorCategoryUnknown       ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorCategoryTimeout
	}

	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		return ErrorCategoryCircuitOpen
	case errors.Is(err, ErrTemperatureMissing):
		return ErrorCategoryMissingField
	case errors.Is(err, ErrDecode):
		return ErrorCategoryParsing
	case errors.Is(err, ErrUpstreamFailure):
		return ErrorCategoryUpstream
	case errors.Is(err, ErrInvalidURL):
		return ErrorCategoryConfiguration
	case errors.Is(err, ErrTransport):
		return ErrorCategoryNetwork
	}
	return ErrorCategoryUnknown
}
