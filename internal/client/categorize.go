package client

import (
	"context"
	"errors"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as the datapointErrorsTotal label.
const (
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryTransport      ErrorCategory = "transport"
	ErrorCategoryTimeout        ErrorCategory = "timeout"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryRateLimited    ErrorCategory = "rate_limited"
	ErrorCategoryRemote4xx      ErrorCategory = "remote_4xx"
	ErrorCategoryRemote5xx      ErrorCategory = "remote_5xx"
	ErrorCategoryDecode         ErrorCategory = "decode"
	ErrorCategoryCanceled       ErrorCategory = "canceled"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	var remote *RemoteError
	switch {
	case errors.Is(err, ErrAuthentication):
		return ErrorCategoryAuthentication
	case errors.Is(err, ErrTimeout):
		return ErrorCategoryTimeout
	case errors.Is(err, ErrDecode):
		return ErrorCategoryDecode
	case errors.As(err, &remote):
		switch {
		case remote.StatusCode == 404:
			return ErrorCategoryNotFound
		case remote.StatusCode == 429:
			return ErrorCategoryRateLimited
		case remote.StatusCode >= 500:
			return ErrorCategoryRemote5xx
		default:
			return ErrorCategoryRemote4xx
		}
	case errors.Is(err, context.Canceled):
		return ErrorCategoryCanceled
	case errors.Is(err, ErrTransport):
		return ErrorCategoryTransport
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorCategoryTimeout
	}
	return ErrorCategoryUnknown
}
