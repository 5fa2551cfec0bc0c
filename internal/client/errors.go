package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
)

// Error kinds returned by WeatherClient operations. Match with errors.Is.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrTransport      = errors.New("transport failure")
	ErrTimeout        = errors.New("request timed out")
	ErrRemote         = errors.New("remote error")
	ErrDecode         = errors.New("decode response")
)

// RemoteError is a non-2xx response other than 401/403. It matches ErrRemote.
type RemoteError struct {
	StatusCode int
	Resource   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%v: %s: HTTP %d %s", ErrRemote, e.Resource, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports whether target is ErrRemote.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// statusError classifies a response status. It returns nil for 2xx.
func statusError(resource string, statusCode int) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s: HTTP %d", ErrAuthentication, resource, statusCode)
	}
	return &RemoteError{StatusCode: statusCode, Resource: resource}
}

// transportError classifies a failure from http.Client.Do or while reading the
// body. *url.Error carries the request URL, which holds the API key, so only
// its inner error is kept.
func transportError(resource string, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, resource, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, resource, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
