package errors

// Transport helpers for mapping net/http client failures and status codes to project ErrorCode

import (
	"context"
	stderrs "errors"
	"net"
	"net/http"
	"net/url"
)

// FromTransport classifies an error returned by an http.Client round trip
// Deadline and timeout failures become ErrorCodeTimeout, everything else ErrorCodeNetwork
// Errors that already carry a project code pass through unchanged
func FromTransport(err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	if IsTimeout(err) {
		return Wrap(err, ErrorCodeTimeout, msg)
	}
	return Wrap(err, ErrorCodeNetwork, msg)
}

// IsTimeout reports whether err is a deadline or a net timeout
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	if stderrs.As(err, &ue) && ue.Timeout() {
		return true
	}
	var ne net.Error
	return stderrs.As(err, &ne) && ne.Timeout()
}

// CodeForStatus maps a non 2xx http status from a remote service to an ErrorCode
// 2xx and 3xx return ErrorCodeUnknown since they are not failures here
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrorCodeUnauthorized
	case status == http.StatusNotFound:
		return ErrorCodeNotFound
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return ErrorCodeTimeout
	case status == http.StatusTooManyRequests, status >= 500:
		return ErrorCodeUpstream
	case status >= 400:
		return ErrorCodeInvalidArgument
	default:
		return ErrorCodeUnknown
	}
}

// Retryable reports whether a failure is transient and a manual retry may succeed
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case ErrorCodeNetwork, ErrorCodeTimeout, ErrorCodeUpstream, ErrorCodeUnavailable:
		return true
	case ErrorCodeUnknown:
		// foreign errors: only raw transport timeouts count
		return IsTimeout(err)
	default:
		return false
	}
}
