package httpx

import (
	"context"
	"errors"
	"net"
)

// HTTPStatusCoder is implemented by typed client errors that carry the
// upstream HTTP status.
type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// StatusCode extracts the upstream HTTP status from err, or 0 when the
// failure never produced a response (timeout, connection error).
func StatusCode(err error) int {
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}

// IsTransient reports whether err is a network-level failure rather than a
// definitive upstream status: timeouts, canceled contexts, dial errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return StatusCode(err) == 0
}
