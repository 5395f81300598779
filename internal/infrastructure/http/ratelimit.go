package http

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedTransport waits on a token bucket before every round trip so the
// service never floods an upstream it does not own.
type RateLimitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

// NewRateLimitedTransport wraps next with a limiter of rps requests per second
// and the given burst. A non-positive rps returns next unchanged.
func NewRateLimitedTransport(next http.RoundTripper, rps float64, burst int) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// RoundTrip blocks until a token is available or the request context ends.
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
