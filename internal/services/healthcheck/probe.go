package healthcheck

import (
	"context"
	"errors"
	"time"
)

// ProbeResult is what a health endpoint answered.
type ProbeResult struct {
	StatusCode int
	Body       string
}

type Prober interface {
	Probe(ctx context.Context, url string, timeout time.Duration) (ProbeResult, error)
}

var (
	ErrTimeout      = errors.New("request timeout")
	ErrNotMonitored = errors.New("component is not monitored")
)

// RequestError is a transport failure other than a timeout: refused
// connection, DNS failure, TLS error and the like.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

const (
	msgTimeout    = "Request timeout"
	msgUnexpected = "Unexpected error: "
)

func probeErrorMessage(err error) string {
	var reqErr *RequestError
	switch {
	case errors.Is(err, ErrTimeout):
		return msgTimeout
	case errors.As(err, &reqErr):
		return reqErr.Error()
	default:
		return msgUnexpected + err.Error()
	}
}

func probeResultLabel(err error) string {
	var reqErr *RequestError
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &reqErr):
		return "request_error"
	default:
		return "unexpected"
	}
}
