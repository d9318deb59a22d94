package healthcheck

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultMaxBodyBytes = 64 << 10

type HTTPConfig struct {
	UserAgent           string
	VerifyTLS           bool
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxBodyBytes        int64
}

// HTTPProber issues GET requests over one pooled client shared by every probe.
type HTTPProber struct {
	c   *http.Client
	cfg HTTPConfig
}

func NewHTTPProber(cfg HTTPConfig) *HTTPProber {
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifyTLS,
			MinVersion:         tls.VersionTLS12,
		},
	}

	return &HTTPProber{
		c:   &http.Client{Transport: otelhttp.NewTransport(transport)},
		cfg: cfg,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, url string, timeout time.Duration) (ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ProbeResult{}, &RequestError{Err: fmt.Errorf("build request: %w", err)}
	}
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}

	resp, err := p.c.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return ProbeResult{}, ErrTimeout
		}
		return ProbeResult{}, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBodyBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			return ProbeResult{}, ErrTimeout
		}
		return ProbeResult{}, &RequestError{Err: fmt.Errorf("read body: %w", err)}
	}

	return ProbeResult{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

func (p *HTTPProber) CloseIdleConnections() { p.c.CloseIdleConnections() }

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
