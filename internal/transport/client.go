// Package transport builds the HTTP client used to talk to upstream sources. Requests pass through a fixed chain of
// round trippers, outermost first:
//
//	trace -> admission gate -> request timeout -> transient retry -> rate-limit cooldown -> pacing -> network
//
// The admission gate is the only limit on concurrency, so callers may start as many requests as they like.
package transport

import (
	"net/http"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"
)

// ErrTooManyRedirects is returned, wrapped in a *url.Error, when a request exceeds the redirect limit.
var ErrTooManyRedirects = errors.New("too many redirects")

type options struct {
	base    http.RoundTripper
	clock   clock.Clock
	metrics *Metrics
}

type Option func(*options)

// WithBaseTransport replaces the network transport at the bottom of the chain.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithClock replaces the clock used for rate-limit cooldowns and request timings.
func WithClock(clk clock.Clock) Option {
	return func(o *options) { o.clock = clk }
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewClient returns an http.Client whose transport enforces the limits in config. The client is safe for
// concurrent use and should be shared by everything talking to the same upstream.
func NewClient(config Config, opts ...Option) *http.Client {
	o := options{
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.base == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.MaxConnsPerHost = config.MaxConcurrentConnections
		base.MaxIdleConnsPerHost = config.MaxConcurrentConnections
		o.base = base
	}
	if o.metrics == nil {
		o.metrics = DefaultMetrics()
	}
	capacity := config.MaxConcurrentConnections
	if capacity <= 0 {
		capacity = DefaultConfig().MaxConcurrentConnections
	}

	var rt http.RoundTripper = o.base
	if config.MaxRequestsPerSecond > 0 {
		rt = newPacingTransport(rt, config.MaxRequestsPerSecond)
	}
	rt = newRateLimitTransport(rt, o.clock, config, o.metrics)
	rt = newRetryTransport(rt, config, o.metrics)
	if config.RequestTimeout > 0 {
		rt = &timeoutTransport{next: rt, timeout: config.RequestTimeout}
	}
	rt = newGateTransport(rt, capacity, o.metrics)
	rt = &traceTransport{next: rt, clock: o.clock, userAgent: config.UserAgent, metrics: o.metrics}

	maxRedirects := config.MaxRedirects
	return &http.Client{
		Transport: rt,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return errors.Wrapf(ErrTooManyRedirects, "stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}
