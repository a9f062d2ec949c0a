package transport

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/airbend/airbend-ingest/internal/common/airbendcontext"
	"github.com/airbend/airbend-ingest/internal/common/airbenderrors"
)

// rateLimitTransport waits a fixed cooldown after each 429 response before sending the request again. The wait is
// abandoned as soon as the request context is done.
type rateLimitTransport struct {
	next       http.RoundTripper
	clock      clock.Clock
	cooldown   time.Duration
	maxRetries uint
	metrics    *Metrics
}

func newRateLimitTransport(next http.RoundTripper, clk clock.Clock, config Config, metrics *Metrics) *rateLimitTransport {
	return &rateLimitTransport{
		next:       next,
		clock:      clk,
		cooldown:   config.RateLimitCooldown,
		maxRetries: config.MaxRateLimitRetries,
		metrics:    metrics,
	}
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	for attempt := uint(0); ; attempt++ {
		next, err := rewind(req)
		if err != nil {
			return nil, err
		}
		resp, err := t.next.RoundTrip(next)
		if err != nil || resp.StatusCode != http.StatusTooManyRequests {
			return resp, err
		}
		if attempt >= t.maxRetries || !replayable(req) {
			discard(resp)
			return nil, errors.WithStack(&airbenderrors.ErrUnexpectedStatus{
				Method:     req.Method,
				URL:        req.URL.String(),
				StatusCode: resp.StatusCode,
			})
		}
		discard(resp)

		t.metrics.RecordRetry(RetryReasonRateLimited)
		airbendcontext.FromContext(ctx).Log.
			WithField("url", req.URL.String()).
			WithField("attempt", attempt+1).
			Debugf("Rate limited; waiting %s before retrying", t.cooldown)

		select {
		case <-t.clock.After(t.cooldown):
		case <-ctx.Done():
			return nil, errors.WithStack(ctx.Err())
		}
	}
}
