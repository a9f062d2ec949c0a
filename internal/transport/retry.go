package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"

	"github.com/airbend/airbend-ingest/internal/common/airbendcontext"
	"github.com/airbend/airbend-ingest/internal/common/airbenderrors"
)

// retryTransport retries requests that fail with a network error or a 5xx response, backing off exponentially with
// random jitter between attempts. Rate-limited responses are left to the cooldown layer beneath it.
type retryTransport struct {
	next       http.RoundTripper
	maxRetries uint
	baseDelay  time.Duration
	maxDelay   time.Duration
	maxJitter  time.Duration
	metrics    *Metrics
}

func newRetryTransport(next http.RoundTripper, config Config, metrics *Metrics) *retryTransport {
	return &retryTransport{
		next:       next,
		maxRetries: config.MaxRetries,
		baseDelay:  config.RetryBaseDelay,
		maxDelay:   config.RetryMaxDelay,
		maxJitter:  config.RetryMaxJitter,
		metrics:    metrics,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.maxRetries == 0 || !replayable(req) {
		return t.next.RoundTrip(req)
	}
	ctx := req.Context()
	log := airbendcontext.FromContext(ctx).Log

	var resp *http.Response
	err := retry.Do(
		func() error {
			attempt, err := rewind(req)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			r, err := t.next.RoundTrip(attempt)
			if err != nil {
				return err
			}
			if r.StatusCode >= http.StatusInternalServerError {
				discard(r)
				return errors.WithStack(&airbenderrors.ErrUnexpectedStatus{
					Method:     req.Method,
					URL:        req.URL.String(),
					StatusCode: r.StatusCode,
				})
			}
			resp = r
			return nil
		},
		retry.Attempts(t.maxRetries+1),
		retry.Delay(t.baseDelay),
		retry.MaxDelay(t.maxDelay),
		retry.MaxJitter(t.maxJitter),
		retry.DelayType(t.delayType()),
		retry.RetryIf(func(err error) bool { return retry.IsRecoverable(err) && isTransient(ctx, err) }),
		retry.OnRetry(func(n uint, err error) {
			// also called after the final attempt, which is not followed by a retry
			if n >= t.maxRetries {
				return
			}
			t.metrics.RecordRetry(RetryReasonTransient)
			log.WithError(err).
				WithField("url", req.URL.String()).
				WithField("attempt", n+1).
				Debug("Retrying request after transient failure")
		}),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *retryTransport) delayType() retry.DelayTypeFunc {
	if t.maxJitter <= 0 {
		return retry.BackOffDelay
	}
	return retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)
}

// isTransient reports whether a failed attempt is worth repeating. Cancellation and rate limiting never are.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !airbenderrors.IsRateLimited(err)
}
