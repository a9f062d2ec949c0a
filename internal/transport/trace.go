package transport

import (
	"net/http"
	"time"

	"k8s.io/utils/clock"

	"github.com/airbend/airbend-ingest/internal/common/airbendcontext"
)

// traceTransport logs and records metrics for every logical request, after retries and cooldowns have played out.
type traceTransport struct {
	next      http.RoundTripper
	clock     clock.PassiveClock
	userAgent string
	metrics   *Metrics
}

func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	log := airbendcontext.FromContext(req.Context()).Log.
		WithField("method", req.Method).
		WithField("url", req.URL.String())

	start := t.clock.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := t.clock.Since(start)
	if err != nil {
		t.metrics.RecordRequest(req.Method, 0, elapsed)
		log.WithError(err).WithField("elapsed", elapsed.Round(time.Millisecond)).Debug("Request failed")
		return nil, err
	}
	t.metrics.RecordRequest(req.Method, resp.StatusCode, elapsed)
	log.WithField("status", resp.StatusCode).
		WithField("elapsed", elapsed.Round(time.Millisecond)).
		Debug("Request completed")
	return resp, nil
}
