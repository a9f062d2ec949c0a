package transport

import (
	"io"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// gateTransport bounds the number of requests in flight. A slot is held from the moment it is acquired until the
// response body is closed, so a caller still reading one response counts against the limit.
type gateTransport struct {
	next    http.RoundTripper
	slots   *semaphore.Weighted
	metrics *Metrics
}

func newGateTransport(next http.RoundTripper, capacity int, metrics *Metrics) *gateTransport {
	return &gateTransport{
		next:    next,
		slots:   semaphore.NewWeighted(int64(capacity)),
		metrics: metrics,
	}
}

func (t *gateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.metrics.waiting.Inc()
	err := t.slots.Acquire(req.Context(), 1)
	t.metrics.waiting.Dec()
	if err != nil {
		return nil, errors.WithMessage(err, "waiting for a free connection slot")
	}
	t.metrics.inFlight.Inc()

	var once sync.Once
	release := func() {
		once.Do(func() {
			t.metrics.inFlight.Dec()
			t.slots.Release(1)
		})
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		release()
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		release()
		return resp, nil
	}
	resp.Body = &releasingBody{ReadCloser: resp.Body, release: release}
	return resp, nil
}

type releasingBody struct {
	io.ReadCloser
	release func()
}

func (b *releasingBody) Close() error {
	defer b.release()
	return b.ReadCloser.Close()
}
