package transport

import (
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// pacingTransport spaces out requests so that no more than limit requests start per second. Every attempt is paced,
// including retries and redirect hops.
type pacingTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func newPacingTransport(next http.RoundTripper, perSecond float64) *pacingTransport {
	return &pacingTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (t *pacingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, errors.WithMessage(err, "waiting to pace request")
	}
	return t.next.RoundTrip(req)
}
