package transport

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/airbend/airbend-ingest/internal/common/airbendcontext"
)

// timeoutTransport bounds a request once it holds a gate slot. The deadline covers retries, cooldowns and reading
// the response body, but not the time spent queueing for a slot.
type timeoutTransport struct {
	next    http.RoundTripper
	timeout time.Duration
}

func (t *timeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := airbendcontext.WithTimeout(airbendcontext.FromContext(req.Context()), t.timeout)
	resp, err := t.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		cancel()
		return resp, nil
	}
	resp.Body = &cancelingBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelingBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelingBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
