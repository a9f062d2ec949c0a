package transport

import (
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// maxDrainBytes bounds how much of a discarded response is read so the connection can be reused.
const maxDrainBytes = 64 << 10

func discard(resp *http.Response) {
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrainBytes)
	_ = resp.Body.Close()
}

// replayable reports whether req can be sent more than once.
func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

// rewind returns a request that can be sent again, with a fresh copy of the body if there is one.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, errors.WithMessage(err, "rewinding request body")
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}
