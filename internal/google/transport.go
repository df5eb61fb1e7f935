package google

import (
	"io"
	"net/http"
)

// refreshingTransport sets the bearer token of the handle's bundle on each
// request. On a 401 it performs the handle's single refresh and replays the
// request once with the new token.
type refreshingTransport struct {
	handle *Handle
	base   http.RoundTripper
}

func (t *refreshingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.handle.bundle.accessToken()

	resp, err := t.base.RoundTrip(authorize(req, token))
	if err != nil || resp.StatusCode != http.StatusUnauthorized || !replayable(req) {
		return resp, err
	}

	newToken, ok := t.handle.refreshAfterRejection(req.Context(), token)
	if !ok {
		return resp, nil
	}

	retry := authorize(req, newToken)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return resp, nil
		}
		retry.Body = body
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return t.base.RoundTrip(retry)
}

func authorize(req *http.Request, token string) *http.Request {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}
