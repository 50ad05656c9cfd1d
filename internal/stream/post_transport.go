package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"github.com/mtzanidakis/skopos/internal/wire"
)

// PostTransport submits the task with a POST and streams the chunked
// response body through the prefixed-line decoder. Used against endpoints
// that answer the submit request directly instead of exposing a separate
// subscribe stream. On reconnect the same task payload is resubmitted; the
// server responds with authoritative workflow state, not a replay.
type PostTransport struct {
	URL    string
	Task   SubmitRequest
	Header http.Header
	Client *http.Client
}

func NewPostTransport(url string, task SubmitRequest) (*PostTransport, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &PostTransport{
		URL:    url,
		Task:   task,
		Client: &http.Client{Jar: jar},
	}, nil
}

func (t *PostTransport) Connect(ctx context.Context) (Conn, error) {
	body, err := json.Marshal(t.Task)
	if err != nil {
		return nil, fmt.Errorf("marshal task: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range t.Header {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("submit: unexpected status %d", resp.StatusCode)
	}
	return &bodyConn{body: resp.Body, dec: wire.NewPrefixedDecoder()}, nil
}
