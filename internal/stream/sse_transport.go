package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	"github.com/mtzanidakis/skopos/internal/wire"
)

// SSETransport subscribes to the server-push event-stream endpoint with a
// plain GET. Session cookies are kept in a jar shared across reconnects so
// authentication is forwarded automatically.
type SSETransport struct {
	URL    string
	Header http.Header
	Client *http.Client
}

func NewSSETransport(url string) (*SSETransport, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &SSETransport{
		URL:    url,
		Client: &http.Client{Jar: jar},
	}, nil
}

func (t *SSETransport) Connect(ctx context.Context) (Conn, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range t.Header {
		req.Header[k] = vs
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("subscribe: unexpected status %d", resp.StatusCode)
	}
	return &bodyConn{body: resp.Body, dec: wire.NewSSEDecoder()}, nil
}

// lineDecoder is the part of the wire decoders the read loop needs.
type lineDecoder interface {
	Decode(chunk []byte) []wire.Frame
}

// bodyConn reads an HTTP response body in arbitrary-sized chunks and runs
// them through a line-buffered decoder. Shared by the SSE and streamed-POST
// transports. An EOF here is reported as an abnormal close; mid-mission the
// server never half-closes a healthy stream, it sends a terminal event
// first and the manager shuts down before the body drains.
type bodyConn struct {
	body io.ReadCloser
	dec  lineDecoder
	buf  [4096]byte
}

func (c *bodyConn) Recv() ([]wire.Frame, error) {
	for {
		n, err := c.body.Read(c.buf[:])
		if n > 0 {
			if frames := c.dec.Decode(c.buf[:n]); len(frames) > 0 {
				return frames, nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("stream ended: %w", io.ErrUnexpectedEOF)
			}
			return nil, err
		}
	}
}

func (c *bodyConn) Send(any) error {
	return ErrSendUnsupported
}

func (c *bodyConn) Close() error {
	return c.body.Close()
}
