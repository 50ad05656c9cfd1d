// Package stream owns the connection lifecycle for one mission: it drives
// a pluggable transport, feeds bytes through the wire decoders, and applies
// the resulting normalized events to the mission store.
package stream

import (
	"context"
	"errors"

	"github.com/mtzanidakis/skopos/internal/wire"
)

var (
	// ErrClosed is returned for operations on a manager that was
	// explicitly closed or cancelled.
	ErrClosed = errors.New("stream: closed")

	// ErrNotConnected is returned when sending without an open transport.
	ErrNotConnected = errors.New("stream: not connected")

	// ErrSendUnsupported is returned by receive-only transports.
	ErrSendUnsupported = errors.New("stream: transport does not support sending")
)

// Transport is a strategy for reaching the orchestration server. Exactly
// one transport is active per mission; reconnect and cancel semantics are
// identical regardless of which one is in use.
type Transport interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is one live connection epoch. Recv blocks until the transport
// delivers at least one frame or fails; it returns io.EOF only for a
// graceful server-side end of stream, any other error is an abnormal close
// and subject to the reconnect policy.
type Conn interface {
	Recv() ([]wire.Frame, error)
	Send(v any) error
	Close() error
}

// SubmitRequest starts or continues a task on the server.
type SubmitRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// ControlRequest is the small outbound control vocabulary.
type ControlRequest struct {
	Action     string `json:"action"`
	Rating     int    `json:"rating,omitempty"`
	WorkflowID string `json:"workflow_id,omitempty"`
}
