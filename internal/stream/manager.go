package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mtzanidakis/skopos/internal/event"
	"github.com/mtzanidakis/skopos/internal/mission"
	"github.com/mtzanidakis/skopos/internal/wire"
)

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config tunes the reconnect policy: linear backoff, attempt * BaseDelay,
// up to MaxAttempts consecutive failures.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = time.Second
	}
	return c
}

// Manager drives one transport for one mission. All decode, normalize and
// apply steps run on its single read goroutine, so events reach the store
// in strict arrival order within a connection epoch. OnEvent, when set
// before Connect, observes every applied event (used by the bus relay).
type Manager struct {
	transport Transport
	store     *mission.Store
	cfg       Config
	OnEvent   func(event.StreamEvent)

	mu       sync.Mutex
	state    State
	conn     Conn
	cancel   context.CancelFunc
	terminal bool
	started  bool
	done     chan struct{}

	// procMu serializes event application against Close: Close waits for
	// an in-flight apply to finish, and any apply after Close returns
	// sees the closed state and discards its event.
	procMu sync.Mutex
}

func NewManager(t Transport, store *mission.Store, cfg Config) *Manager {
	return &Manager{
		transport: t,
		store:     store,
		cfg:       cfg.withDefaults(),
		state:     StateDisconnected,
		done:      make(chan struct{}),
	}
}

// Connect starts the read loop. It returns immediately; progress is
// observable via State, the store subscription, and Done.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return ErrClosed
	}
	if m.started {
		return errors.New("stream: already connected")
	}
	m.started = true
	m.state = StateConnecting
	ctx, m.cancel = context.WithCancel(ctx)
	go m.run(ctx)
	return nil
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done is closed once the read loop has fully stopped.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close is the explicit disconnect: terminal from any state, including
// mid-backoff. The transport handle is released before Close returns and
// no event is applied to the store afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	m.state = StateClosed
	if m.cancel != nil {
		m.cancel()
	}
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	started := m.started
	m.mu.Unlock()

	// Barrier: wait out an apply that was already past the state check.
	// Must not be called from inside a store subscriber callback.
	m.procMu.Lock()
	m.procMu.Unlock() //nolint:staticcheck // empty critical section is the barrier

	if !started {
		close(m.done)
	}
	return nil
}

// Cancel stops the mission: it tells the server where the transport allows
// it, marks the mission paused, and closes the connection.
func (m *Manager) Cancel() error {
	if err := m.Send(ControlRequest{Action: "cancel"}); err != nil &&
		!errors.Is(err, ErrSendUnsupported) && !errors.Is(err, ErrNotConnected) {
		slog.Warn("cancel notify failed", "error", err)
	}
	m.store.Cancel()
	return m.Close()
}

// Send delivers an outbound control message over the active transport.
func (m *Manager) Send(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return ErrClosed
	}
	if m.state != StateConnected || m.conn == nil {
		return ErrNotConnected
	}
	return m.conn.Send(v)
}

// Submit sends a task to the server.
func (m *Manager) Submit(message string, taskCtx map[string]any) error {
	return m.Send(SubmitRequest{Message: message, Context: taskCtx})
}

// Feedback rates a finished workflow.
func (m *Manager) Feedback(rating int, workflowID string) error {
	return m.Send(ControlRequest{Action: "feedback", Rating: rating, WorkflowID: workflowID})
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	attempt := 0
	for {
		conn, err := m.transport.Connect(ctx)
		if err != nil {
			if m.State() == StateClosed || ctx.Err() != nil {
				return
			}
			attempt++
			if attempt > m.cfg.MaxAttempts {
				m.fail(fmt.Sprintf("connection failed after %d attempts: %v", attempt-1, err))
				return
			}
			m.setState(StateReconnecting)
			slog.Warn("connect failed, retrying", "attempt", attempt, "error", err)
			if !m.backoff(ctx, attempt) {
				return
			}
			continue
		}

		m.mu.Lock()
		if m.state == StateClosed {
			m.mu.Unlock()
			conn.Close()
			return
		}
		m.conn = conn
		m.state = StateConnected
		m.mu.Unlock()
		attempt = 0

		epoch := m.store.BeginEpoch()
		slog.Info("stream connected", "mission", m.store.Snapshot().ID, "epoch", epoch)

		err = m.pump(conn)
		conn.Close()

		m.mu.Lock()
		m.conn = nil
		closed := m.state == StateClosed
		terminal := m.terminal
		m.mu.Unlock()

		if closed || ctx.Err() != nil {
			return
		}
		if terminal || errors.Is(err, io.EOF) {
			// Server finished the mission or closed gracefully.
			m.shutdown()
			return
		}

		attempt++
		if attempt > m.cfg.MaxAttempts {
			m.fail(fmt.Sprintf("connection lost after %d reconnect attempts: %v", attempt-1, err))
			return
		}
		m.setState(StateReconnecting)
		slog.Warn("stream interrupted, reconnecting", "attempt", attempt, "error", err)
		if !m.backoff(ctx, attempt) {
			return
		}
	}
}

// pump reads frames until the connection errors or a terminal event lands.
func (m *Manager) pump(conn Conn) error {
	for {
		frames, err := conn.Recv()
		for _, f := range frames {
			if !m.apply(f) {
				return nil
			}
		}
		if err != nil {
			return err
		}
	}
}

// apply normalizes one frame and folds it into the store. Returns false
// once no further frames should be processed.
func (m *Manager) apply(f wire.Frame) bool {
	ev, ok := event.Normalize(f)
	if !ok {
		slog.Debug("dropped frame", "type", f.Type)
		return true
	}

	m.procMu.Lock()
	defer m.procMu.Unlock()
	if m.State() == StateClosed {
		return false
	}
	m.store.Apply(ev)
	if m.OnEvent != nil {
		m.OnEvent(ev)
	}
	if event.Terminal(ev) {
		m.mu.Lock()
		m.terminal = true
		m.mu.Unlock()
		return false
	}
	return true
}

// backoff sleeps attempt * BaseDelay, returning early (false) on cancel.
func (m *Manager) backoff(ctx context.Context, attempt int) bool {
	t := time.NewTimer(time.Duration(attempt) * m.cfg.BaseDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	if m.state != StateClosed {
		m.state = s
	}
	m.mu.Unlock()
}

// shutdown ends the manager after a graceful server-side finish. A server
// error that was still standing when the stream ended hardens the mission
// into failed; until then it was surfaced without closing anything.
func (m *Manager) shutdown() {
	m.mu.Lock()
	m.state = StateClosed
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	if snap := m.store.Snapshot(); snap.Status == mission.StatusActive && snap.LastError != "" {
		m.store.Fail(snap.LastError)
	}
}

// fail ends the manager with the reconnect budget exhausted; the mission
// is marked failed so the UI sees a terminal error.
func (m *Manager) fail(reason string) {
	slog.Error("stream failed", "reason", reason)
	m.mu.Lock()
	alreadyClosed := m.state == StateClosed
	m.state = StateClosed
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()
	if !alreadyClosed {
		m.store.Fail(reason)
	}
}
