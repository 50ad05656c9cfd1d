// Package mission holds the aggregate state of one mission: per-agent
// status, the task graph, the chat transcript and generated artifacts.
// The store is the single source of truth for presentation code; it is
// mutated only by applying normalized stream events.
package mission

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mtzanidakis/skopos/internal/event"
)

// Status is the lifecycle state of a mission.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusPaused    Status = "paused"
	StatusFailed    Status = "failed"
)

// Entry is one transcript message.
type Entry struct {
	AgentID string    `json:"agent_id,omitempty"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Mission is the aggregate root for one user task session.
type Mission struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Status     Status                `json:"status"`
	Agents     map[string]AgentState `json:"agents"`
	Graph      Graph                 `json:"graph"`
	Transcript []Entry               `json:"transcript"`
	Artifacts  []json.RawMessage     `json:"artifacts"`
	Components []event.UIComponent   `json:"components,omitempty"`
	LastError  string                `json:"last_error,omitempty"`
	Epoch      int                   `json:"epoch"`
}

// Store owns a Mission and fans out change notifications. Exactly one
// connection manager writes to a store; subscribers receive snapshots, so
// presentation code never aliases the live structure.
type Store struct {
	mu      sync.Mutex
	m       Mission
	subs    map[int]func(Mission)
	nextSub int
	now     func() time.Time
}

func NewStore(id, title string) *Store {
	return &Store{
		m: Mission{
			ID:     id,
			Title:  title,
			Status: StatusActive,
			Agents: make(map[string]AgentState),
		},
		subs: make(map[int]func(Mission)),
		now:  time.Now,
	}
}

// Apply folds one normalized event into the mission. Events arriving after
// the mission reached a terminal state are ignored.
func (s *Store) Apply(ev event.StreamEvent) {
	s.mu.Lock()
	if s.m.Status != StatusActive {
		s.mu.Unlock()
		return
	}

	switch ev := ev.(type) {
	case event.AgentStatus:
		s.m.applyAgentStatus(ev)
	case event.AgentThinking:
		s.m.applyAgentThinking(ev)
	case event.WorkflowUpdate:
		s.m.applyWorkflow(ev)
	case event.Message:
		s.m.Transcript = append(s.m.Transcript, Entry{AgentID: ev.AgentID, Content: ev.Content, At: s.now()})
	case event.UIComponent:
		s.m.Components = append(s.m.Components, ev)
	case event.Artifact:
		s.m.Artifacts = append(s.m.Artifacts, ev.Payload)
	case event.MissionComplete:
		s.m.Status = StatusCompleted
	case event.Error:
		// A server-reported error is surfaced, not terminal: the mission
		// stays active and the stream keeps flowing. It hardens into
		// failed only if the stream ends with the error still standing.
		s.m.LastError = ev.Message
	default:
		slog.Debug("unhandled stream event", "kind", ev.Kind())
		s.mu.Unlock()
		return
	}

	s.notifyLocked()
}

// BeginEpoch marks the start of a new transport connection. The server
// resends authoritative workflow state after each reconnect, so nothing is
// replayed here; the counter exists for observability and staleness checks.
func (s *Store) BeginEpoch() int {
	s.mu.Lock()
	s.m.Epoch++
	epoch := s.m.Epoch
	s.mu.Unlock()
	return epoch
}

// Fail moves the mission to failed with the given reason. Used by the
// connection manager when the reconnect budget is exhausted.
func (s *Store) Fail(reason string) {
	s.mu.Lock()
	if s.m.Status != StatusActive {
		s.mu.Unlock()
		return
	}
	s.m.Status = StatusFailed
	s.m.LastError = reason
	s.notifyLocked()
}

// Cancel marks the mission paused after an explicit user stop.
func (s *Store) Cancel() {
	s.mu.Lock()
	if s.m.Status != StatusActive {
		s.mu.Unlock()
		return
	}
	s.m.Status = StatusPaused
	s.notifyLocked()
}

// Snapshot returns a deep copy of the current mission.
func (s *Store) Snapshot() Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.clone()
}

// Subscribe registers a change callback and returns the current snapshot
// plus an unsubscribe function. Callbacks run on the writer's goroutine in
// application order.
func (s *Store) Subscribe(fn func(Mission)) (Mission, func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	snap := s.m.clone()
	s.mu.Unlock()

	return snap, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// notifyLocked snapshots under the lock, releases it, then invokes
// subscribers. Callers must hold s.mu; it is released on return.
func (s *Store) notifyLocked() {
	if len(s.subs) == 0 {
		s.mu.Unlock()
		return
	}
	snap := s.m.clone()
	fns := make([]func(Mission), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (m Mission) clone() Mission {
	out := m
	out.Agents = make(map[string]AgentState, len(m.Agents))
	for id, st := range m.Agents {
		out.Agents[id] = st
	}
	out.Graph.Nodes = append([]event.Node(nil), m.Graph.Nodes...)
	out.Graph.Edges = append([]event.Edge(nil), m.Graph.Edges...)
	out.Transcript = append([]Entry(nil), m.Transcript...)
	out.Artifacts = append([]json.RawMessage(nil), m.Artifacts...)
	out.Components = append([]event.UIComponent(nil), m.Components...)
	return out
}
