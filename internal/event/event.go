package event

import "encoding/json"

// Status is the reported state of a single agent.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusThinking Status = "thinking"
	StatusWorking  Status = "working"
	StatusWaiting  Status = "waiting"
	StatusDone     Status = "done"
	StatusError    Status = "error"
)

// known reports whether s is a member of the status enum.
func (s Status) known() bool {
	switch s {
	case StatusIdle, StatusThinking, StatusWorking, StatusWaiting, StatusDone, StatusError:
		return true
	}
	return false
}

// Kind discriminates the StreamEvent union.
type Kind string

const (
	KindAgentStatus     Kind = "agent_status"
	KindAgentThinking   Kind = "agent_thinking"
	KindWorkflowUpdate  Kind = "workflow_update"
	KindMessage         Kind = "message"
	KindUIComponent     Kind = "ui_component"
	KindArtifact        Kind = "artifact"
	KindMissionComplete Kind = "mission_complete"
	KindError           Kind = "error"
)

// StreamEvent is the canonical event contract between the wire layer and
// everything downstream. The variant set is closed: consumers type-switch
// over the concrete types below and a new server event kind is a
// compile-visible addition here, not a silent no-op in a handler map.
type StreamEvent interface {
	Kind() Kind
}

// AgentStatus reports an agent's new status, optionally with the action
// it is performing and a progress percentage. Progress is nil when the
// payload carried none, so a reported 0 still resets the gauge.
type AgentStatus struct {
	AgentID  string `json:"agent_id"`
	Status   Status `json:"status"`
	Action   string `json:"action,omitempty"`
	Progress *int   `json:"progress,omitempty"`
}

// AgentThinking carries an agent's ephemeral thought text.
type AgentThinking struct {
	AgentID string `json:"agent_id"`
	Thought string `json:"thought"`
}

// Position places a workflow node on the canvas. Layout is computed
// server-side and stored verbatim.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one task-graph vertex.
type Node struct {
	ID       string          `json:"id"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Edge is one task-graph dependency.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// WorkflowUpdate replaces the mission's task graph wholesale.
type WorkflowUpdate struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Message is one chat transcript entry, agent-attributed or system-level.
type Message struct {
	AgentID string `json:"agent_id,omitempty"`
	Content string `json:"content"`
}

// UIComponent instructs the dashboard to render a named component.
type UIComponent struct {
	Component string          `json:"component"`
	Props     json.RawMessage `json:"props,omitempty"`
}

// Artifact is a generated deliverable, passed through opaquely.
type Artifact struct {
	Payload json.RawMessage `json:"payload"`
}

// MissionComplete marks the mission's normal terminal state.
type MissionComplete struct{}

// Error is a server-reported mission-level error.
type Error struct {
	Message string `json:"message"`
}

func (AgentStatus) Kind() Kind     { return KindAgentStatus }
func (AgentThinking) Kind() Kind   { return KindAgentThinking }
func (WorkflowUpdate) Kind() Kind  { return KindWorkflowUpdate }
func (Message) Kind() Kind         { return KindMessage }
func (UIComponent) Kind() Kind     { return KindUIComponent }
func (Artifact) Kind() Kind        { return KindArtifact }
func (MissionComplete) Kind() Kind { return KindMissionComplete }
func (Error) Kind() Kind           { return KindError }

// Terminal reports whether ev ends the stream. A server Error is not
// terminal: it is surfaced as mission-level error state while the
// connection stays up, and only a transport close ends the stream.
func Terminal(ev StreamEvent) bool {
	_, ok := ev.(MissionComplete)
	return ok
}
