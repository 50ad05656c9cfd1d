package mission

import "github.com/mtzanidakis/skopos/internal/event"

// AgentState is the projected state of one agent within a mission.
type AgentState struct {
	Status   event.Status `json:"status"`
	Action   string       `json:"action,omitempty"`
	Progress int          `json:"progress,omitempty"`
	Thought  string       `json:"thought,omitempty"`
}

// ensureAgent returns the current state for id, creating an idle entry on
// first reference. Agents appear dynamically as the server introduces them.
func (m *Mission) ensureAgent(id string) AgentState {
	if st, ok := m.Agents[id]; ok {
		return st
	}
	st := AgentState{Status: event.StatusIdle}
	m.Agents[id] = st
	return st
}

// applyAgentStatus sets the agent's status unconditionally. The server is
// the authority on transitions; this side is a passive projector, so no
// transition is rejected and reapplying the same event is a no-op.
func (m *Mission) applyAgentStatus(ev event.AgentStatus) {
	st := m.ensureAgent(ev.AgentID)
	if st.Status != ev.Status {
		// Thoughts are ephemeral, cleared on any status change.
		st.Thought = ""
	}
	st.Status = ev.Status
	if ev.Action != "" {
		st.Action = ev.Action
	}
	if ev.Progress != nil {
		st.Progress = clampProgress(*ev.Progress)
	}
	m.Agents[ev.AgentID] = st
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// applyAgentThinking records a thought without changing status, except that
// an idle agent implicitly becomes thinking: a thought implies activity.
func (m *Mission) applyAgentThinking(ev event.AgentThinking) {
	st := m.ensureAgent(ev.AgentID)
	st.Thought = ev.Thought
	if st.Status == event.StatusIdle {
		st.Status = event.StatusThinking
	}
	m.Agents[ev.AgentID] = st
}
