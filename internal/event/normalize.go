package event

import (
	"encoding/json"

	"github.com/mtzanidakis/skopos/internal/wire"
)

// Normalize maps a raw frame to its canonical StreamEvent. It is the single
// place wire-format differences are reconciled: field-name drift between
// endpoints is tolerated here, and frames with unknown types or missing
// required fields are dropped (ok == false), never escalated.
func Normalize(f wire.Frame) (StreamEvent, bool) {
	switch f.Type {
	case "agent_status":
		var p struct {
			agentAliases
			Status   Status `json:"status"`
			Action   string `json:"action"`
			Progress *int   `json:"progress"`
		}
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, false
		}
		id := p.agentID()
		if id == "" || !p.Status.known() {
			return nil, false
		}
		return AgentStatus{AgentID: id, Status: p.Status, Action: p.Action, Progress: p.Progress}, true

	case "agent_thinking":
		var p struct {
			agentAliases
			Thought string `json:"thought"`
		}
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, false
		}
		id := p.agentID()
		if id == "" {
			return nil, false
		}
		return AgentThinking{AgentID: id, Thought: p.Thought}, true

	case "workflow_update":
		var p WorkflowUpdate
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, false
		}
		return p, true

	case "message":
		var p struct {
			agentAliases
			Content string `json:"content"`
		}
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, false
		}
		return Message{AgentID: p.agentID(), Content: p.Content}, true

	case "ui_component":
		var p struct {
			Component     string          `json:"component"`
			ComponentName string          `json:"componentName"`
			Props         json.RawMessage `json:"props"`
		}
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, false
		}
		name := p.Component
		if name == "" {
			name = p.ComponentName
		}
		if name == "" {
			return nil, false
		}
		return UIComponent{Component: name, Props: p.Props}, true

	case "artifact":
		if len(f.Payload) == 0 {
			return nil, false
		}
		return Artifact{Payload: f.Payload}, true

	case "mission_complete", "workflow_complete":
		return MissionComplete{}, true

	case "error":
		var p struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, false
		}
		msg := p.Message
		if msg == "" {
			msg = p.Error
		}
		return Error{Message: msg}, true

	case "connected":
		// Handshake acknowledgement, nothing to project.
		return nil, false

	default:
		return nil, false
	}
}

// agentAliases absorbs the agent-identifier field drift between endpoints:
// the SSE endpoint sends agentId, the prefixed stream was observed sending
// agent, and some payloads use snake_case.
type agentAliases struct {
	AgentIDCamel string `json:"agentId"`
	AgentIDSnake string `json:"agent_id"`
	Agent        string `json:"agent"`
}

func (a agentAliases) agentID() string {
	switch {
	case a.AgentIDCamel != "":
		return a.AgentIDCamel
	case a.AgentIDSnake != "":
		return a.AgentIDSnake
	default:
		return a.Agent
	}
}
