package event

import (
	"encoding/json"
	"testing"

	"github.com/mtzanidakis/skopos/internal/wire"
)

func frame(typ, payload string) wire.Frame {
	return wire.Frame{Type: typ, Payload: json.RawMessage(payload)}
}

func TestNormalizeAgentStatus(t *testing.T) {
	ev, ok := Normalize(frame("agent_status", `{"agentId":"iris","status":"working","action":"scanning"}`))
	if !ok {
		t.Fatal("expected event")
	}
	st, ok := ev.(AgentStatus)
	if !ok {
		t.Fatalf("expected AgentStatus, got %T", ev)
	}
	if st.AgentID != "iris" || st.Status != StatusWorking || st.Action != "scanning" {
		t.Errorf("unexpected event: %+v", st)
	}
}

func TestNormalizeAgentIDAliases(t *testing.T) {
	// The SSE endpoint sends agentId, the prefixed stream sends agent.
	tests := []struct {
		name    string
		payload string
	}{
		{"camel", `{"agentId":"iris","status":"done"}`},
		{"snake", `{"agent_id":"iris","status":"done"}`},
		{"bare", `{"agent":"iris","status":"done"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Normalize(frame("agent_status", tt.payload))
			if !ok {
				t.Fatal("expected event")
			}
			if ev.(AgentStatus).AgentID != "iris" {
				t.Errorf("expected iris, got %q", ev.(AgentStatus).AgentID)
			}
		})
	}
}

func TestNormalizeMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		f    wire.Frame
	}{
		{"status without agent", frame("agent_status", `{"status":"working"}`)},
		{"status without status", frame("agent_status", `{"agentId":"iris"}`)},
		{"unknown status value", frame("agent_status", `{"agentId":"iris","status":"levitating"}`)},
		{"thinking without agent", frame("agent_thinking", `{"thought":"hm"}`)},
		{"component without name", frame("ui_component", `{"props":{}}`)},
		{"invalid payload", frame("agent_status", `"just a string"`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Normalize(tt.f); ok {
				t.Error("expected frame to be dropped")
			}
		})
	}
}

func TestNormalizeUnknownTypeDropped(t *testing.T) {
	if _, ok := Normalize(frame("telemetry_blip", `{}`)); ok {
		t.Error("expected unknown type to be dropped")
	}
}

func TestNormalizeCompleteAliases(t *testing.T) {
	for _, typ := range []string{"mission_complete", "workflow_complete"} {
		ev, ok := Normalize(frame(typ, `{}`))
		if !ok {
			t.Fatalf("%s: expected event", typ)
		}
		if _, ok := ev.(MissionComplete); !ok {
			t.Errorf("%s: expected MissionComplete, got %T", typ, ev)
		}
	}
}

func TestNormalizeWorkflowUpdate(t *testing.T) {
	ev, ok := Normalize(frame("workflow_update",
		`{"nodes":[{"id":"n1","position":{"x":10,"y":20}}],"edges":[{"id":"e1","source":"n1","target":"n2"}]}`))
	if !ok {
		t.Fatal("expected event")
	}
	wf := ev.(WorkflowUpdate)
	if len(wf.Nodes) != 1 || wf.Nodes[0].ID != "n1" || wf.Nodes[0].Position.X != 10 {
		t.Errorf("unexpected nodes: %+v", wf.Nodes)
	}
	if len(wf.Edges) != 1 || wf.Edges[0].Source != "n1" {
		t.Errorf("unexpected edges: %+v", wf.Edges)
	}
}

func TestNormalizeUIComponentNameAlias(t *testing.T) {
	ev, ok := Normalize(frame("ui_component", `{"componentName":"chart","props":{"series":[1,2]}}`))
	if !ok {
		t.Fatal("expected event")
	}
	if ev.(UIComponent).Component != "chart" {
		t.Errorf("expected chart, got %q", ev.(UIComponent).Component)
	}
}

func TestNormalizeErrorFieldAlias(t *testing.T) {
	ev, ok := Normalize(frame("error", `{"error":"boom"}`))
	if !ok {
		t.Fatal("expected event")
	}
	if ev.(Error).Message != "boom" {
		t.Errorf("expected boom, got %q", ev.(Error).Message)
	}
}

func TestNormalizeConnectedHandshakeDropped(t *testing.T) {
	if _, ok := Normalize(frame("connected", `{}`)); ok {
		t.Error("expected connected handshake to be dropped")
	}
}

func TestTerminal(t *testing.T) {
	if !Terminal(MissionComplete{}) {
		t.Error("expected mission_complete to be terminal")
	}
	// A server error is surfaced state, not end of stream.
	if Terminal(Error{Message: "x"}) {
		t.Error("expected error to be non-terminal")
	}
	if Terminal(Message{Content: "hi"}) || Terminal(AgentStatus{AgentID: "a", Status: StatusDone}) {
		t.Error("expected non-terminal")
	}
}

func TestNormalizeProgressPresence(t *testing.T) {
	ev, ok := Normalize(frame("agent_status", `{"agentId":"iris","status":"working","progress":0}`))
	if !ok {
		t.Fatal("expected event")
	}
	p := ev.(AgentStatus).Progress
	if p == nil || *p != 0 {
		t.Errorf("expected explicit progress 0, got %v", p)
	}

	ev, ok = Normalize(frame("agent_status", `{"agentId":"iris","status":"working"}`))
	if !ok {
		t.Fatal("expected event")
	}
	if ev.(AgentStatus).Progress != nil {
		t.Error("expected nil progress when payload carries none")
	}
}
