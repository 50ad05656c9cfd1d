package wire

import "testing"

func TestDecodeSocketMessage(t *testing.T) {
	f, ok := DecodeSocketMessage([]byte(`{"event":"agent_status","data":{"agentId":"iris","status":"working"},"timestamp":"2026-08-29T10:00:00Z"}`))
	if !ok {
		t.Fatal("expected frame")
	}
	if f.Type != "agent_status" {
		t.Errorf("expected agent_status, got %s", f.Type)
	}
	if string(f.Payload) != `{"agentId":"iris","status":"working"}` {
		t.Errorf("unexpected payload: %s", f.Payload)
	}
}

func TestDecodeSocketMessageEmptyData(t *testing.T) {
	f, ok := DecodeSocketMessage([]byte(`{"event":"mission_complete","timestamp":"..."}`))
	if !ok {
		t.Fatal("expected frame")
	}
	if string(f.Payload) != "{}" {
		t.Errorf("expected empty object payload, got %s", f.Payload)
	}
}

func TestDecodeSocketMessageMalformed(t *testing.T) {
	for _, in := range []string{"", "not json", `{"data":{}}`, `{"event":""}`} {
		if _, ok := DecodeSocketMessage([]byte(in)); ok {
			t.Errorf("expected drop for %q", in)
		}
	}
}
