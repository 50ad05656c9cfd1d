package wire

import "encoding/json"

// socketMessage is the envelope used by the websocket endpoint:
// one JSON object per socket message, framing provided by the transport.
type socketMessage struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// DecodeSocketMessage turns one websocket message into a frame. Messages
// that are not valid envelopes or carry no event name are dropped.
func DecodeSocketMessage(data []byte) (Frame, bool) {
	var msg socketMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
		return Frame{}, false
	}
	payload := msg.Data
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return Frame{Type: msg.Event, Payload: payload}, true
}
