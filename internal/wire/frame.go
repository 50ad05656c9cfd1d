package wire

import "encoding/json"

// Frame is one decoded unit of wire data before semantic interpretation.
// Decoders produce frames; the event normalizer gives them meaning.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
