package wire

import (
	"bytes"
	"encoding/json"
)

// Prefixed-stream line codes. Each line is "<code>:<body>".
const (
	prefixText   = "0" // body is a JSON string holding a text delta
	prefixEvents = "2" // body is a JSON array of structured events
	prefixFinish = "d" // body is a JSON finish marker, terminates the stream
)

// PrefixedDecoder parses the code-prefixed line stream produced by the
// chunked-POST endpoint. Like the SSE decoder it buffers partial lines
// across chunk boundaries and drops unparsable lines without halting.
type PrefixedDecoder struct {
	carry   []byte
	dropped int
}

func NewPrefixedDecoder() *PrefixedDecoder {
	return &PrefixedDecoder{}
}

// Decode consumes one chunk and returns the frames completed by it.
func (d *PrefixedDecoder) Decode(chunk []byte) []Frame {
	d.carry = append(d.carry, chunk...)

	var frames []Frame
	for {
		idx := bytes.IndexByte(d.carry, '\n')
		if idx < 0 {
			break
		}
		line := d.carry[:idx]
		d.carry = d.carry[idx+1:]
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			continue
		}
		frames = append(frames, d.decodeLine(line)...)
	}
	return frames
}

func (d *PrefixedDecoder) decodeLine(line []byte) []Frame {
	code, body, ok := bytes.Cut(line, []byte(":"))
	if !ok || len(code) != 1 {
		d.dropped++
		return nil
	}

	switch string(code) {
	case prefixText:
		var text string
		if err := json.Unmarshal(body, &text); err != nil {
			d.dropped++
			return nil
		}
		payload, _ := json.Marshal(map[string]string{"content": text})
		return []Frame{{Type: "message", Payload: payload}}

	case prefixEvents:
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			d.dropped++
			return nil
		}
		frames := make([]Frame, 0, len(items))
		for _, item := range items {
			var head struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(item, &head); err != nil || head.Type == "" {
				d.dropped++
				continue
			}
			frames = append(frames, Frame{Type: head.Type, Payload: item})
		}
		return frames

	case prefixFinish:
		if !json.Valid(body) {
			d.dropped++
			return nil
		}
		return []Frame{{Type: "mission_complete", Payload: append(json.RawMessage(nil), body...)}}

	default:
		d.dropped++
		return nil
	}
}

// Dropped reports how many unparsable lines were discarded so far.
func (d *PrefixedDecoder) Dropped() int {
	return d.dropped
}
