package wire

import (
	"bytes"
	"encoding/json"
)

// SSEDecoder parses the named server-sent-event idiom:
//
//	event: <type>\n
//	data: <json>\n
//	\n
//
// Chunks may split lines (and frames) at arbitrary byte offsets; a trailing
// partial line is carried over to the next Decode call. Malformed input is
// dropped, never fatal: a data line with no pending event, or a data payload
// that is not valid JSON, discards the frame and the stream keeps flowing.
type SSEDecoder struct {
	carry        []byte
	pendingEvent string
	pendingData  []byte
	dropped      int
}

func NewSSEDecoder() *SSEDecoder {
	return &SSEDecoder{}
}

// Decode consumes one chunk and returns the frames completed by it.
func (d *SSEDecoder) Decode(chunk []byte) []Frame {
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

		if f, ok := d.decodeLine(line); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

func (d *SSEDecoder) decodeLine(line []byte) (Frame, bool) {
	switch {
	case len(line) == 0:
		// Blank line terminates the current frame.
		if d.pendingEvent == "" || d.pendingData == nil {
			d.reset()
			return Frame{}, false
		}
		if !json.Valid(d.pendingData) {
			d.dropped++
			d.reset()
			return Frame{}, false
		}
		f := Frame{Type: d.pendingEvent, Payload: append(json.RawMessage(nil), d.pendingData...)}
		d.reset()
		return f, true

	case bytes.HasPrefix(line, []byte("event:")):
		d.pendingEvent = string(bytes.TrimSpace(line[len("event:"):]))
		return Frame{}, false

	case bytes.HasPrefix(line, []byte("data:")):
		if d.pendingEvent == "" {
			// Orphan data line, no event name in the current frame.
			d.dropped++
			return Frame{}, false
		}
		d.pendingData = append(d.pendingData, bytes.TrimSpace(line[len("data:"):])...)
		return Frame{}, false

	default:
		// Comments, id:, retry: and anything else are ignored.
		return Frame{}, false
	}
}

func (d *SSEDecoder) reset() {
	d.pendingEvent = ""
	d.pendingData = nil
}

// Dropped reports how many malformed frames were discarded so far.
func (d *SSEDecoder) Dropped() int {
	return d.dropped
}
