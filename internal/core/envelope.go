package core

import (
	"bytes"
	"encoding/json"
)

// Envelope discriminators on the wire.
const (
	TypeConnectionStatus = "connection_status"
	TypeError            = "error"
	TypeExpertCommand    = "expert_command"
)

// FrameKind classifies one inbound technician frame. Decoding happens once
// here at the boundary; everything downstream switches on the kind instead
// of poking at untyped JSON.
type FrameKind int

const (
	// FrameIgnored is the deliberate sink for malformed or unexpected
	// payloads. Dropping them is a soft-fail: a corrupt frame in a
	// high-frequency stream must not kill the session.
	FrameIgnored FrameKind = iota
	// FrameBinaryAudio is a raw PCM chunk (16kHz, 16-bit).
	FrameBinaryAudio
	// FrameRealtimeInput is a JSON realtime-input envelope. These are the
	// only frames mirrored to the expert observer feed.
	FrameRealtimeInput
	// FrameStructured is any other well-formed JSON object, forwarded to
	// the upstream session untouched.
	FrameStructured
)

// ClassifyTechnicianFrame maps one technician websocket frame onto the
// closed frame kinds. binary reflects the websocket message type.
func ClassifyTechnicianFrame(binary bool, data []byte) FrameKind {
	if binary {
		return FrameBinaryAudio
	}
	var probe struct {
		RealtimeInput json.RawMessage `json:"realtimeInput"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || !isJSONObject(data) {
		return FrameIgnored
	}
	if len(probe.RealtimeInput) > 0 {
		return FrameRealtimeInput
	}
	return FrameStructured
}

// ExpertCommand is the only expert message acted upon.
type ExpertCommand struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ParseExpertCommand decodes an expert frame. ok is false for anything that
// is not an expert_command with text; such frames are ignored without error.
func ParseExpertCommand(data []byte) (ExpertCommand, bool) {
	var cmd ExpertCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return ExpertCommand{}, false
	}
	if cmd.Type != TypeExpertCommand || cmd.Text == "" {
		return ExpertCommand{}, false
	}
	return cmd, true
}

// StatusReady is sent to the technician once the upstream session is open.
func StatusReady() Frame {
	b, _ := json.Marshal(map[string]string{"type": TypeConnectionStatus, "status": "ready"})
	return b
}

// ErrorEnvelope wraps a human-readable failure for one connection.
func ErrorEnvelope(message string) Frame {
	b, _ := json.Marshal(map[string]string{"type": TypeError, "message": message})
	return b
}

func isJSONObject(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}
