package core

import (
	"context"

	"github.com/omnisight/backend/internal/domain"
)

// Frame is a raw payload relayed between sockets (binary audio or JSON text).
type Frame []byte

// PeerConnection abstracts one participant's messaging transport.
// Owned by the adapter; the adapter must Close() it.
type PeerConnection interface {
	// TrySend enqueues without blocking; a full outbound buffer is an error.
	TrySend(Frame) error
	Close()
	IsOpen() bool
}

// LiveState is the upstream session lifecycle. There are no retries:
// once closed, a session stays closed.
type LiveState int32

const (
	LiveConnecting LiveState = iota
	LiveOpen
	LiveClosed
)

func (s LiveState) String() string {
	switch s {
	case LiveConnecting:
		return "connecting"
	case LiveOpen:
		return "open"
	case LiveClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// LiveSession is one bidirectional stream to the conversational-AI backend,
// bound 1:1 to a technician connection. Every send is a logged no-op outside
// LiveOpen; callers never see an error from a dead session.
type LiveSession interface {
	SendAudio(chunk []byte)
	SendStructured(payload Frame)
	InjectInstruction(text string)
	State() LiveState
	Close()
}

// LiveFactory starts a fresh upstream session for a newly bound technician.
// The session reports readiness and errors to tech on its own.
type LiveFactory func(ctx context.Context, roomID domain.RoomID, tech PeerConnection) LiveSession
