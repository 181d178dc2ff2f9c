package relay

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omnisight/backend/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// outFrame carries the websocket message type alongside the payload so the
// writePump can emit binary and text frames through one channel.
type outFrame struct {
	messageType int
	data        []byte
}

// PeerConn wraps one participant websocket behind a buffered send channel.
// TrySend never blocks: a slow consumer fills its buffer and starts
// dropping, which is the accepted backpressure model here.
type PeerConn struct {
	conn *websocket.Conn
	send chan outFrame

	mu     sync.RWMutex
	closed bool
}

func NewPeerConn(ws *websocket.Conn) *PeerConn {
	return &PeerConn{
		conn: ws,
		send: make(chan outFrame, sendBuffer),
	}
}

func (c *PeerConn) TrySend(f core.Frame) error {
	return c.trySend(websocket.TextMessage, f)
}

func (c *PeerConn) trySend(messageType int, data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- outFrame{messageType: messageType, data: data}:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *PeerConn) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

func (c *PeerConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
