// Package live adapts one upstream conversational-AI stream per technician.
package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/omnisight/backend/internal/core"
	"github.com/omnisight/backend/internal/domain"
)

const (
	// DefaultEndpoint is the Gemini Live bidirectional streaming endpoint.
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	audioMimeType = "audio/pcm;rate=16000"

	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

// Config selects the upstream model and credentials.
type Config struct {
	Endpoint          string
	APIKey            string
	Model             string
	SystemInstruction string
}

// NewFactory returns a core.LiveFactory dialing the configured endpoint.
// The returned session starts in LiveConnecting and reports readiness or
// failure to the technician connection on its own; it never retries.
func NewFactory(cfg Config) core.LiveFactory {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return func(ctx context.Context, roomID domain.RoomID, tech core.PeerConnection) core.LiveSession {
		ctx, cancel := context.WithCancel(ctx)
		s := &Session{
			cfg:    cfg,
			roomID: roomID,
			tech:   tech,
			send:   make(chan []byte, sendBuffer),
			cancel: cancel,
		}
		s.state.Store(int32(core.LiveConnecting))
		go s.run(ctx)
		return s
	}
}

// Session is the upstream adapter's explicit state machine:
// connecting → open → closed, no retries on failure.
type Session struct {
	cfg    Config
	roomID domain.RoomID
	tech   core.PeerConnection

	state  atomic.Int32
	send   chan []byte
	cancel context.CancelFunc

	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *Session) State() core.LiveState {
	return core.LiveState(s.state.Load())
}

// SendAudio wraps a raw PCM chunk into a realtime-input media message.
func (s *Session) SendAudio(chunk []byte) {
	if !s.requireOpen("SendAudio") {
		return
	}
	msg := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				MimeType: audioMimeType,
				Data:     base64.StdEncoding.EncodeToString(chunk),
			}},
		},
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.enqueue(b)
}

// SendStructured forwards a client JSON payload onto the stream as-is.
func (s *Session) SendStructured(payload core.Frame) {
	if !s.requireOpen("SendStructured") {
		return
	}
	s.enqueue(payload)
}

// InjectInstruction relays text into the live conversation as a completed
// user turn, as if spoken by a third party.
func (s *Session) InjectInstruction(text string) {
	if !s.requireOpen("InjectInstruction") {
		return
	}
	msg := clientContentMessage{
		ClientContent: clientContent{
			Turns:        []turn{{Role: "user", Parts: []part{{Text: text}}}},
			TurnComplete: true,
		},
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.enqueue(b)
}

// Close marks the session closed and tears down the upstream socket.
// Deliberate closes never produce an error envelope.
func (s *Session) Close() {
	s.state.Store(int32(core.LiveClosed))
	s.cancel()
	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.mu.Unlock()
}

func (s *Session) requireOpen(op string) bool {
	st := s.State()
	if st != core.LiveOpen {
		log.Warn().
			Str("module", "live").
			Str("room", string(s.roomID)).
			Str("op", op).
			Str("state", st.String()).
			Msg("dropped: upstream session not open")
		return false
	}
	return true
}

func (s *Session) enqueue(b []byte) {
	select {
	case s.send <- b:
	default:
		log.Debug().Str("module", "live").Str("room", string(s.roomID)).Msg("upstream send buffer full, dropped")
	}
}

// run dials the upstream, performs the setup handshake, then pumps both
// directions until the stream dies or the session is closed.
func (s *Session) run(ctx context.Context) {
	log.Info().Str("module", "live").Str("room", string(s.roomID)).Msg("initializing live session")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.Endpoint+"?key="+s.cfg.APIKey, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "live").Str("room", string(s.roomID)).Msg("upstream dial failed")
		s.fail("Failed to connect to the Live Agent model.")
		return
	}

	s.mu.Lock()
	if s.State() == core.LiveClosed {
		// Closed while dialing; the technician is already gone.
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conn = conn
	s.mu.Unlock()

	setup := setupMessage{Setup: setupPayload{
		Model:            s.cfg.Model,
		GenerationConfig: generationConfig{ResponseModalities: []string{"AUDIO"}},
	}}
	if s.cfg.SystemInstruction != "" {
		setup.Setup.SystemInstruction = &content{Parts: []part{{Text: s.cfg.SystemInstruction}}}
	}
	if err := conn.WriteJSON(setup); err != nil {
		log.Error().Err(err).Str("module", "live").Str("room", string(s.roomID)).Msg("setup write failed")
		s.fail("Failed to connect to the Live Agent model.")
		return
	}

	_, first, err := conn.ReadMessage()
	if err != nil || !isSetupComplete(first) {
		log.Error().Err(err).Str("module", "live").Str("room", string(s.roomID)).Msg("setup handshake failed")
		s.fail("Failed to connect to the Live Agent model.")
		return
	}

	if !s.state.CompareAndSwap(int32(core.LiveConnecting), int32(core.LiveOpen)) {
		return
	}
	log.Info().Str("module", "live").Str("room", string(s.roomID)).Msg("upstream session open")
	_ = s.tech.TrySend(core.StatusReady())

	go s.writePump(ctx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.state.CompareAndSwap(int32(core.LiveOpen), int32(core.LiveClosed)) {
				log.Error().Err(err).Str("module", "live").Str("room", string(s.roomID)).Msg("upstream stream error")
				_ = s.tech.TrySend(core.ErrorEnvelope("AI Engine Error."))
			}
			s.cancel()
			return
		}
		// Upstream messages go to the technician only; the expert sees
		// technician input, never AI output.
		_ = s.tech.TrySend(data)
	}
}

func (s *Session) writePump(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-s.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Error().Err(err).Str("module", "live").Str("room", string(s.roomID)).Msg("upstream write error")
				return
			}
		}
	}
}

// fail reports a startup or stream failure to the technician exactly once
// and parks the session in LiveClosed. No reconnect is attempted.
func (s *Session) fail(message string) {
	if s.state.Swap(int32(core.LiveClosed)) == int32(core.LiveClosed) {
		return
	}
	_ = s.tech.TrySend(core.ErrorEnvelope(message))
}

func isSetupComplete(data []byte) bool {
	var probe struct {
		SetupComplete json.RawMessage `json:"setupComplete"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return len(probe.SetupComplete) > 0
}
