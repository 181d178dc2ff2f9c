package relay

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnisight/backend/internal/app"
	"github.com/omnisight/backend/internal/core"
	"github.com/omnisight/backend/internal/domain"
)

type recordedLive struct {
	mu         sync.Mutex
	structured [][]byte
	audio      [][]byte
	injected   []string
}

func (f *recordedLive) SendAudio(chunk []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, append([]byte(nil), chunk...))
}

func (f *recordedLive) SendStructured(payload core.Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.structured = append(f.structured, append([]byte(nil), payload...))
}

func (f *recordedLive) InjectInstruction(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.injected = append(f.injected, text)
}

func (f *recordedLive) State() core.LiveState { return core.LiveOpen }
func (f *recordedLive) Close()                {}

func (f *recordedLive) structuredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.structured)
}

func newTestServer(t *testing.T) (*httptest.Server, *app.Registry, *recordedLive) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	live := &recordedLive{}
	reg := app.NewRegistry()
	ctrl := app.NewController(reg, func(context.Context, domain.RoomID, core.PeerConnection) core.LiveSession {
		return live
	})
	ws := NewWSController(ctrl)

	r := gin.New()
	r.GET("/live", func(c *gin.Context) {
		ws.HandleLive(context.Background(), c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, reg, live
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(srv.URL, "http", "ws", 1) + "/live" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAdmissionRejectsInvalidMetadata(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	for name, query := range map[string]string{
		"missing role":   "?roomId=r1",
		"missing roomId": "?role=technician",
		"unknown role":   "?role=admin&roomId=r1",
		"no params":      "",
	} {
		t.Run(name, func(t *testing.T) {
			conn := dial(t, srv, query)
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

			_, data, err := conn.ReadMessage()
			require.NoError(t, err)
			var env map[string]string
			require.NoError(t, json.Unmarshal(data, &env))
			assert.Equal(t, "error", env["type"])
			assert.NotEmpty(t, env["message"])

			// The rejection closes the connection; nothing else follows.
			_, _, err = conn.ReadMessage()
			assert.Error(t, err)
			assert.Empty(t, reg.ListActive())
		})
	}
}

func TestAdmissionBindsTechnician(t *testing.T) {
	srv, reg, live := newTestServer(t)

	conn := dial(t, srv, "?role=technician&roomId=room123")

	require.Eventually(t, func() bool {
		statuses := reg.ListActive()
		return len(statuses) == 1 && statuses[0].Status == domain.RoomLive
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"clientContent":{}}`)))
	require.Eventually(t, func() bool {
		return live.structuredCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		return len(reg.ListActive()) == 0
	}, 2*time.Second, 10*time.Millisecond, "technician close must destroy the room")
}

func TestObserverFeedEndToEnd(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	tech := dial(t, srv, "?role=technician&roomId=r1")
	expert := dial(t, srv, "?role=expert&roomId=r1")

	require.Eventually(t, func() bool {
		statuses := reg.ListActive()
		return len(statuses) == 1 && statuses[0].HasTech && statuses[0].HasExpert
	}, 2*time.Second, 10*time.Millisecond)

	frame := `{"realtimeInput":{"mediaChunks":[{"mimeType":"image/jpeg","data":"ZnJhbWU="}]}}`
	require.NoError(t, tech.WriteMessage(websocket.TextMessage, []byte(frame)))

	require.NoError(t, expert.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, mirrored, err := expert.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, frame, string(mirrored))
}

func TestExpertDisconnectKeepsRoom(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	dial(t, srv, "?role=technician&roomId=r1")
	expert := dial(t, srv, "?role=expert&roomId=r1")

	require.Eventually(t, func() bool {
		statuses := reg.ListActive()
		return len(statuses) == 1 && statuses[0].HasExpert
	}, 2*time.Second, 10*time.Millisecond)

	expert.Close()
	require.Eventually(t, func() bool {
		statuses := reg.ListActive()
		return len(statuses) == 1 && !statuses[0].HasExpert && statuses[0].Status == domain.RoomLive
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPeerConnSendSemantics(t *testing.T) {
	// Closed connections refuse sends instead of panicking on a dead channel.
	closed := &PeerConn{send: make(chan outFrame, 1), closed: true}
	assert.Error(t, closed.TrySend(core.Frame("x")))
	assert.False(t, closed.IsOpen())

	// A full outbound buffer drops instead of blocking the caller.
	full := &PeerConn{send: make(chan outFrame)}
	assert.ErrorIs(t, full.TrySend(core.Frame("x")), ErrBackpressure)
	assert.True(t, full.IsOpen())
}
