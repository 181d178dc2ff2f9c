package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/omnisight/backend/internal/app"
	"github.com/omnisight/backend/internal/core"
	"github.com/omnisight/backend/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSController admits inbound live connections: it extracts (roomId, role)
// from the connection metadata, validates exactly once, and hands valid
// sockets to the room session controller. A rejected connection gets one
// error envelope and is closed; nothing else is affected.
type WSController struct {
	Ctrl *app.Controller
}

func NewWSController(ctrl *app.Controller) *WSController {
	return &WSController{Ctrl: ctrl}
}

// HandleLive serves GET /live?role=<technician|expert>&roomId=<id>.
func (ctl *WSController) HandleLive(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("ws upgrade")
		return
	}

	roomID := domain.RoomID(c.Query("roomId"))
	role, roleErr := domain.ParseRole(c.Query("role"))
	if roomID == "" || roleErr != nil {
		log.Warn().
			Str("module", "relay").
			Str("sid", c.GetString("client_token")).
			Str("role", c.Query("role")).
			Str("room", string(roomID)).
			Msg("rejected connection: missing or invalid role/roomId")
		_ = ws.WriteMessage(websocket.TextMessage, core.ErrorEnvelope("missing or invalid role/roomId"))
		_ = ws.Close()
		return
	}

	conn := NewPeerConn(ws)
	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)

	log.Info().
		Str("module", "relay").
		Str("sid", c.GetString("client_token")).
		Str("role", string(role)).
		Str("room", string(roomID)).
		Msg("new live connection")

	ctl.Ctrl.Bind(ctx, roomID, role, conn)
	go ctl.readPump(cancel, roomID, role, conn)
}

func (ctl *WSController) writePump(ctx context.Context, c *PeerConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "relay").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(f.messageType, f.data); err != nil {
				log.Error().Err(err).Str("module", "relay").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump drives the connection's whole lifecycle: frames go to the room
// session controller, and the read loop exiting is the close signal. A
// panic in handling is confined here so one bad connection cannot take
// down other rooms.
func (ctl *WSController) readPump(cancel context.CancelFunc, roomID domain.RoomID, role domain.Role, c *PeerConn) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("module", "relay").Str("room", string(roomID)).Msg("readPump recovered")
		}
		c.Close()
		cancel()
		switch role {
		case domain.RoleTechnician:
			ctl.Ctrl.TechnicianClosed(roomID, c)
		case domain.RoleExpert:
			ctl.Ctrl.ExpertClosed(roomID, c)
		}
	}()

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("module", "relay").Str("room", string(roomID)).Msg("readPump read error")
			return
		}
		switch role {
		case domain.RoleTechnician:
			ctl.Ctrl.TechnicianFrame(roomID, mt == websocket.BinaryMessage, data)
		case domain.RoleExpert:
			ctl.Ctrl.ExpertFrame(roomID, data)
		}
	}
}
