package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/omnisight/backend/internal/core"
	"github.com/omnisight/backend/internal/domain"
)

// observerNotice is injected into the live conversation when an expert
// joins a room that already has a technician, so the assistant can
// acknowledge the observer contextually.
const observerNotice = "System Status: A senior expert has joined to observe."

// Controller owns the per-room forwarding and injection rules. It is the
// only writer of a room's connection and session slots; the relay adapter
// calls in, the controller never calls back out to the adapter.
type Controller struct {
	rooms   *Registry
	newLive core.LiveFactory
}

func NewController(rooms *Registry, newLive core.LiveFactory) *Controller {
	return &Controller{rooms: rooms, newLive: newLive}
}

// Bind routes an admitted connection into its room by role.
func (c *Controller) Bind(ctx context.Context, id domain.RoomID, role domain.Role, conn core.PeerConnection) {
	switch role {
	case domain.RoleTechnician:
		c.BindTechnician(ctx, id, conn)
	case domain.RoleExpert:
		c.BindExpert(id, conn)
	}
}

// BindTechnician stores conn as the room's technician and starts a fresh
// upstream session bound 1:1 to it. A stale technician is closed first:
// reconnect supersedes, last writer wins.
func (c *Controller) BindTechnician(ctx context.Context, id domain.RoomID, conn core.PeerConnection) {
	room := c.rooms.GetOrCreate(id)

	room.mu.Lock()
	if room.tech != nil {
		log.Warn().Str("module", "app.controller").Str("room", string(id)).Msg("technician reconnected, closing old socket")
		room.tech.Close()
	}
	if room.live != nil {
		room.live.Close()
	}
	room.tech = conn
	room.live = c.newLive(ctx, id, conn)
	room.mu.Unlock()

	log.Info().Str("module", "app.controller").Str("room", string(id)).Msg("technician bound")
}

// BindExpert stores conn as the room's expert, replacing any stale one.
// No queuing, no multi-expert fan-out.
func (c *Controller) BindExpert(id domain.RoomID, conn core.PeerConnection) {
	room := c.rooms.GetOrCreate(id)

	room.mu.Lock()
	if room.expert != nil {
		room.expert.Close()
	}
	room.expert = conn
	live := room.live
	room.mu.Unlock()

	log.Info().Str("module", "app.controller").Str("room", string(id)).Msg("expert bound")

	if live != nil {
		live.InjectInstruction(observerNotice)
	}
}

// TechnicianFrame relays one inbound technician frame. Binary chunks and
// well-formed JSON go to the upstream session; realtime-input envelopes are
// additionally mirrored verbatim to an open expert (the observer feed).
// Malformed frames are dropped without surfacing an error.
func (c *Controller) TechnicianFrame(id domain.RoomID, binary bool, data []byte) {
	room, ok := c.rooms.Get(id)
	if !ok {
		return
	}
	room.mu.Lock()
	live, expert := room.live, room.expert
	room.mu.Unlock()
	if live == nil {
		return
	}

	switch core.ClassifyTechnicianFrame(binary, data) {
	case core.FrameBinaryAudio:
		live.SendAudio(data)
	case core.FrameRealtimeInput:
		if expert != nil && expert.IsOpen() {
			if err := expert.TrySend(data); err != nil {
				log.Debug().Err(err).Str("module", "app.controller").Str("room", string(id)).Msg("observer feed send failed")
			}
		}
		live.SendStructured(data)
	case core.FrameStructured:
		live.SendStructured(data)
	case core.FrameIgnored:
		log.Debug().Str("module", "app.controller").Str("room", string(id)).Msg("dropped malformed technician frame")
	}
}

// ExpertFrame acts on expert_command messages only; everything else is
// ignored without error.
func (c *Controller) ExpertFrame(id domain.RoomID, data []byte) {
	cmd, ok := core.ParseExpertCommand(data)
	if !ok {
		log.Debug().Str("module", "app.controller").Str("room", string(id)).Msg("ignored expert frame")
		return
	}
	room, found := c.rooms.Get(id)
	if !found {
		return
	}
	room.mu.Lock()
	live := room.live
	room.mu.Unlock()
	if live == nil {
		return
	}
	prompt := fmt.Sprintf("Expert instruction: %q. Relay this to the technician.", cmd.Text)
	live.InjectInstruction(prompt)
}

// TechnicianClosed destroys the room: the session has no meaning once the
// primary actor leaves, and a dangling expert socket watching a dead room
// must not linger. A superseded socket closing later is a no-op.
func (c *Controller) TechnicianClosed(id domain.RoomID, conn core.PeerConnection) {
	room, ok := c.rooms.Get(id)
	if !ok {
		return
	}
	room.mu.Lock()
	if room.tech != conn {
		room.mu.Unlock()
		return
	}
	live, expert := room.live, room.expert
	room.tech, room.live, room.expert = nil, nil, nil
	room.mu.Unlock()

	c.rooms.Remove(id)
	if live != nil {
		live.Close()
	}
	if expert != nil {
		expert.Close()
	}
	log.Info().Str("module", "app.controller").Str("room", string(id)).Msg("technician disconnected, room destroyed")
}

// ExpertClosed clears only the expert slot; losing an observer is not
// fatal to an in-progress session.
func (c *Controller) ExpertClosed(id domain.RoomID, conn core.PeerConnection) {
	room, ok := c.rooms.Get(id)
	if !ok {
		return
	}
	room.mu.Lock()
	if room.expert == conn {
		room.expert = nil
	}
	room.mu.Unlock()
	log.Info().Str("module", "app.controller").Str("room", string(id)).Msg("expert disconnected")
}
