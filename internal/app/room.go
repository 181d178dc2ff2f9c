package app

import (
	"sync"

	"github.com/omnisight/backend/internal/core"
	"github.com/omnisight/backend/internal/domain"
)

// Room pairs one technician and at most one expert around one upstream
// live session. Technician and expert events for the same room can arrive
// on different goroutines, so every slot mutation goes through mu.
type Room struct {
	ID domain.RoomID

	mu     sync.Mutex
	tech   core.PeerConnection
	expert core.PeerConnection
	live   core.LiveSession
}

func NewRoom(id domain.RoomID) *Room {
	return &Room{ID: id}
}

// Snapshot reports occupancy for the registry's read view.
func (r *Room) Snapshot() domain.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := domain.RoomWaiting
	if r.tech != nil {
		st = domain.RoomLive
	}
	return domain.RoomStatus{
		RoomID:    r.ID,
		HasTech:   r.tech != nil,
		HasExpert: r.expert != nil,
		Status:    st,
	}
}
