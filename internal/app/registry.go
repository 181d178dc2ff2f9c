package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/omnisight/backend/internal/domain"
)

// Registry is the single process-wide table of active rooms. It is
// constructed once at startup and handed by pointer to every component
// that needs room state; nothing else may cache its own copy.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*Room)}
}

// GetOrCreate returns the room for id, creating it with empty slots if
// absent. Two connections racing on the same id get the same *Room.
func (r *Registry) GetOrCreate(id domain.RoomID) *Room {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok = r.rooms[id]; ok {
		return room
	}
	room = NewRoom(id)
	r.rooms[id] = room
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("created room")
	return room
}

func (r *Registry) Get(id domain.RoomID) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

func (r *Registry) Remove(id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, id)
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("removed room")
}

// ListActive snapshots every room for the REST view.
func (r *Registry) ListActive() []domain.RoomStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomStatus, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room.Snapshot())
	}
	return out
}
