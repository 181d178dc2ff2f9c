// Package domain contains entity without logic, just meta-data
package domain

// RoomID is the client-supplied opaque room identifier. There is no
// ownership or collision check; two technicians picking the same id
// supersede each other (last writer wins).
type RoomID string

// RoomStatus is the read-only registry view consumed by the REST surface.
type RoomStatus struct {
	RoomID    RoomID `json:"roomId"`
	HasTech   bool   `json:"hasTech"`
	HasExpert bool   `json:"hasExpert"`
	Status    string `json:"status"`
}

const (
	// RoomLive means a technician connection is bound.
	RoomLive = "live"
	// RoomWaiting means the room exists but has no technician yet.
	RoomWaiting = "waiting"
)
