package model

import "time"

// RoomID identifies a room
type RoomID string

// DefaultRoomID is the single room exercised by the relay. Rooms are keyed
// by id so a multi-room deployment needs no model changes.
const DefaultRoomID RoomID = "main"

// Room holds the ordered membership of a presence session. Members are
// connection ids in join order; the first member is the election successor.
// Rooms carry no policy - membership mutation and host election belong to
// the presence coordinator.
type Room struct {
	ID        RoomID         `json:"id"`
	Name      string         `json:"name"`
	Members   []ConnectionID `json:"members"`
	HostID    ConnectionID   `json:"hostId"` // empty when the room is empty
	CreatedAt time.Time      `json:"createdAt"`
}

// NewRoom creates an empty room
func NewRoom(id RoomID, name string, createdAt time.Time) *Room {
	return &Room{
		ID:        id,
		Name:      name,
		Members:   []ConnectionID{},
		CreatedAt: createdAt,
	}
}

// AddMember appends a connection to the membership list
func (r *Room) AddMember(id ConnectionID) {
	r.Members = append(r.Members, id)
}

// RemoveMember removes a connection from the membership list, preserving
// join order. It reports whether the connection was a member.
func (r *Room) RemoveMember(id ConnectionID) bool {
	for i, m := range r.Members {
		if m == id {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return true
		}
	}
	return false
}

// HasMember reports whether the connection is in the room
func (r *Room) HasMember(id ConnectionID) bool {
	for _, m := range r.Members {
		if m == id {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the room has no members
func (r *Room) IsEmpty() bool {
	return len(r.Members) == 0
}

// NextHost returns the earliest-joined remaining member, or empty if the
// room is empty.
func (r *Room) NextHost() ConnectionID {
	if len(r.Members) == 0 {
		return ""
	}
	return r.Members[0]
}
