package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoomAddAndRemoveMembersPreservesJoinOrder(t *testing.T) {
	room := NewRoom(DefaultRoomID, "Main Room", time.Now())

	room.AddMember("conn-1")
	room.AddMember("conn-2")
	room.AddMember("conn-3")

	assert.Equal(t, []ConnectionID{"conn-1", "conn-2", "conn-3"}, room.Members)

	removed := room.RemoveMember("conn-2")
	assert.True(t, removed)
	assert.Equal(t, []ConnectionID{"conn-1", "conn-3"}, room.Members)
}

func TestRoomRemoveMemberNotPresent(t *testing.T) {
	room := NewRoom(DefaultRoomID, "Main Room", time.Now())
	room.AddMember("conn-1")

	removed := room.RemoveMember("conn-2")
	assert.False(t, removed)
	assert.Equal(t, []ConnectionID{"conn-1"}, room.Members)
}

func TestRoomNextHostIsEarliestJoined(t *testing.T) {
	room := NewRoom(DefaultRoomID, "Main Room", time.Now())
	assert.Equal(t, ConnectionID(""), room.NextHost())

	room.AddMember("conn-1")
	room.AddMember("conn-2")
	assert.Equal(t, ConnectionID("conn-1"), room.NextHost())

	room.RemoveMember("conn-1")
	assert.Equal(t, ConnectionID("conn-2"), room.NextHost())
}

func TestRoomHasMember(t *testing.T) {
	room := NewRoom(DefaultRoomID, "Main Room", time.Now())
	room.AddMember("conn-1")

	assert.True(t, room.HasMember("conn-1"))
	assert.False(t, room.HasMember("conn-2"))
	assert.False(t, room.IsEmpty())
}

func TestPlayerStatusIsValid(t *testing.T) {
	assert.True(t, StatusActive.IsValid())
	assert.True(t, StatusIdle.IsValid())
	assert.True(t, StatusAway.IsValid())
	assert.False(t, PlayerStatus("sleeping").IsValid())
	assert.False(t, PlayerStatus("").IsValid())
}

func TestPublicPlayerExcludesConnectionID(t *testing.T) {
	p := Player{
		ID:           "player-1",
		ConnectionID: "conn-1",
		Username:     "Alice",
		Ping:         42,
		IsHost:       true,
		Status:       StatusActive,
	}

	pub := p.Public()
	assert.Equal(t, PlayerID("player-1"), pub.ID)
	assert.Equal(t, "Alice", pub.Username)
	assert.Equal(t, int64(42), pub.Ping)
	assert.True(t, pub.IsHost)
	assert.Equal(t, StatusActive, pub.Status)
}
