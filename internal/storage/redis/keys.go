package redis

import (
	"fmt"

	"github.com/partyrelay/partyrelay/internal/model"
)

// Key prefix for all relay data
const keyPrefix = "partyrelay"

// playerKey returns the Redis key for a Player, keyed by connection
func playerKey(connID model.ConnectionID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, connID)
}

// connectionsIndexKey returns the Redis key for the LIST of registered
// connection ids, in registration order
func connectionsIndexKey() string {
	return fmt.Sprintf("%s:idx:connections", keyPrefix)
}

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}
