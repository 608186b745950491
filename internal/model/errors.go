package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound    = errors.New("player not found")
	ErrAlreadyRegistered = errors.New("connection is already registered")
	ErrInvalidStatus     = errors.New("invalid player status")

	// Room errors
	ErrRoomNotFound = errors.New("room not found")
)
