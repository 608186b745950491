package model

import (
	"fmt"
	"time"
)

// ServerInfo is a derived snapshot of relay state. It is recomputed on
// demand, never stored.
type ServerInfo struct {
	Uptime       string `json:"uptime"` // HH:MM:SS since process start
	PlayersCount int    `json:"playersCount"`
	Region       string `json:"region"`
}

// FormatUptime renders a duration as zero-padded HH:MM:SS. Hours are not
// wrapped, so uptimes past 99 hours widen the field.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
