// Package domain contains core concepts of the chat relay.
// This file defines Participant entities and related invariants.
// No runtime, network, or storage logic should be added here.
package domain

import "time"

// Participant is a named, currently online actor of the room.
// Name is the only external key: at most one live Participant exists per Name.
type Participant struct {
	Name       string
	LastSeenAt time.Time
}

// IsStale reports whether the participant has been silent for strictly more than threshold.
func (p Participant) IsStale(now time.Time, threshold time.Duration) bool {
	return now.Sub(p.LastSeenAt) > threshold
}
