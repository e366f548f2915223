// Package domain contains core concepts of the chat relay.
// This file defines Message events and related rules.
// Messages are immutable once appended to the log.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Broadcast is the recipient meaning "all participants".
const Broadcast = "todos"

const (
	EnteredText = "entered the room"
	LeftText    = "left the room"
)

// SentAtLayout is the fixed HH:MM:SS, 24-hour, zero-padded display format.
const SentAtLayout = "15:04:05"

type Kind string

const (
	KindStatus    Kind = "status"
	KindBroadcast Kind = "broadcast"
	KindPrivate   Kind = "private"
)

// Message represents an immutable chat event.
// SentAt is display only: the log insertion order is the authoritative ordering.
type Message struct {
	ID     uuid.UUID
	From   string
	To     string
	Text   string
	Kind   Kind
	SentAt string
}

func NewMessage(from, to, text string, kind Kind, at time.Time) Message {
	return Message{
		ID:     uuid.New(),
		From:   from,
		To:     to,
		Text:   text,
		Kind:   kind,
		SentAt: FormatSentAt(at),
	}
}

// NewEnteredMessage builds the status notice appended after a successful join.
func NewEnteredMessage(name string, at time.Time) Message {
	return NewMessage(name, Broadcast, EnteredText, KindStatus, at)
}

// NewLeftMessage builds the status notice appended after an eviction.
func NewLeftMessage(name string, at time.Time) Message {
	return NewMessage(name, Broadcast, LeftText, KindStatus, at)
}

func FormatSentAt(at time.Time) string {
	return at.Local().Format(SentAtLayout)
}

func (k Kind) IsValid() bool {
	switch k {
	case KindStatus, KindBroadcast, KindPrivate:
		return true
	}
	return false
}
