package main

import (
	"bytes"
	"chat-relay/domain"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	req := require.New(t)
	color.Enable = false
	t.Cleanup(func() { color.Enable = true })

	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	participants := []domain.Participant{{Name: "ana", LastSeenAt: at}}
	messages := []domain.Message{
		domain.NewEnteredMessage("ana", at),
		domain.NewMessage("bob", "ana", "hi", domain.KindPrivate, at),
	}

	var out bytes.Buffer
	render(&out, participants, messages)

	req.Contains(out.String(), "Participants (1)")
	req.Contains(out.String(), "2024-05-01T09:30:00Z")
	req.Contains(out.String(), "Messages (2)")
	req.Contains(out.String(), domain.EnteredText)
	req.Contains(out.String(), string(domain.KindPrivate))
}
