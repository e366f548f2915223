package gateway

import (
	"chat-relay/domain"

	"github.com/samber/lo"
)

// Wire values of the message "type" field.
const (
	typeStatus  = "status"
	typeMessage = "message"
	typePrivate = "private_message"
)

type JoinRequest struct {
	Name string `json:"name"`
}

type SendMessageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
}

type ParticipantResponse struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

type MessageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

func kindFromWire(t string) domain.Kind {
	switch t {
	case typeMessage:
		return domain.KindBroadcast
	case typePrivate:
		return domain.KindPrivate
	}
	// Left empty so validation rejects it.
	return ""
}

func wireType(kind domain.Kind) string {
	switch kind {
	case domain.KindBroadcast:
		return typeMessage
	case domain.KindPrivate:
		return typePrivate
	}
	return typeStatus
}

func toParticipantResponses(participants []domain.Participant) []ParticipantResponse {
	return lo.Map(participants, func(p domain.Participant, _ int) ParticipantResponse {
		return ParticipantResponse{Name: p.Name, LastStatus: p.LastSeenAt.UnixMilli()}
	})
}

func toMessageResponses(messages []domain.Message) []MessageResponse {
	return lo.Map(messages, func(m domain.Message, _ int) MessageResponse {
		return MessageResponse{
			ID:   m.ID.String(),
			From: m.From,
			To:   m.To,
			Text: m.Text,
			Type: wireType(m.Kind),
			Time: m.SentAt,
		}
	})
}
