package domain

import (
	"chat-relay/errors"
	"strconv"

	"github.com/samber/lo"
)

// IsVisibleTo reports whether viewer may read the message.
// Private messages reach their author and recipient, broadcasts and status
// events reach everyone. The five conditions overlap on purpose.
func (m Message) IsVisibleTo(viewer string) bool {
	return m.From == viewer ||
		m.To == viewer ||
		m.To == Broadcast ||
		m.Kind == KindStatus ||
		m.Kind == KindBroadcast
}

// VisibleTo returns, in log order, the messages viewer may read.
// A nil limit means no truncation. A positive limit keeps only the most recent
// entries, anything else is rejected with ErrInvalidLimit.
func VisibleTo(viewer string, messages []Message, limit *int) ([]Message, error) {
	if limit != nil && *limit <= 0 {
		return nil, errors.ErrInvalidLimit
	}
	visible := lo.Filter(messages, func(m Message, _ int) bool {
		return m.IsVisibleTo(viewer)
	})
	if limit != nil && *limit < len(visible) {
		visible = visible[len(visible)-*limit:]
	}
	return visible, nil
}

// ParseLimit reads a raw limit as received from a client.
// An empty value is an absent limit (nil), never an error.
func ParseLimit(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return nil, errors.ErrInvalidLimit
	}
	return &limit, nil
}
