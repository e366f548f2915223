package runtime

import (
	"chat-relay/domain"
	"context"
	"slices"
	"sync"
)

// MessageLog is the in-memory, append-only message store.
// Insertion order is the only ordering it guarantees.
type MessageLog struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

func (l *MessageLog) Append(_ context.Context, message domain.Message) error {
	l.mu.Lock()
	l.messages = append(l.messages, message)
	l.mu.Unlock()
	return nil
}

// All returns a copy so callers can filter without holding the lock.
func (l *MessageLog) All(_ context.Context) ([]domain.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.messages), nil
}
