package storage

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	messagePrefix     = "msg:"
	messageSequence   = "seq:messages"
	sequenceBandwidth = 128
)

// messageKey pads the sequence number to 20 digits so lexicographical key
// order is insertion order.
func messageKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", messagePrefix, seq))
}

// MessageRepository is the badger-backed MessageLog.
// Insertion order comes from a badger sequence, never from message timestamps
// since two messages can share the same second.
// appendMu spans key allocation and commit: a reader never sees seq N+1
// without seq N.
type MessageRepository struct {
	appendMu sync.Mutex
	db       *badger.DB
	log      *slog.Logger
	sequence *badger.Sequence
	timeout  time.Duration
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, timeout time.Duration) (*MessageRepository, error) {
	sequence, err := db.GetSequence([]byte(messageSequence), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, log: log, sequence: sequence, timeout: timeout}, nil
}

func (m *MessageRepository) Append(ctx context.Context, message domain.Message) error {
	return call(ctx, m.timeout, func() error {
		m.appendMu.Lock()
		defer m.appendMu.Unlock()
		seq, err := m.sequence.Next()
		if err != nil {
			return err
		}
		value := encodeMessage(message)
		return m.db.Update(func(txn *badger.Txn) error {
			return txn.Set(messageKey(seq), value)
		})
	})
}

func (m *MessageRepository) All(ctx context.Context) ([]domain.Message, error) {
	return ReadMessages(ctx, m.db, m.timeout)
}

// ReadMessages scans the message prefix in insertion order.
// It only reads, so it also works on a database opened read-only.
func ReadMessages(ctx context.Context, db *badger.DB, timeout time.Duration) ([]domain.Message, error) {
	var messages []domain.Message
	err := call(ctx, timeout, func() error {
		var found []domain.Message
		err := db.View(func(txn *badger.Txn) error {
			prefix := []byte(messagePrefix)
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				err := item.Value(func(v []byte) error {
					message, err := decodeMessage(v)
					if err != nil {
						return fmt.Errorf("key %s: %w", item.Key(), err)
					}
					found = append(found, message)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		messages = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// Close returns the unused sequence lease so the next process starts right after
// the last appended message.
func (m *MessageRepository) Close() error {
	return m.sequence.Release()
}
