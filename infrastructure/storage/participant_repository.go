package storage

import (
	"chat-relay/contract"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const participantPrefix = "participant:"

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

// ParticipantRepository is the badger-backed ParticipantRegistry.
// Keys are "participant:{name}", values the protobuf-encoded last-seen timestamp.
// Each operation is one badger transaction, so check-then-write sequences
// like Join stay atomic across concurrent callers.
type ParticipantRepository struct {
	db      *badger.DB
	log     *slog.Logger
	clock   contract.Clock
	timeout time.Duration
}

func NewParticipantRepository(db *badger.DB, log *slog.Logger, clock contract.Clock, timeout time.Duration) *ParticipantRepository {
	return &ParticipantRepository{db: db, log: log, clock: clock, timeout: timeout}
}

func (r *ParticipantRepository) Join(ctx context.Context, name string) error {
	return call(ctx, r.timeout, func() error {
		value, err := encodeLastSeen(r.clock.Now())
		if err != nil {
			return err
		}
		return update(r.db, func(txn *badger.Txn) error {
			_, err := txn.Get(participantKey(name))
			switch {
			case err == nil:
				return apperrors.ErrNameConflict
			case !errors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			return txn.Set(participantKey(name), value)
		})
	})
}

func (r *ParticipantRepository) Heartbeat(ctx context.Context, name string) error {
	return call(ctx, r.timeout, func() error {
		value, err := encodeLastSeen(r.clock.Now())
		if err != nil {
			return err
		}
		return update(r.db, func(txn *badger.Txn) error {
			_, err := txn.Get(participantKey(name))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return apperrors.ErrNotFound
			}
			if err != nil {
				return err
			}
			return txn.Set(participantKey(name), value)
		})
	})
}

// ListOnline scans the participant prefix. Keys sort by name, so does the result.
func (r *ParticipantRepository) ListOnline(ctx context.Context) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := call(ctx, r.timeout, func() error {
		var found []domain.Participant
		err := r.db.View(func(txn *badger.Txn) error {
			prefix := []byte(participantPrefix)
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				name := strings.TrimPrefix(string(item.Key()), participantPrefix)
				err := item.Value(func(v []byte) error {
					lastSeen, err := decodeLastSeen(v)
					if err != nil {
						return fmt.Errorf("participant %s: %w", name, err)
					}
					found = append(found, domain.Participant{Name: name, LastSeenAt: lastSeen})
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		participants = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *ParticipantRepository) IsOnline(ctx context.Context, name string) (bool, error) {
	var online bool
	err := call(ctx, r.timeout, func() error {
		return r.db.View(func(txn *badger.Txn) error {
			_, err := txn.Get(participantKey(name))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			online = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}
	return online, nil
}

// Evict deletes p only if its stored last-seen timestamp is still p.LastSeenAt.
func (r *ParticipantRepository) Evict(ctx context.Context, p domain.Participant) (bool, error) {
	var evicted bool
	err := call(ctx, r.timeout, func() error {
		return update(r.db, func(txn *badger.Txn) error {
			evicted = false
			item, err := txn.Get(participantKey(p.Name))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			var lastSeen time.Time
			err = item.Value(func(v []byte) error {
				lastSeen, err = decodeLastSeen(v)
				return err
			})
			if err != nil {
				return err
			}
			if !lastSeen.Equal(p.LastSeenAt) {
				r.log.Debug("Participant refreshed since snapshot, keeping it", "name", p.Name)
				return nil
			}
			if err := txn.Delete(participantKey(p.Name)); err != nil {
				return err
			}
			evicted = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}
	return evicted, nil
}
