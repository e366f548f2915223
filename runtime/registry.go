package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Registry is the in-memory ParticipantRegistry.
// The lock is held only around map access, never across a call to another component.
type Registry struct {
	mu           sync.RWMutex
	clock        contract.Clock
	participants map[string]time.Time // map participant name -> last seen
}

func NewRegistry(clock contract.Clock) *Registry {
	return &Registry{
		clock:        clock,
		participants: make(map[string]time.Time),
	}
}

// Join registers name as online.
// The presence check and the insert share one critical section so two
// concurrent joins for the same name cannot both succeed.
func (r *Registry) Join(_ context.Context, name string) error {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[name]; ok {
		return errors.ErrNameConflict
	}
	r.participants[name] = now
	return nil
}

func (r *Registry) Heartbeat(_ context.Context, name string) error {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[name]; !ok {
		return errors.ErrNotFound
	}
	r.participants[name] = now
	return nil
}

func (r *Registry) ListOnline(_ context.Context) ([]domain.Participant, error) {
	r.mu.RLock()
	participants := lo.MapToSlice(r.participants, func(name string, lastSeen time.Time) domain.Participant {
		return domain.Participant{Name: name, LastSeenAt: lastSeen}
	})
	r.mu.RUnlock()

	sort.Slice(participants, func(i, j int) bool {
		return participants[i].Name < participants[j].Name
	})
	return participants, nil
}

func (r *Registry) IsOnline(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.participants[name]
	return ok, nil
}

// Evict removes p if nobody refreshed it since the snapshot it comes from.
// A heartbeat or a rejoin in between changes the stored timestamp, in which
// case the participant is kept and false is returned.
func (r *Registry) Evict(_ context.Context, p domain.Participant) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lastSeen, ok := r.participants[p.Name]
	if !ok || !lastSeen.Equal(p.LastSeenAt) {
		return false, nil
	}
	delete(r.participants, p.Name)
	return true, nil
}
