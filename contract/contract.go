//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"

	"github.com/jonboulle/clockwork"
)

// Clock supplies timestamps and tickers. Production code uses the real clock,
// tests drive a fake one.
type Clock = clockwork.Clock

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// IParticipantRegistry owns the set of online participants.
// Every method is atomic on its own. None of them is atomic with a MessageLog call.
type IParticipantRegistry interface {
	// Join fails with ErrNameConflict when name is already online.
	Join(ctx context.Context, name string) error
	// Heartbeat fails with ErrNotFound when name is not online.
	Heartbeat(ctx context.Context, name string) error
	// ListOnline returns a copy of the online participants sorted by name.
	ListOnline(ctx context.Context) ([]domain.Participant, error)
	IsOnline(ctx context.Context, name string) (bool, error)
	// Evict removes p only if the stored record still carries p.LastSeenAt.
	// It returns false without error when p is gone, refreshed or rejoined.
	Evict(ctx context.Context, p domain.Participant) (bool, error)
}

// IMessageLog owns the append-ordered sequence of messages.
type IMessageLog interface {
	Append(ctx context.Context, message domain.Message) error
	All(ctx context.Context) ([]domain.Message, error)
}
