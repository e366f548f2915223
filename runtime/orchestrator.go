// Package runtime holds the in-memory stores and runs the background workers.
// It wires components together without containing business rules.
package runtime

import (
	"chat-relay/contract"
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Orchestrator registers the background workers on the supervisor and
// drives their lifecycle. It runs at most once.
type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	workers    []contract.Worker
	started    bool
	stopped    bool
	done       chan struct{}
	closeDone  sync.Once
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, workers ...contract.Worker) *Orchestrator {
	return &Orchestrator{
		log:        log,
		supervisor: supervisor,
		workers:    workers,
		done:       make(chan struct{}),
	}
}

// Start blocks until every supervised worker returned.
// It returns at once when Stop was called first, and fails when called twice.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already started")
	}
	o.started = true
	if o.stopped {
		o.mu.Unlock()
		o.log.Info("Orchestrator stopped before start, no worker started")
		o.finish()
		return nil
	}
	o.supervisor.Add(o.workers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers", "workers", len(o.workers))
	defer o.finish()
	o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervised workers and waits until Start returned or ctx expires.
// When Start never ran, Stop only records the request so a later Start is a no-op.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.log.Info("Requesting orchestrator shutdown")
	o.mu.Lock()
	o.stopped = true
	started := o.started
	o.mu.Unlock()
	o.supervisor.Stop()

	if !started {
		return nil
	}
	select {
	case <-o.done:
		o.log.Debug("Orchestrator stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) finish() {
	o.closeDone.Do(func() { close(o.done) })
}
