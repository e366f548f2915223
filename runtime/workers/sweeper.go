package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SweepReport summarizes one sweep tick.
type SweepReport struct {
	Scanned int
	Evicted []string
	Failed  []string
	Skipped bool
}

// PresenceSweeper periodically evicts participants whose last activity is older
// than staleThreshold and appends a departure notice for each of them.
//
// Evicting and appending the notice are two separate steps: between them the
// participant is already gone from the registry while the log doesn't know yet.
type PresenceSweeper struct {
	log            *slog.Logger
	registry       contract.IParticipantRegistry
	messages       contract.IMessageLog
	clock          contract.Clock
	metrics        *observability.Metrics
	interval       time.Duration
	staleThreshold time.Duration
	storeTimeout   time.Duration
}

func NewPresenceSweeper(
	log *slog.Logger,
	registry contract.IParticipantRegistry,
	messages contract.IMessageLog,
	clock contract.Clock,
	metrics *observability.Metrics,
	interval, staleThreshold, storeTimeout time.Duration,
) *PresenceSweeper {
	return &PresenceSweeper{
		log:            log,
		registry:       registry,
		messages:       messages,
		clock:          clock,
		metrics:        metrics,
		interval:       interval,
		staleThreshold: staleThreshold,
		storeTimeout:   storeTimeout,
	}
}

// Run sweeps every interval until ctx is canceled.
// A tick already started when ctx is canceled runs to completion.
func (w *PresenceSweeper) Run(ctx context.Context) error {
	w.log.Info("Starting presence sweeper", "interval", w.interval, "staleThreshold", w.staleThreshold)
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping presence sweeper")
			return ctx.Err()
		case <-ticker.Chan():
			w.Sweep(context.WithoutCancel(ctx))
		}
	}
}

// Sweep runs a single tick.
// A registry that cannot be listed skips the whole tick. Any other failure is
// scoped to one participant and never stops the others.
func (w *PresenceSweeper) Sweep(ctx context.Context) SweepReport {
	start := w.clock.Now()
	defer func() {
		w.metrics.SweepDuration.Observe(w.clock.Since(start).Seconds())
	}()

	snapshot, err := w.snapshot(ctx)
	if err != nil {
		w.log.Warn("Registry unavailable, skipping sweep", "err", err)
		w.metrics.SweepTicks.WithLabelValues(observability.SweepSkipped).Inc()
		return SweepReport{Skipped: true}
	}

	report := SweepReport{Scanned: len(snapshot)}
	now := w.clock.Now()
	for _, p := range snapshot {
		if !p.IsStale(now, w.staleThreshold) {
			continue
		}
		evicted, err := w.evict(ctx, p)
		if evicted {
			report.Evicted = append(report.Evicted, p.Name)
		}
		if err != nil {
			w.log.Error("Failed to evict participant", "name", p.Name, "evicted", evicted, "err", err)
			report.Failed = append(report.Failed, p.Name)
		}
	}

	outcome := observability.SweepOK
	if len(report.Failed) > 0 {
		outcome = observability.SweepPartial
	}
	w.metrics.SweepTicks.WithLabelValues(outcome).Inc()
	if len(report.Evicted) > 0 {
		w.log.Info("Evicted stale participants", "names", report.Evicted, "scanned", report.Scanned)
	}
	return report
}

func (w *PresenceSweeper) snapshot(ctx context.Context) ([]domain.Participant, error) {
	opCtx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	defer cancel()
	return w.registry.ListOnline(opCtx)
}

// evict removes p then appends its departure notice.
// The returned bool tells whether p left the registry, even when the notice failed.
func (w *PresenceSweeper) evict(ctx context.Context, p domain.Participant) (evicted bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()

	evictCtx, cancel := context.WithTimeout(ctx, w.storeTimeout)
	defer cancel()
	evicted, err = w.registry.Evict(evictCtx, p)
	if err != nil || !evicted {
		return evicted, err
	}
	w.metrics.Evictions.Inc()

	appendCtx, cancelAppend := context.WithTimeout(ctx, w.storeTimeout)
	defer cancelAppend()
	if err = w.messages.Append(appendCtx, domain.NewLeftMessage(p.Name, w.clock.Now())); err != nil {
		return true, fmt.Errorf("departure notice: %w", err)
	}
	w.metrics.MessageAppended(domain.KindStatus)
	return true, nil
}
