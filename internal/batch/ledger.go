// Package batch implements the Batch Ledger (C7, §4.7): one row per
// API-triggered bulk action, with atomic progress counters and a
// broadcaster event on completion.
package batch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/catalogforge/enrichment-engine/internal/broadcast"
	"github.com/catalogforge/enrichment-engine/internal/db"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

type Ledger struct {
	store *db.BatchStore
	hub   *broadcast.Hub
}

func NewLedger(store *db.BatchStore, hub *broadcast.Hub) *Ledger {
	return &Ledger{store: store, hub: hub}
}

// Start creates a new Batch row covering `total` candidate jobs. The
// returned id is carried in every job payload so workers can report
// back to the same ledger row (§4.7).
func (l *Ledger) Start(ctx context.Context, kind models.BatchKind, total int, note string) (*models.Batch, error) {
	b := &models.Batch{
		ID:     uuid.NewString(),
		Kind:   kind,
		Status: models.BatchStarted,
		Total:  total,
		Note:   note,
	}
	if err := l.store.Insert(ctx, b); err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}
	return b, nil
}

// RecordOutcome is called once per worker completion carrying a
// batchId. It is the only place `processed`/`success`/`failed` are
// mutated, and the mutation is a single atomic SQL UPDATE — no
// read-modify-write from worker memory (§5, Invariant 7).
func (l *Ledger) RecordOutcome(ctx context.Context, batchID string, queueName string, success bool) error {
	b, err := l.store.RecordOutcome(ctx, batchID, success)
	if err != nil {
		return fmt.Errorf("record batch outcome: %w", err)
	}
	if b.Status == models.BatchCompleted && l.hub != nil {
		l.hub.BatchSummary(queueName, b.ID, b.Total, b.Success, b.Failed)
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, id string) (*models.Batch, error) {
	return l.store.Get(ctx, id)
}
