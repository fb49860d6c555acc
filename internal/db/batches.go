package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

type BatchStore struct {
	store *PostgresStore
}

func NewBatchStore(s *PostgresStore) *BatchStore {
	return &BatchStore{store: s}
}

func (s *BatchStore) Insert(ctx context.Context, b *models.Batch) error {
	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO batches (id, kind, status, total, processed, success, failed, started_at, note)
		VALUES ($1,$2,$3,$4,0,0,0,NOW(),$5)
	`, b.ID, b.Kind, b.Status, b.Total, b.Note)
	return err
}

func (s *BatchStore) Get(ctx context.Context, id string) (*models.Batch, error) {
	row := s.store.pool.QueryRow(ctx, `
		SELECT id, kind, status, total, processed, success, failed, started_at, finished_at, note
		FROM batches WHERE id=$1
	`, id)
	var b models.Batch
	err := row.Scan(&b.ID, &b.Kind, &b.Status, &b.Total, &b.Processed, &b.Success, &b.Failed,
		&b.StartedAt, &b.FinishedAt, &b.Note)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &b, err
}

// RecordOutcome atomically increments processed and either success or
// failed in a single statement, and flips status to COMPLETED the
// instant processed reaches total. No row is ever read back into worker
// memory and written again, which is what keeps Invariant 7
// (processed == success+failed, processed <= total) safe under
// concurrent workers (§5).
func (s *BatchStore) RecordOutcome(ctx context.Context, batchID string, success bool) (*models.Batch, error) {
	col := "failed"
	if success {
		col = "success"
	}
	row := s.store.pool.QueryRow(ctx, `
		UPDATE batches SET
			processed = processed + 1,
			`+col+` = `+col+` + 1,
			status = CASE WHEN processed + 1 >= total THEN 'COMPLETED' ELSE status END,
			finished_at = CASE WHEN processed + 1 >= total THEN NOW() ELSE finished_at END
		WHERE id=$1
		RETURNING id, kind, status, total, processed, success, failed, started_at, finished_at, note
	`, batchID)

	var b models.Batch
	err := row.Scan(&b.ID, &b.Kind, &b.Status, &b.Total, &b.Processed, &b.Success, &b.Failed,
		&b.StartedAt, &b.FinishedAt, &b.Note)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &b, err
}

func (s *BatchStore) MarkInProgress(ctx context.Context, id string) error {
	_, err := s.store.pool.Exec(ctx, `UPDATE batches SET status='IN_PROGRESS' WHERE id=$1 AND status='STARTED'`, id)
	return err
}

func (s *BatchStore) Abort(ctx context.Context, id string) error {
	_, err := s.store.pool.Exec(ctx, `UPDATE batches SET status='ABORTED', finished_at=NOW() WHERE id=$1`, id)
	return err
}

func (s *BatchStore) ListByKind(ctx context.Context, kind models.BatchKind, limit int) ([]*models.Batch, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, kind, status, total, processed, success, failed, started_at, finished_at, note
		FROM batches WHERE kind=$1 ORDER BY started_at DESC LIMIT $2
	`, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Batch
	for rows.Next() {
		var b models.Batch
		if err := rows.Scan(&b.ID, &b.Kind, &b.Status, &b.Total, &b.Processed, &b.Success, &b.Failed,
			&b.StartedAt, &b.FinishedAt, &b.Note); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}
