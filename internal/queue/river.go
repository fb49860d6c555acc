package queue

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

// RiverQueue is the production Queue backed by a river.Client running
// against Postgres.
type RiverQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
}

// New builds the river client, registering one QueueConfig per named
// queue at its default concurrency, and the custom backoff policy of
// §4.5.
func New(pool *pgxpool.Pool, workers *river.Workers) (*RiverQueue, error) {
	queues := make(map[string]river.QueueConfig, len(AllQueues))
	for _, name := range AllQueues {
		queues[name] = river.QueueConfig{MaxWorkers: DefaultConcurrency[name]}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:      queues,
		Workers:     workers,
		RetryPolicy: BackoffRetryPolicy{},
	})
	if err != nil {
		return nil, fmt.Errorf("build river client: %w", err)
	}
	return &RiverQueue{client: client, pool: pool}, nil
}

func (q *RiverQueue) Start(ctx context.Context) error {
	return q.client.Start(ctx)
}

func (q *RiverQueue) Stop(ctx context.Context) error {
	return q.client.Stop(ctx)
}

func (q *RiverQueue) Add(ctx context.Context, queueName string, args river.JobArgs, opts JobOptions) error {
	_, err := q.client.Insert(ctx, args, opts.toInsertOpts(queueName))
	return err
}

func (q *RiverQueue) Pause(ctx context.Context, queueName string) error {
	return q.client.QueuePause(ctx, queueName, nil)
}

func (q *RiverQueue) Resume(ctx context.Context, queueName string) error {
	return q.client.QueueResume(ctx, queueName, nil)
}

func (q *RiverQueue) IsPaused(ctx context.Context, queueName string) (bool, error) {
	qr, err := q.client.QueueGet(ctx, queueName)
	if err != nil {
		return false, err
	}
	return qr.PausedAt != nil, nil
}

// Counts queries river_job directly rather than through the client,
// since river does not expose a single aggregate-counts call; the raw
// query mirrors how the teacher reaches past its ORM for aggregate
// reporting.
func (q *RiverQueue) Counts(ctx context.Context, queueName string) (Counts, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE state IN ('available', 'scheduled', 'retryable')),
			count(*) FILTER (WHERE state = 'running'),
			count(*) FILTER (WHERE state = 'completed'),
			count(*) FILTER (WHERE state = 'discarded')
		FROM river_job WHERE queue = $1
	`, queueName)

	var c Counts
	err := row.Scan(&c.Waiting, &c.Active, &c.Completed, &c.Failed)
	return c, err
}

func (q *RiverQueue) GetCompleted(ctx context.Context, queueName string, limit int) ([]*rivertype.JobRow, error) {
	return q.listByState(ctx, queueName, "completed", limit)
}

func (q *RiverQueue) GetFailed(ctx context.Context, queueName string, limit int) ([]*rivertype.JobRow, error) {
	return q.listByState(ctx, queueName, "discarded", limit)
}

func (q *RiverQueue) GetActive(ctx context.Context, queueName string, limit int) ([]*rivertype.JobRow, error) {
	return q.listByState(ctx, queueName, "running", limit)
}

// listByState reads up to limit jobs of one queue in one state directly
// from the river_job table.
func (q *RiverQueue) listByState(ctx context.Context, queueName, state string, limit int) ([]*rivertype.JobRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, kind, queue, state, attempt, max_attempts, created_at, finalized_at, errors
		FROM river_job WHERE queue=$1 AND state=$2 ORDER BY id DESC LIMIT $3
	`, queueName, state, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*rivertype.JobRow
	for rows.Next() {
		var jr rivertype.JobRow
		var errorsRaw [][]byte
		if err := rows.Scan(&jr.ID, &jr.Kind, &jr.Queue, &jr.State, &jr.Attempt, &jr.MaxAttempts,
			&jr.CreatedAt, &jr.FinalizedAt, &errorsRaw); err != nil {
			return nil, err
		}
		out = append(out, &jr)
	}
	return out, rows.Err()
}
