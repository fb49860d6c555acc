package queue

import (
	"context"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// NoopQueue degrades every operation to a no-op when the Postgres-backed
// queue is unreachable at boot, so read-only endpoints keep serving
// (§4.5).
type NoopQueue struct{}

func (NoopQueue) Add(ctx context.Context, queueName string, args river.JobArgs, opts JobOptions) error {
	return nil
}

func (NoopQueue) Pause(ctx context.Context, queueName string) error  { return nil }
func (NoopQueue) Resume(ctx context.Context, queueName string) error { return nil }

func (NoopQueue) IsPaused(ctx context.Context, queueName string) (bool, error) {
	return false, nil
}

func (NoopQueue) Counts(ctx context.Context, queueName string) (Counts, error) {
	return Counts{}, nil
}

func (NoopQueue) GetCompleted(ctx context.Context, queueName string, limit int) ([]*rivertype.JobRow, error) {
	return nil, nil
}

func (NoopQueue) GetFailed(ctx context.Context, queueName string, limit int) ([]*rivertype.JobRow, error) {
	return nil, nil
}

func (NoopQueue) GetActive(ctx context.Context, queueName string, limit int) ([]*rivertype.JobRow, error) {
	return nil, nil
}

var (
	_ Queue = (*RiverQueue)(nil)
	_ Queue = NoopQueue{}
)
