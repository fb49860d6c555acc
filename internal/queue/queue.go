// Package queue wraps river into the seven named job queues of the
// pipeline (C5, §4.5), with a no-op fallback when Postgres is
// unreachable so the API can still serve read-only endpoints (§4.5).
package queue

import (
	"context"
	"math"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// Names of the seven queues, matching the stage names they carry jobs
// for plus the out-of-band duplicate-detection pass.
const (
	DocLookup          = "doc_lookup"
	Normalization      = "normalization"
	Geocoding          = "geocoding"
	Places             = "places"
	Analysis           = "analysis"
	DuplicateDetection = "duplicate_detection"
	Analyst            = "analyst"
)

// DefaultConcurrency is the per-queue worker pool size (§4.5).
var DefaultConcurrency = map[string]int{
	DocLookup:          5,
	Normalization:      5,
	Geocoding:          3,
	Places:             3,
	Analysis:           1,
	DuplicateDetection: 2,
	Analyst:            2,
}

// AllQueues lists every queue name river needs a QueueConfig for.
var AllQueues = []string{DocLookup, Normalization, Geocoding, Places, Analysis, DuplicateDetection, Analyst}

const (
	// MaxAttempts is the retry ceiling before a job is marked FAILED and
	// the worker itself sets the stage status to FAIL.
	MaxAttempts = 8
	maxBackoff  = 30 * time.Second
)

// BackoffRetryPolicy implements delay = 2000*2^attempt ms, capped at 30s
// (§4.5), in place of river's default policy so retry pacing matches
// the spec exactly rather than river's own jittered exponential curve.
type BackoffRetryPolicy struct{}

func (BackoffRetryPolicy) NextRetry(job *rivertype.JobRow) time.Time {
	delay := time.Duration(2000*math.Pow(2, float64(job.Attempt))) * time.Millisecond
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return time.Now().Add(delay)
}

// JobOptions mirrors the add(payload, {delay?, attempts?, jobId?})
// surface of §4.5, translated to river's InsertOpts.
type JobOptions struct {
	Delay       time.Duration
	MaxAttempts int
	JobID       string // deduplicates retried enqueue calls for the same logical job
}

func (o JobOptions) toInsertOpts(queueName string) *river.InsertOpts {
	opts := &river.InsertOpts{
		Queue:       queueName,
		MaxAttempts: MaxAttempts,
	}
	if o.MaxAttempts > 0 {
		opts.MaxAttempts = o.MaxAttempts
	}
	if o.Delay > 0 {
		opts.ScheduledAt = time.Now().Add(o.Delay)
	}
	if o.JobID != "" {
		opts.UniqueOpts = river.UniqueOpts{
			ByArgs: true,
			ByQueue: true,
		}
		opts.Tags = []string{o.JobID}
	}
	return opts
}

// Counts is the snapshot §4.5's completedCount/failedCount/waitingCount/
// activeCount operations expose for a single queue.
type Counts struct {
	Waiting   int
	Active    int
	Completed int
	Failed    int
}

// Queue is the abstraction stage workers and admin handlers depend on,
// so production code runs unmodified against either RiverQueue or
// NoopQueue.
type Queue interface {
	Add(ctx context.Context, queueName string, args river.JobArgs, opts JobOptions) error
	Pause(ctx context.Context, queueName string) error
	Resume(ctx context.Context, queueName string) error
	IsPaused(ctx context.Context, queueName string) (bool, error)
	Counts(ctx context.Context, queueName string) (Counts, error)
	GetCompleted(ctx context.Context, queueName string, limit int) ([]*rivertype.JobRow, error)
	GetFailed(ctx context.Context, queueName string, limit int) ([]*rivertype.JobRow, error)
	GetActive(ctx context.Context, queueName string, limit int) ([]*rivertype.JobRow, error)
}
