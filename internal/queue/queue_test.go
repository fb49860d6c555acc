package queue

import (
	"testing"
	"time"

	"github.com/riverqueue/river/rivertype"
)

func TestBackoffRetryPolicy_CapsAtMaxBackoff(t *testing.T) {
	policy := BackoffRetryPolicy{}

	job := &rivertype.JobRow{Attempt: 0}
	next := policy.NextRetry(job)
	delay := next.Sub(time.Now())
	if delay < 1500*time.Millisecond || delay > 2500*time.Millisecond {
		t.Errorf("attempt 0 delay = %v, want ~2s", delay)
	}

	// At high attempt counts the exponential curve must be clamped to
	// maxBackoff rather than overflowing into a far-future timestamp.
	job = &rivertype.JobRow{Attempt: 20}
	next = policy.NextRetry(job)
	delay = next.Sub(time.Now())
	if delay > maxBackoff+time.Second {
		t.Errorf("attempt 20 delay = %v, want capped near %v", delay, maxBackoff)
	}
}

func TestJobOptions_ToInsertOpts_Defaults(t *testing.T) {
	opts := JobOptions{}.toInsertOpts(DocLookup)
	if opts.Queue != DocLookup {
		t.Errorf("Queue = %q, want %q", opts.Queue, DocLookup)
	}
	if opts.MaxAttempts != MaxAttempts {
		t.Errorf("MaxAttempts = %d, want default %d", opts.MaxAttempts, MaxAttempts)
	}
	if !opts.ScheduledAt.IsZero() {
		t.Error("ScheduledAt should be zero when no delay is requested")
	}
}

func TestJobOptions_ToInsertOpts_OverridesAndJobID(t *testing.T) {
	opts := JobOptions{MaxAttempts: 3, Delay: 5 * time.Minute, JobID: "record-123"}.toInsertOpts(Geocoding)
	if opts.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", opts.MaxAttempts)
	}
	if opts.ScheduledAt.Before(time.Now().Add(4 * time.Minute)) {
		t.Error("ScheduledAt should be roughly 5 minutes in the future")
	}
	if len(opts.Tags) != 1 || opts.Tags[0] != "record-123" {
		t.Errorf("Tags = %v, want [record-123]", opts.Tags)
	}
}
