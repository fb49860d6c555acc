// Package metrics tracks stage-completion latency in-process, backing
// the Prometheus scrape endpoint. It also keeps a recent window per stage
// (Recorder.Summary); `GET /metrics/<stage>` (§6.2) does not read it and
// is served from SQL.
package metrics

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ringSize is how many of the most recent completions per stage are
// kept for on-demand percentile computation.
const ringSize = 1000

var stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "enrichment",
	Name:      "stage_duration_seconds",
	Help:      "Duration of a pipeline stage job, labeled by stage and outcome.",
	Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
}, []string{"stage", "outcome"})

var jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "enrichment",
	Name:      "stage_jobs_total",
	Help:      "Completed stage jobs, labeled by stage and outcome.",
}, []string{"stage", "outcome"})

type ring struct {
	mu     sync.Mutex
	values []time.Duration
	next   int
	full   bool
}

func newRing() *ring {
	return &ring{values: make([]time.Duration, ringSize)}
}

func (r *ring) push(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[r.next] = d
	r.next = (r.next + 1) % ringSize
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) snapshot() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.next
	if r.full {
		n = ringSize
	}
	out := make([]time.Duration, n)
	copy(out, r.values[:n])
	return out
}

// Summary is the count/mean/min/max/percentile aggregate over the
// ring's current contents.
type Summary struct {
	Count int           `json:"count"`
	Mean  time.Duration `json:"mean"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
}

// Recorder owns one ring buffer per stage and feeds the Prometheus
// vectors every stage worker reports through.
type Recorder struct {
	mu    sync.Mutex
	rings map[string]*ring
}

func NewRecorder() *Recorder {
	return &Recorder{rings: make(map[string]*ring)}
}

// Observe records one stage job's completion. outcome is typically
// "success" or "fail", mirroring the worker's terminal StageStatus.
func (rec *Recorder) Observe(stage, outcome string, d time.Duration) {
	stageDuration.WithLabelValues(stage, outcome).Observe(d.Seconds())
	jobsTotal.WithLabelValues(stage, outcome).Inc()

	rec.mu.Lock()
	r, ok := rec.rings[stage]
	if !ok {
		r = newRing()
		rec.rings[stage] = r
	}
	rec.mu.Unlock()
	r.push(d)
}

// Summary computes the current window's aggregate for stage. ok is
// false if no completions have been recorded yet.
func (rec *Recorder) Summary(stage string) (Summary, bool) {
	rec.mu.Lock()
	r, ok := rec.rings[stage]
	rec.mu.Unlock()
	if !ok {
		return Summary{}, false
	}

	values := r.snapshot()
	if len(values) == 0 {
		return Summary{}, false
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	var total time.Duration
	for _, v := range values {
		total += v
	}

	return Summary{
		Count: len(values),
		Mean:  total / time.Duration(len(values)),
		Min:   values[0],
		Max:   values[len(values)-1],
		P50:   percentile(values, 0.50),
		P95:   percentile(values, 0.95),
		P99:   percentile(values, 0.99),
	}, true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// Handler exposes the Prometheus scrape endpoint for GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
