package db

import (
	"context"
	"encoding/json"
	"time"
)

// LogEntry is one append-only processing_log row (§6.2). Every stage
// worker writes one of these per invocation, win or lose, so the full
// trace of a record is reconstructible from correlation_id alone.
type LogEntry struct {
	ID                int64          `json:"id"`
	CorrelationID     string         `json:"correlationId"`
	Timestamp         time.Time      `json:"timestamp"`
	Stage             string         `json:"stage"`
	Operation         string         `json:"operation"`
	Level             string         `json:"level"`
	Message           string         `json:"message"`
	ExecutionTimeMs    *int          `json:"executionTimeMs,omitempty"`
	Input             map[string]any `json:"input,omitempty"`
	Output            map[string]any `json:"output,omitempty"`
	Transformations   []string       `json:"transformations,omitempty"`
	Validations       []string       `json:"validations,omitempty"`
	Alerts            []string       `json:"alerts,omitempty"`
}

// ProcessingLogStore is append-only: rows are never updated or deleted,
// matching the audit retention requirement of §3.3.
type ProcessingLogStore struct {
	store *PostgresStore
}

func NewProcessingLogStore(s *PostgresStore) *ProcessingLogStore {
	return &ProcessingLogStore{store: s}
}

func (s *ProcessingLogStore) Append(ctx context.Context, e *LogEntry) error {
	inputJSON, _ := marshalJSON(e.Input)
	outputJSON, _ := marshalJSON(e.Output)
	transformationsJSON, _ := marshalJSON(e.Transformations)
	validationsJSON, _ := marshalJSON(e.Validations)
	alertsJSON, _ := marshalJSON(e.Alerts)

	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO processing_log (correlation_id, ts, stage, operation, level, message,
			execution_time_ms, input_json, output_json, transformations_json, validations_json, alerts_json)
		VALUES ($1,NOW(),$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, e.CorrelationID, e.Stage, e.Operation, e.Level, e.Message,
		e.ExecutionTimeMs, inputJSON, outputJSON, transformationsJSON, validationsJSON, alertsJSON)
	return err
}

// ByCorrelation backs GET /logs/correlation/:id — the full trace of a
// single job across every stage it touched.
func (s *ProcessingLogStore) ByCorrelation(ctx context.Context, correlationID string) ([]*LogEntry, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, correlation_id, ts, stage, operation, level, message, execution_time_ms,
			input_json, output_json, transformations_json, validations_json, alerts_json
		FROM processing_log WHERE correlation_id=$1 ORDER BY ts
	`, correlationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogEntries(rows)
}

// ByRecord backs GET /logs/record/:id. Correlation ids have the form
// "<recordId>:<stage>:1" (the last segment is always 1), so a prefix
// match on "<recordId>:" recovers every entry for the record.
func (s *ProcessingLogStore) ByRecord(ctx context.Context, recordID string) ([]*LogEntry, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, correlation_id, ts, stage, operation, level, message, execution_time_ms,
			input_json, output_json, transformations_json, validations_json, alerts_json
		FROM processing_log WHERE correlation_id LIKE $1 ORDER BY ts
	`, recordID+":%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogEntries(rows)
}

func scanLogEntries(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*LogEntry, error) {
	var out []*LogEntry
	for rows.Next() {
		var e LogEntry
		var inputJSON, outputJSON, transformationsJSON, validationsJSON, alertsJSON []byte
		if err := rows.Scan(&e.ID, &e.CorrelationID, &e.Timestamp, &e.Stage, &e.Operation, &e.Level,
			&e.Message, &e.ExecutionTimeMs, &inputJSON, &outputJSON, &transformationsJSON,
			&validationsJSON, &alertsJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(inputJSON, &e.Input)
		_ = json.Unmarshal(outputJSON, &e.Output)
		_ = json.Unmarshal(transformationsJSON, &e.Transformations)
		_ = json.Unmarshal(validationsJSON, &e.Validations)
		_ = json.Unmarshal(alertsJSON, &e.Alerts)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// StageMetrics is the aggregate GET /metrics/<stage> responds with,
// computed over the last 1000 completions of that stage.
type StageMetrics struct {
	Count int     `json:"count"`
	Mean  float64 `json:"meanMs"`
	Min   float64 `json:"minMs"`
	Max   float64 `json:"maxMs"`
	P50   float64 `json:"p50Ms"`
	P95   float64 `json:"p95Ms"`
	P99   float64 `json:"p99Ms"`
}

// MetricsForStage aggregates execution_time_ms over the most recent
// 1000 processing_log rows for the stage whose operation marks a
// terminal outcome (level IN ('SUCCESS','FAIL')), using Postgres's
// percentile_cont so the percentile math lives in one place instead of
// being reimplemented in Go over a fetched slice.
func (s *ProcessingLogStore) MetricsForStage(ctx context.Context, stage string) (*StageMetrics, error) {
	row := s.store.pool.QueryRow(ctx, `
		WITH recent AS (
			SELECT execution_time_ms FROM processing_log
			WHERE stage=$1 AND execution_time_ms IS NOT NULL AND level IN ('SUCCESS','FAIL')
			ORDER BY ts DESC LIMIT 1000
		)
		SELECT
			count(*),
			coalesce(avg(execution_time_ms), 0),
			coalesce(min(execution_time_ms), 0),
			coalesce(max(execution_time_ms), 0),
			coalesce(percentile_cont(0.5) WITHIN GROUP (ORDER BY execution_time_ms), 0),
			coalesce(percentile_cont(0.95) WITHIN GROUP (ORDER BY execution_time_ms), 0),
			coalesce(percentile_cont(0.99) WITHIN GROUP (ORDER BY execution_time_ms), 0)
		FROM recent
	`, stage)

	var m StageMetrics
	if err := row.Scan(&m.Count, &m.Mean, &m.Min, &m.Max, &m.P50, &m.P95, &m.P99); err != nil {
		return nil, err
	}
	return &m, nil
}
