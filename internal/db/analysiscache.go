package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

// AnalysisCacheStore is the durable tier backing the photo-analysis
// cache. internal/cache fronts this with Redis; this store is the
// source of truth consulted on a Redis miss or when Redis is
// unreachable (degraded mode, §4.5).
type AnalysisCacheStore struct {
	store *PostgresStore
}

func NewAnalysisCacheStore(s *PostgresStore) *AnalysisCacheStore {
	return &AnalysisCacheStore{store: s}
}

func (s *AnalysisCacheStore) Get(ctx context.Context, photoHash, promptVersion, modelID string) (*models.AnalysisCacheEntry, error) {
	row := s.store.pool.QueryRow(ctx, `
		SELECT photo_hash, prompt_version, model_id, result_json, created_at
		FROM analysis_cache WHERE photo_hash=$1 AND prompt_version=$2 AND model_id=$3
	`, photoHash, promptVersion, modelID)

	var e models.AnalysisCacheEntry
	var resultJSON []byte
	err := row.Scan(&e.PhotoHash, &e.PromptVersion, &e.ModelID, &resultJSON, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resultJSON, &e.Result); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *AnalysisCacheStore) Set(ctx context.Context, e *models.AnalysisCacheEntry) error {
	resultJSON, err := json.Marshal(e.Result)
	if err != nil {
		return err
	}
	_, err = s.store.pool.Exec(ctx, `
		INSERT INTO analysis_cache (photo_hash, prompt_version, model_id, result_json, created_at)
		VALUES ($1,$2,$3,$4,NOW())
		ON CONFLICT (photo_hash, prompt_version, model_id) DO UPDATE SET result_json=$4, created_at=NOW()
	`, e.PhotoHash, e.PromptVersion, e.ModelID, resultJSON)
	return err
}
