package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

type PhotoStore struct {
	store *PostgresStore
}

func NewPhotoStore(s *PostgresStore) *PhotoStore {
	return &PhotoStore{store: s}
}

func (s *PhotoStore) Insert(ctx context.Context, p *models.Photo) error {
	_, err := s.store.pool.Exec(ctx, `
		INSERT INTO photos (id, record_id, file_name, external_ref, ordinal, file_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
	`, p.ID, p.RecordID, p.FileName, p.ExternalRef, p.Ordinal, p.FileHash)
	return err
}

// SetAnalysisResult records the vision-model verdict for a photo
// (category, confidence, raw result) in one write, the shape every
// analysis worker needs after classifying a photo (§4.6.5).
func (s *PhotoStore) SetAnalysisResult(ctx context.Context, p *models.Photo) error {
	resultJSON, err := marshalJSON(p.AnalysisResult)
	if err != nil {
		return err
	}
	_, err = s.store.pool.Exec(ctx, `
		UPDATE photos SET category=$2, category_confidence=$3, analyzed_by_ai=$4,
			analysis_result_json=$5, analyzed_at=NOW()
		WHERE id=$1
	`, p.ID, p.Category, p.CategoryConfidence, p.AnalyzedByAI, resultJSON)
	return err
}

func (s *PhotoStore) Get(ctx context.Context, id string) (*models.Photo, error) {
	row := s.store.pool.QueryRow(ctx, `
		SELECT id, record_id, file_name, external_ref, ordinal, category, category_confidence,
			file_hash, analyzed_by_ai, analysis_result_json, analyzed_at
		FROM photos WHERE id=$1
	`, id)
	p, err := scanPhoto(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *PhotoStore) ListByRecord(ctx context.Context, recordID string) ([]*models.Photo, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, record_id, file_name, external_ref, ordinal, category, category_confidence,
			file_hash, analyzed_by_ai, analysis_result_json, analyzed_at
		FROM photos WHERE record_id=$1 ORDER BY ordinal
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListUnanalyzed backs the mark-error-photos-analyzed admin operation
// and the analysis worker's candidate selection (§4.9).
func (s *PhotoStore) ListUnanalyzed(ctx context.Context, recordID string) ([]*models.Photo, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT id, record_id, file_name, external_ref, ordinal, category, category_confidence,
			file_hash, analyzed_by_ai, analysis_result_json, analyzed_at
		FROM photos WHERE record_id=$1 AND analyzed_by_ai=FALSE ORDER BY ordinal
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReassignRecord moves every photo belonging to fromRecordID onto
// toRecordID, used by the merge-duplicates admin operation (§4.9) to
// fold a peer's photos into the surviving record before deleting it.
func (s *PhotoStore) ReassignRecord(ctx context.Context, fromRecordID, toRecordID string) error {
	_, err := s.store.pool.Exec(ctx, `UPDATE photos SET record_id=$1 WHERE record_id=$2`, toRecordID, fromRecordID)
	return err
}

func scanPhoto(row rowScanner) (*models.Photo, error) {
	var p models.Photo
	var resultJSON []byte
	err := row.Scan(&p.ID, &p.RecordID, &p.FileName, &p.ExternalRef, &p.Ordinal, &p.Category,
		&p.CategoryConfidence, &p.FileHash, &p.AnalyzedByAI, &resultJSON, &p.AnalyzedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(resultJSON, &p.AnalysisResult)
	return &p, nil
}
