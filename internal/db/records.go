package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

var ErrNotFound = errors.New("db: not found")

// RecordStore persists Record, the largest and most frequently touched
// entity in the pipeline.
type RecordStore struct {
	store *PostgresStore
}

func NewRecordStore(s *PostgresStore) *RecordStore {
	return &RecordStore{store: s}
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Insert creates a new record row.
func (s *RecordStore) Insert(ctx context.Context, r *models.Record) error {
	stagesJSON, err := marshalJSON(r.Stages)
	if err != nil {
		return err
	}
	_, err = s.store.pool.Exec(ctx, `
		INSERT INTO records (id, document, document_kind, name_raw, address_raw, city_raw, state_raw,
			phone_raw, zip_raw, stages_json, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, r.ID, r.Document, r.DocumentKind, r.NameRaw, r.AddressRaw, r.CityRaw, r.StateRaw,
		r.PhoneRaw, r.ZipRaw, stagesJSON, r.CreatedAt, r.UpdatedAt)
	return err
}

// Update persists every mutable field of a Record. Workers call this
// once per stage completion rather than issuing narrow column updates,
// since a single worker touches many columns at once.
func (s *RecordStore) Update(ctx context.Context, r *models.Record) error {
	r.UpdatedAt = time.Now()

	stagesJSON, _ := marshalJSON(r.Stages)
	partnersJSON, _ := marshalJSON(r.Partners)
	fiscalRegsJSON, _ := marshalJSON(r.FiscalRegistrations)
	normDivergencesJSON, _ := marshalJSON(r.NormalizationDivergences)
	openingHoursJSON, _ := marshalJSON(r.OpeningHours)
	photoRefsJSON, _ := marshalJSON(r.PhotoRefs)
	visualIndicatorsJSON, _ := marshalJSON(r.VisualIndicators)
	scoringBreakdownJSON, _ := marshalJSON(r.ScoringBreakdown)
	criticalMissingJSON, _ := marshalJSON(r.CriticalMissingFields)
	validatedSourcesJSON, _ := marshalJSON(r.ValidatedSources)
	dupIDsJSON, _ := marshalJSON(r.DuplicateAddressIDs)
	cpfPartnerJSON, _ := marshalJSON(r.CPFPartnerRelation)
	alertsJSON, _ := marshalJSON(r.Alerts)
	recommendationsJSON, _ := marshalJSON(r.Recommendations)
	analystCriticalJSON, _ := marshalJSON(r.AnalystCriticalAlerts)
	analystSecondaryJSON, _ := marshalJSON(r.AnalystSecondaryAlerts)
	analystRecommendationsJSON, _ := marshalJSON(r.AnalystRecommendations)
	analystDivergencesJSON, _ := marshalJSON(r.AnalystDivergences)

	_, err := s.store.pool.Exec(ctx, `
		UPDATE records SET
			legal_name=$2, trade_name=$3, registry_address=$4, registry_status=$5, opening_date=$6,
			legal_nature=$7, main_activity=$8, simples_nacional=$9, mei_optant=$10,
			fiscal_registration_status=$11, partners_json=$12, fiscal_registrations_json=$13,
			capital=$14, size=$15,
			cpf_name=$16, cpf_status=$17, cpf_birth=$18, cpf_deceased=$19,
			address_normalized=$20, city_normalized=$21, state_normalized=$22,
			normalization_confidence=$23, normalization_source=$24, normalization_divergences_json=$25,
			lat=$26, lng=$27, formatted_address=$28, place_hint=$29, geo_validated=$30,
			geo_within_state=$31, geo_within_city=$32, geo_distance_to_center_meters=$33,
			geocoding_confidence=$34, geocoding_source=$35,
			place_id=$36, establishment_type=$37, place_types_primary=$38, rating=$39, review_count=$40,
			opening_hours_json=$41, place_phone=$42, place_website=$43, photo_refs_json=$44,
			place_name_validated=$45, place_address_validated=$46, place_cross_confidence=$47,
			place_cross_method=$48, accepted_by_high_address=$49,
			signage_quality=$50, branding_present=$51, professionalism_level=$52, audience=$53,
			ambience=$54, visual_indicators_json=$55, visual_analysis_confidence=$56,
			analysis_sources_available=$57,
			potential_score=$58, potential_category=$59, scoring_breakdown_json=$60,
			typology_code=$61, typology_name=$62, typology_confidence=$63, typology_rationale=$64,
			data_quality_score=$65, data_quality_tier=$66, populated_field_count=$67,
			critical_missing_fields_json=$68, validated_sources_json=$69,
			stages_json=$70,
			duplicate_address_ids_json=$71, duplicate_count=$72, duplicate_alert=$73,
			cpf_is_partner=$74, cpf_partner_relation_json=$75,
			confidence_overall=$76, confidence_category=$77, confidence_level=$78, needs_review=$79,
			alerts_json=$80, recommendations_json=$81,
			analyst_status=$82, analyst_confidence=$83, analyst_summary=$84,
			analyst_critical_alerts_json=$85, analyst_secondary_alerts_json=$86,
			analyst_recommendations_json=$87, analyst_divergences_json=$88, analyst_processed_at=$89,
			document_validated=$90, address_divergence=$91, nome_fantasia_match=$92,
			updated_at=$93
		WHERE id=$1
	`,
		r.ID, r.LegalName, r.TradeName, r.RegistryAddress, r.RegistryStatus, r.OpeningDate,
		r.LegalNature, r.MainActivity, r.SimplesNacional, r.MeiOptant,
		r.FiscalRegistrationStatus, partnersJSON, fiscalRegsJSON,
		r.Capital, r.Size,
		r.CPFName, r.CPFStatus, r.CPFBirth, r.CPFDeceased,
		r.AddressNormalized, r.CityNormalized, r.StateNormalized,
		r.NormalizationConfidence, r.NormalizationSource, normDivergencesJSON,
		r.Lat, r.Lng, r.FormattedAddress, r.PlaceHint, r.GeoValidated,
		r.GeoWithinState, r.GeoWithinCity, r.GeoDistanceToCenterMeters,
		r.GeocodingConfidence, r.GeocodingSource,
		r.PlaceID, r.EstablishmentType, r.PlaceTypesPrimary, r.Rating, r.ReviewCount,
		openingHoursJSON, r.PlacePhone, r.PlaceWebsite, photoRefsJSON,
		r.PlaceNameValidated, r.PlaceAddressValidated, r.PlaceCrossConfidence,
		r.PlaceCrossMethod, r.AcceptedByHighAddress,
		r.SignageQuality, r.BrandingPresent, r.ProfessionalismLevel, r.Audience,
		r.Ambience, visualIndicatorsJSON, r.VisualAnalysisConfidence,
		r.AnalysisSourcesAvailable,
		r.PotentialScore, r.PotentialCategory, scoringBreakdownJSON,
		r.TypologyCode, r.TypologyName, r.TypologyConfidence, r.TypologyRationale,
		r.DataQualityScore, r.DataQualityTier, r.PopulatedFieldCount,
		criticalMissingJSON, validatedSourcesJSON,
		stagesJSON,
		dupIDsJSON, r.DuplicateCount, r.DuplicateAlert,
		r.CPFIsPartner, cpfPartnerJSON,
		r.ConfidenceOverall, r.ConfidenceCategory, r.ConfidenceLevel, r.NeedsReview,
		alertsJSON, recommendationsJSON,
		r.AnalystStatus, r.AnalystConfidence, r.AnalystSummary,
		analystCriticalJSON, analystSecondaryJSON,
		analystRecommendationsJSON, analystDivergencesJSON, r.AnalystProcessedAt,
		r.DocumentValidated, r.AddressDivergence, r.NomeFantasiaMatch,
		r.UpdatedAt,
	)
	return err
}

func (s *RecordStore) Get(ctx context.Context, id string) (*models.Record, error) {
	row := s.store.pool.QueryRow(ctx, `SELECT
		id, document, document_kind, name_raw, address_raw, city_raw, state_raw, phone_raw, zip_raw,
		legal_name, trade_name, registry_address, registry_status, opening_date, legal_nature,
		main_activity, simples_nacional, mei_optant, fiscal_registration_status,
		partners_json, fiscal_registrations_json, capital, size,
		cpf_name, cpf_status, cpf_birth, cpf_deceased,
		address_normalized, city_normalized, state_normalized, normalization_confidence,
		normalization_source, normalization_divergences_json,
		lat, lng, formatted_address, place_hint, geo_validated, geo_within_state, geo_within_city,
		geo_distance_to_center_meters, geocoding_confidence, geocoding_source,
		place_id, establishment_type, place_types_primary, rating, review_count,
		opening_hours_json, place_phone, place_website, photo_refs_json,
		place_name_validated, place_address_validated, place_cross_confidence,
		place_cross_method, accepted_by_high_address,
		signage_quality, branding_present, professionalism_level, audience, ambience,
		visual_indicators_json, visual_analysis_confidence, analysis_sources_available,
		potential_score, potential_category, scoring_breakdown_json,
		typology_code, typology_name, typology_confidence, typology_rationale,
		data_quality_score, data_quality_tier, populated_field_count,
		critical_missing_fields_json, validated_sources_json,
		stages_json,
		duplicate_address_ids_json, duplicate_count, duplicate_alert,
		cpf_is_partner, cpf_partner_relation_json,
		confidence_overall, confidence_category, confidence_level, needs_review,
		alerts_json, recommendations_json,
		analyst_status, analyst_confidence, analyst_summary,
		analyst_critical_alerts_json, analyst_secondary_alerts_json,
		analyst_recommendations_json, analyst_divergences_json, analyst_processed_at,
		document_validated, address_divergence, nome_fantasia_match,
		created_at, updated_at
		FROM records WHERE id=$1`, id)

	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var r models.Record
	var partnersJSON, fiscalRegsJSON, normDivergencesJSON, openingHoursJSON, photoRefsJSON,
		visualIndicatorsJSON, scoringBreakdownJSON, criticalMissingJSON, validatedSourcesJSON,
		stagesJSON, dupIDsJSON, cpfPartnerJSON, alertsJSON, recommendationsJSON,
		analystCriticalJSON, analystSecondaryJSON, analystRecommendationsJSON, analystDivergencesJSON []byte

	err := row.Scan(
		&r.ID, &r.Document, &r.DocumentKind, &r.NameRaw, &r.AddressRaw, &r.CityRaw, &r.StateRaw, &r.PhoneRaw, &r.ZipRaw,
		&r.LegalName, &r.TradeName, &r.RegistryAddress, &r.RegistryStatus, &r.OpeningDate, &r.LegalNature,
		&r.MainActivity, &r.SimplesNacional, &r.MeiOptant, &r.FiscalRegistrationStatus,
		&partnersJSON, &fiscalRegsJSON, &r.Capital, &r.Size,
		&r.CPFName, &r.CPFStatus, &r.CPFBirth, &r.CPFDeceased,
		&r.AddressNormalized, &r.CityNormalized, &r.StateNormalized, &r.NormalizationConfidence,
		&r.NormalizationSource, &normDivergencesJSON,
		&r.Lat, &r.Lng, &r.FormattedAddress, &r.PlaceHint, &r.GeoValidated, &r.GeoWithinState, &r.GeoWithinCity,
		&r.GeoDistanceToCenterMeters, &r.GeocodingConfidence, &r.GeocodingSource,
		&r.PlaceID, &r.EstablishmentType, &r.PlaceTypesPrimary, &r.Rating, &r.ReviewCount,
		&openingHoursJSON, &r.PlacePhone, &r.PlaceWebsite, &photoRefsJSON,
		&r.PlaceNameValidated, &r.PlaceAddressValidated, &r.PlaceCrossConfidence,
		&r.PlaceCrossMethod, &r.AcceptedByHighAddress,
		&r.SignageQuality, &r.BrandingPresent, &r.ProfessionalismLevel, &r.Audience, &r.Ambience,
		&visualIndicatorsJSON, &r.VisualAnalysisConfidence, &r.AnalysisSourcesAvailable,
		&r.PotentialScore, &r.PotentialCategory, &scoringBreakdownJSON,
		&r.TypologyCode, &r.TypologyName, &r.TypologyConfidence, &r.TypologyRationale,
		&r.DataQualityScore, &r.DataQualityTier, &r.PopulatedFieldCount,
		&criticalMissingJSON, &validatedSourcesJSON,
		&stagesJSON,
		&dupIDsJSON, &r.DuplicateCount, &r.DuplicateAlert,
		&r.CPFIsPartner, &cpfPartnerJSON,
		&r.ConfidenceOverall, &r.ConfidenceCategory, &r.ConfidenceLevel, &r.NeedsReview,
		&alertsJSON, &recommendationsJSON,
		&r.AnalystStatus, &r.AnalystConfidence, &r.AnalystSummary,
		&analystCriticalJSON, &analystSecondaryJSON,
		&analystRecommendationsJSON, &analystDivergencesJSON, &r.AnalystProcessedAt,
		&r.DocumentValidated, &r.AddressDivergence, &r.NomeFantasiaMatch,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	_ = json.Unmarshal(partnersJSON, &r.Partners)
	_ = json.Unmarshal(fiscalRegsJSON, &r.FiscalRegistrations)
	_ = json.Unmarshal(normDivergencesJSON, &r.NormalizationDivergences)
	_ = json.Unmarshal(openingHoursJSON, &r.OpeningHours)
	_ = json.Unmarshal(photoRefsJSON, &r.PhotoRefs)
	_ = json.Unmarshal(visualIndicatorsJSON, &r.VisualIndicators)
	_ = json.Unmarshal(scoringBreakdownJSON, &r.ScoringBreakdown)
	_ = json.Unmarshal(criticalMissingJSON, &r.CriticalMissingFields)
	_ = json.Unmarshal(validatedSourcesJSON, &r.ValidatedSources)
	_ = json.Unmarshal(stagesJSON, &r.Stages)
	_ = json.Unmarshal(dupIDsJSON, &r.DuplicateAddressIDs)
	_ = json.Unmarshal(cpfPartnerJSON, &r.CPFPartnerRelation)
	_ = json.Unmarshal(alertsJSON, &r.Alerts)
	_ = json.Unmarshal(recommendationsJSON, &r.Recommendations)
	_ = json.Unmarshal(analystCriticalJSON, &r.AnalystCriticalAlerts)
	_ = json.Unmarshal(analystSecondaryJSON, &r.AnalystSecondaryAlerts)
	_ = json.Unmarshal(analystRecommendationsJSON, &r.AnalystRecommendations)
	_ = json.Unmarshal(analystDivergencesJSON, &r.AnalystDivergences)

	return &r, nil
}

// ListByStageStatus returns record ids whose stage column (inside the
// stages JSONB) currently matches status, used by batch-scan endpoints.
func (s *RecordStore) ListByStageStatus(ctx context.Context, stage models.StageName, status models.StageStatus, limit int) ([]string, error) {
	rows, err := s.store.pool.Query(ctx,
		`SELECT id FROM records WHERE stages_json->$1->>'status' = $2 LIMIT $3`,
		string(stage), string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListStuckInStage finds records whose stage has been PROCESSING since
// before the cutoff, for the reset-stuck admin operation (§4.9).
func (s *RecordStore) ListStuckInStage(ctx context.Context, stage models.StageName, cutoff time.Time) ([]string, error) {
	rows, err := s.store.pool.Query(ctx,
		`SELECT id FROM records
		 WHERE stages_json->$1->>'status' = 'PROCESSING'
		   AND (stages_json->$1->>'startedAt')::timestamptz < $2`,
		string(stage), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GroupByNormalizedName returns id lists keyed by a normalized nameRaw,
// used by merge-duplicates (§4.9). Normalization (lowercasing, trimming)
// happens in SQL so the grouping is consistent regardless of caller.
func (s *RecordStore) GroupByNormalizedName(ctx context.Context) (map[string][]string, error) {
	rows, err := s.store.pool.Query(ctx, `
		SELECT lower(trim(name_raw)) AS key, array_agg(id ORDER BY created_at)
		FROM records
		WHERE name_raw IS NOT NULL AND trim(name_raw) <> ''
		GROUP BY key
		HAVING count(*) >= 2
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make(map[string][]string)
	for rows.Next() {
		var key string
		var ids []string
		if err := rows.Scan(&key, &ids); err != nil {
			return nil, err
		}
		groups[key] = ids
	}
	return groups, rows.Err()
}

// Delete removes a record (and, via ON DELETE CASCADE, its photos) —
// used only by merge-duplicates to drop the peers absorbed into the
// surviving record.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.pool.Exec(ctx, `DELETE FROM records WHERE id=$1`, id)
	return err
}

// FindByNormalizedAddress returns the ids of other records sharing the
// same addressNormalized, used as the first duplicate-detection strategy
// of §4.6.6.
func (s *RecordStore) FindByNormalizedAddress(ctx context.Context, excludeID, addressNormalized string) ([]string, error) {
	rows, err := s.store.pool.Query(ctx,
		`SELECT id FROM records WHERE id <> $1 AND address_normalized = $2 AND address_normalized <> ''`,
		excludeID, addressNormalized)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindByCoordinateBox returns the ids of other records whose lat/lng fall
// inside a ±deltaDegrees square around (lat, lng), the coordinate-proximity
// fallback strategy of §4.6.6.
func (s *RecordStore) FindByCoordinateBox(ctx context.Context, excludeID string, lat, lng, deltaDegrees float64) ([]string, error) {
	rows, err := s.store.pool.Query(ctx,
		`SELECT id FROM records
		 WHERE id <> $1 AND lat <> 0 AND lng <> 0
		   AND lat BETWEEN $2 AND $3 AND lng BETWEEN $4 AND $5`,
		excludeID, lat-deltaDegrees, lat+deltaDegrees, lng-deltaDegrees, lng+deltaDegrees)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindCNPJByPartnerTaxID scans CNPJ records whose partners[] includes the
// given tax id (a CPF), the QSA cross-check of §4.6.6. SQL filters on
// jsonb containment of partners_json; the matching partner is then
// picked out of the loaded record in Go.
func (s *RecordStore) FindCNPJByPartnerTaxID(ctx context.Context, cpfDigits string) (*models.Record, *models.Partner, error) {
	rows, err := s.store.pool.Query(ctx,
		`SELECT id FROM records WHERE document_kind = 'CNPJ' AND partners_json @> $1::jsonb`,
		`[{"taxId":"`+cpfDigits+`"}]`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			continue
		}
		for i := range rec.Partners {
			if rec.Partners[i].TaxID == cpfDigits {
				return rec, &rec.Partners[i], nil
			}
		}
	}
	return nil, nil, nil
}

// CountByStageStatus backs GET /pipeline/status's per-stage database counts.
func (s *RecordStore) CountByStageStatus(ctx context.Context, stage models.StageName) (map[models.StageStatus]int, error) {
	rows, err := s.store.pool.Query(ctx,
		`SELECT stages_json->$1->>'status' AS st, count(*) FROM records GROUP BY st`, string(stage))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[models.StageStatus]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		out[models.StageStatus(st)] = n
	}
	return out, rows.Err()
}
