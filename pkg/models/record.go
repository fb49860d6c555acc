// Package models holds the persistent entities the pipeline reads and writes:
// Record, Photo, Batch and AnalysisCacheEntry. Types here are plain data —
// no behavior, no database handles — so they can be shared between the
// store, the workers and the HTTP layer without import cycles.
package models

import "time"

// DocumentKind classifies the anchor tax document by digit count.
type DocumentKind string

const (
	DocumentCNPJ    DocumentKind = "CNPJ"
	DocumentCPF     DocumentKind = "CPF"
	DocumentInvalid DocumentKind = "INVALID"
)

// StageName identifies one of the six pipeline stages plus the
// out-of-band duplicate-detection pass.
type StageName string

const (
	StageDocLookup           StageName = "doc_lookup"
	StageNormalization       StageName = "normalization"
	StageGeocoding           StageName = "geocoding"
	StagePlaces              StageName = "places"
	StageAnalysis            StageName = "analysis"
	StageDuplicateDetection  StageName = "duplicate_detection"
	StageAnalyst             StageName = "analyst"
)

// StageStatus is the per-stage state machine of spec §4.8 ("State machine per stage").
type StageStatus string

const (
	StatusPending       StageStatus = "PENDING"
	StatusProcessing    StageStatus = "PROCESSING"
	StatusSuccess       StageStatus = "SUCCESS"
	StatusFail          StageStatus = "FAIL"
	StatusNotApplicable StageStatus = "NOT_APPLICABLE"
	StatusIncomplete    StageStatus = "INCOMPLETE"
)

// StageProgress tracks one stage's lifecycle on a Record.
type StageProgress struct {
	Status     StageStatus `json:"status"`
	StartedAt  *time.Time  `json:"startedAt,omitempty"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Partner is one member of a CNPJ's QSA (partner roster).
type Partner struct {
	Name   string     `json:"name"`
	TaxID  string     `json:"taxId"`
	Role   string     `json:"role"`
	Since  *time.Time `json:"since,omitempty"`
}

// FiscalRegistration is a state-level tax registration (inscrição estadual).
type FiscalRegistration struct {
	Number  string `json:"number"`
	State   string `json:"state"`
	Status  string `json:"status"`
	Enabled bool   `json:"enabled"`
}

// OpeningHoursWindow is one open/close pair for a single weekday.
type OpeningHoursWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// CPFPartnerRelation is populated when a CPF record's document is found
// in a CNPJ record's partner roster (QSA cross-check, §4.6.6).
type CPFPartnerRelation struct {
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName"`
	CompanyCNPJ string `json:"companyCnpj"`
	PartnerRole string `json:"partnerRole"`
	Since       string `json:"since,omitempty"`
}

// ScoringBreakdown decomposes the potential-score rubric of §4.6.4.1.
type ScoringBreakdown struct {
	RatingScore       int `json:"ratingScore"`
	ReviewCountScore  int `json:"reviewCountScore"`
	PhotosScore       int `json:"photosScore"`
	OpeningHoursScore int `json:"openingHoursScore"`
	WebsiteScore      int `json:"websiteScore"`
	ReviewDensityScore int `json:"reviewDensityScore"`
}

// Record is the central entity mutated through every pipeline stage.
// Per Invariant 1 (spec §3.2), every field below that is not `Document`
// and was sourced only from raw input carries confidence <= 30 in the
// Source Map until an external source corroborates or replaces it.
type Record struct {
	ID            string       `json:"id"`
	Document      string       `json:"document"`
	DocumentKind  DocumentKind `json:"documentKind"`

	// Raw input — untrusted except Document.
	NameRaw    string `json:"nameRaw"`
	AddressRaw string `json:"addressRaw"`
	CityRaw    string `json:"cityRaw"`
	StateRaw   string `json:"stateRaw"`
	PhoneRaw   string `json:"phoneRaw"`
	ZipRaw     string `json:"zipRaw"`

	// Registry-derived (CNPJ).
	LegalName                string               `json:"legalName,omitempty"`
	TradeName                string               `json:"tradeName,omitempty"`
	RegistryAddress          string               `json:"registryAddress,omitempty"`
	RegistryStatus           string               `json:"registryStatus,omitempty"`
	OpeningDate              *time.Time           `json:"openingDate,omitempty"`
	LegalNature              string               `json:"legalNature,omitempty"`
	MainActivity             string               `json:"mainActivity,omitempty"`
	SimplesNacional          bool                 `json:"simplesNacional"`
	MeiOptant                bool                 `json:"meiOptant"`
	FiscalRegistrationStatus string               `json:"fiscalRegistrationStatus,omitempty"`
	Partners                 []Partner            `json:"partners,omitempty"`
	FiscalRegistrations      []FiscalRegistration `json:"fiscalRegistrations,omitempty"`
	Capital                  float64              `json:"capital,omitempty"`
	Size                     string               `json:"size,omitempty"`

	// Registry-derived (CPF).
	CPFName     string     `json:"cpfName,omitempty"`
	CPFStatus   string     `json:"cpfStatus,omitempty"`
	CPFBirth    *time.Time `json:"cpfBirth,omitempty"`
	CPFDeceased bool       `json:"cpfDeceased"`

	// Normalization.
	AddressNormalized        string   `json:"addressNormalized,omitempty"`
	CityNormalized           string   `json:"cityNormalized,omitempty"`
	StateNormalized          string   `json:"stateNormalized,omitempty"`
	NormalizationConfidence  int      `json:"normalizationConfidence"`
	NormalizationSource      string   `json:"normalizationSource,omitempty"`
	NormalizationDivergences []string `json:"normalizationDivergences,omitempty"`

	// Geocoding.
	Lat                         float64 `json:"lat,omitempty"`
	Lng                         float64 `json:"lng,omitempty"`
	FormattedAddress            string  `json:"formattedAddress,omitempty"`
	PlaceHint                   string  `json:"placeHint,omitempty"`
	GeoValidated                bool    `json:"geoValidated"`
	GeoWithinState              bool    `json:"geoWithinState"`
	GeoWithinCity               bool    `json:"geoWithinCity"`
	GeoDistanceToCenterMeters   float64 `json:"geoDistanceToCenterMeters"`
	GeocodingConfidence         int     `json:"geocodingConfidence"`
	GeocodingSource             string  `json:"geocodingSource,omitempty"`
	GeocodingMaxDivergenceMeters float64 `json:"geocodingMaxDivergenceMeters"`

	// Places.
	PlaceID              string                            `json:"placeId,omitempty"`
	EstablishmentType    string                            `json:"establishmentType,omitempty"`
	PlaceTypesPrimary    string                            `json:"placeTypesPrimary,omitempty"`
	Rating               float64                           `json:"rating,omitempty"`
	ReviewCount          int                                `json:"reviewCount,omitempty"`
	OpeningHours         map[string][]OpeningHoursWindow    `json:"openingHours,omitempty"`
	PlacePhone           string                            `json:"placePhone,omitempty"`
	PlaceWebsite         string                            `json:"placeWebsite,omitempty"`
	PhotoRefs            []string                          `json:"photoRefs,omitempty"`
	PlaceNameValidated   bool                              `json:"placeNameValidated"`
	PlaceAddressValidated bool                             `json:"placeAddressValidated"`
	PlaceCrossConfidence int                                `json:"placeCrossConfidence"`
	PlaceCrossMethod     string                            `json:"placeCrossMethod,omitempty"`
	AcceptedByHighAddress bool                             `json:"acceptedByHighAddress,omitempty"`

	// Visual analysis.
	SignageQuality      string          `json:"signageQuality,omitempty"`
	BrandingPresent     bool            `json:"brandingPresent"`
	ProfessionalismLevel string         `json:"professionalismLevel,omitempty"`
	Audience            string          `json:"audience,omitempty"`
	Ambience            string          `json:"ambience,omitempty"`
	VisualIndicators    map[string]any  `json:"visualIndicators,omitempty"`
	VisualAnalysisConfidence int        `json:"visualAnalysisConfidence"`
	AnalysisSourcesAvailable int        `json:"analysisSourcesAvailable"`

	// Scoring.
	PotentialScore    int              `json:"potentialScore"`
	PotentialCategory string           `json:"potentialCategory,omitempty"`
	ScoringBreakdown  ScoringBreakdown `json:"scoringBreakdown"`

	// Typology.
	TypologyCode       string  `json:"typologyCode,omitempty"`
	TypologyName       string  `json:"typologyName,omitempty"`
	TypologyConfidence int     `json:"typologyConfidence,omitempty"`
	TypologyRationale  string  `json:"typologyRationale,omitempty"`

	// Data quality.
	DataQualityScore       int      `json:"dataQualityScore"`
	DataQualityTier        string   `json:"dataQualityTier,omitempty"`
	PopulatedFieldCount    int      `json:"populatedFieldCount"`
	CriticalMissingFields  []string `json:"criticalMissingFields,omitempty"`
	ValidatedSources       []string `json:"validatedSources,omitempty"`

	// Per-stage status.
	Stages map[StageName]StageProgress `json:"stages"`

	// Duplicates.
	DuplicateAddressIDs []string            `json:"duplicateAddressIds,omitempty"`
	DuplicateCount      int                 `json:"duplicateCount"`
	DuplicateAlert      bool                `json:"duplicateAlert"`
	CPFIsPartner        bool                `json:"cpfIsPartner"`
	CPFPartnerRelation  *CPFPartnerRelation `json:"cpfPartnerRelation,omitempty"`

	// Universal confidence.
	ConfidenceOverall  int      `json:"confidenceOverall"`
	ConfidenceCategory string   `json:"confidenceCategory,omitempty"`
	ConfidenceLevel    string   `json:"confidenceLevel,omitempty"`
	NeedsReview        bool     `json:"needsReview"`
	Alerts             []string `json:"alerts,omitempty"`
	Recommendations    []string `json:"recommendations,omitempty"`

	// Analyst verdict.
	AnalystStatus            string     `json:"analystStatus,omitempty"`
	AnalystConfidence        int        `json:"analystConfidence,omitempty"`
	AnalystSummary           string     `json:"analystSummary,omitempty"`
	AnalystCriticalAlerts    []string   `json:"analystCriticalAlerts,omitempty"`
	AnalystSecondaryAlerts   []string   `json:"analystSecondaryAlerts,omitempty"`
	AnalystRecommendations   []string   `json:"analystRecommendations,omitempty"`
	AnalystDivergences       []string   `json:"analystDivergences,omitempty"`
	AnalystProcessedAt       *time.Time `json:"analystProcessedAt,omitempty"`

	// Derived / internal bookkeeping used by cross-validation and the
	// source map without being part of any external contract.
	DocumentValidated  bool `json:"documentValidated"`
	AddressDivergence  bool `json:"addressDivergence"`
	NomeFantasiaMatch  int  `json:"nomeFantasiaMatch"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRecord builds a Record with every stage initialized to PENDING, as
// required by the lifecycle in spec §3.3 ("created on ingest, PENDING
// across all stages").
func NewRecord(id, document string) *Record {
	now := time.Now()
	r := &Record{
		ID:        id,
		Document:  document,
		CreatedAt: now,
		UpdatedAt: now,
		Stages:    make(map[StageName]StageProgress, 7),
	}
	for _, s := range []StageName{
		StageDocLookup, StageNormalization, StageGeocoding, StagePlaces,
		StageAnalysis, StageDuplicateDetection, StageAnalyst,
	} {
		r.Stages[s] = StageProgress{Status: StatusPending}
	}
	return r
}

// StageStatus returns the current status of a stage, defaulting to
// PENDING for stages that have not been initialized yet.
func (r *Record) StageStatus(s StageName) StageStatus {
	if p, ok := r.Stages[s]; ok {
		return p.Status
	}
	return StatusPending
}
