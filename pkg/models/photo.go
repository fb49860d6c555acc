package models

import "time"

// PhotoCategory is the visual classification assigned by the vision
// cross-validation engine (§4.4.4).
type PhotoCategory string

const (
	PhotoFacade   PhotoCategory = "FACADE"
	PhotoInterior PhotoCategory = "INTERIOR"
	PhotoProduct  PhotoCategory = "PRODUCT"
	PhotoMenu     PhotoCategory = "MENU"
	PhotoOther    PhotoCategory = "OTHER"
)

// Photo belongs to exactly one Record (Invariant 8, §3.2). Either
// FileName points into local photo storage or ExternalRef is used to
// re-fetch the bytes from the Places provider on demand (§6.3).
type Photo struct {
	ID                string         `json:"id"`
	RecordID          string         `json:"recordId"`
	FileName          string         `json:"fileName,omitempty"`
	ExternalRef       string         `json:"externalRef,omitempty"`
	Ordinal           int            `json:"ordinal"`
	Category          PhotoCategory  `json:"category,omitempty"`
	CategoryConfidence int           `json:"categoryConfidence"`
	FileHash          string         `json:"fileHash,omitempty"`
	AnalyzedByAI      bool           `json:"analyzedByAI"`
	AnalysisResult    map[string]any `json:"analysisResult,omitempty"`
	AnalyzedAt        *time.Time     `json:"analyzedAt,omitempty"`
}
