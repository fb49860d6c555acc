// Package confidence implements the Universal Confidence aggregator
// (C9): a pure, deterministic function of a Record's per-stage
// confidences and validation flags (§4.8).
package confidence

import "github.com/catalogforge/enrichment-engine/pkg/models"

// Weights is the configurable weight vector of the weighted-average
// formula. Defaults come from internal/config.
type Weights struct {
	Normalization  float64
	Geocoding      float64
	PlaceCross     float64
	VisualAnalysis float64
	NomeFantasia   float64
	Document       float64
}

// Inputs is everything the aggregator reads from a Record, pulled out
// explicitly so the function stays a pure transform and is easy to unit
// test without constructing a full Record.
type Inputs struct {
	NormalizationConfidence  int
	GeocodingConfidence      int
	PlaceCrossConfidence     int
	VisualAnalysisConfidence int
	NomeFantasiaMatch        int
	DocumentValidated        bool

	GeoWithinState           bool
	DuplicateAlert           bool
	RegistryStatus           string
	AnalysisSourcesAvailable int
}

// Result is the aggregator's output, persisted verbatim onto the record.
type Result struct {
	Overall         int
	Category        string
	Level           string
	NeedsReview     bool
	Alerts          []string
	Recommendations []string
}

func InputsFromRecord(r *models.Record) Inputs {
	return Inputs{
		NormalizationConfidence:  r.NormalizationConfidence,
		GeocodingConfidence:      r.GeocodingConfidence,
		PlaceCrossConfidence:     r.PlaceCrossConfidence,
		VisualAnalysisConfidence: r.VisualAnalysisConfidence,
		NomeFantasiaMatch:        r.NomeFantasiaMatch,
		DocumentValidated:        r.DocumentValidated,
		GeoWithinState:           r.GeoWithinState,
		DuplicateAlert:           r.DuplicateAlert,
		RegistryStatus:           r.RegistryStatus,
		AnalysisSourcesAvailable: r.AnalysisSourcesAvailable,
	}
}

func clamp(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v + 0.5)
}

// Aggregate computes the Universal Confidence per §4.8. It is invoked
// with every other input held fixed except for increasing confidence
// values — callers relying on P6 (monotonicity) must not also flip an
// adjust-flag between calls.
func Aggregate(in Inputs, w Weights) Result {
	documentScore := 30.0
	if in.DocumentValidated {
		documentScore = 100
	}

	totalWeight := w.Normalization + w.Geocoding + w.PlaceCross + w.VisualAnalysis + w.NomeFantasia + w.Document
	if totalWeight == 0 {
		totalWeight = 1
	}

	base := (float64(in.NormalizationConfidence)*w.Normalization +
		float64(in.GeocodingConfidence)*w.Geocoding +
		float64(in.PlaceCrossConfidence)*w.PlaceCross +
		float64(in.VisualAnalysisConfidence)*w.VisualAnalysis +
		float64(in.NomeFantasiaMatch)*w.NomeFantasia +
		documentScore*w.Document) / totalWeight

	if !in.GeoWithinState {
		base -= 10
	}
	if in.DuplicateAlert {
		base -= 5
	}
	if in.RegistryStatus != "" && in.RegistryStatus != "ACTIVE" {
		base -= 20
	}
	if in.AnalysisSourcesAvailable < 2 {
		base -= 5
	}

	overall := clamp(base)

	var category, level string
	switch {
	case overall >= 85:
		category, level = "EXCELLENT", "GREEN"
	case overall >= 70:
		category, level = "HIGH", "YELLOW"
	case overall >= 50:
		category, level = "MEDIUM", "ORANGE"
	default:
		category, level = "LOW", "RED"
	}

	alerts, recommendations := rules(in, overall, level)
	needsReview := level == "ORANGE" || level == "RED" || hasCritical(alerts)

	return Result{
		Overall:         overall,
		Category:        category,
		Level:           level,
		NeedsReview:     needsReview,
		Alerts:          alerts,
		Recommendations: recommendations,
	}
}

func hasCritical(alerts []string) bool {
	for _, a := range alerts {
		if len(a) >= 9 && a[:9] == "CRITICAL:" {
			return true
		}
	}
	return false
}

// rules is the fixed alert/recommendation table driven by the same
// flags the adjust step reads (§4.8).
func rules(in Inputs, overall int, level string) (alerts, recommendations []string) {
	if !in.GeoWithinState {
		alerts = append(alerts, "WARNING: geocoded point falls outside the declared state")
		recommendations = append(recommendations, "Manually confirm the establishment's location")
	}
	if in.DuplicateAlert {
		alerts = append(alerts, "WARNING: record shares an address with another establishment")
	}
	if in.RegistryStatus != "" && in.RegistryStatus != "ACTIVE" {
		alerts = append(alerts, "CRITICAL: registry status is not ACTIVE")
		recommendations = append(recommendations, "Verify the establishment is still operating before approval")
	}
	if in.AnalysisSourcesAvailable < 2 {
		recommendations = append(recommendations, "Collect photos from a second independent source for visual cross-validation")
	}
	if !in.DocumentValidated {
		alerts = append(alerts, "WARNING: tax document not yet confirmed by a registry")
	}
	if level == "RED" {
		recommendations = append(recommendations, "Route to manual review before any commercial action")
	}
	return alerts, recommendations
}
