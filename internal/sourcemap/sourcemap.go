// Package sourcemap builds the Source Map / Trust Registry (C3): a pure
// function from a Record to a per-field provenance map used by the
// confidence aggregator and the analyst stage. It is recomputed on
// demand and never persisted (§4.3).
package sourcemap

import (
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

// Origin identifies which provider last wrote a field.
type Origin string

const (
	OriginInput          Origin = "INPUT"
	OriginCNPJRegistry    Origin = "CNPJ_REGISTRY"
	OriginCPFRegistry     Origin = "CPF_REGISTRY"
	OriginGeocoderA       Origin = "GEOCODER_A"
	OriginGeocoderB       Origin = "GEOCODER_B"
	OriginPlaces          Origin = "PLACES"
	OriginVisionLLM       Origin = "VISION_LLM"
	OriginCrossValidated  Origin = "CROSS_VALIDATED"
)

var baselineConfidence = map[Origin]int{
	OriginInput:         30,
	OriginCNPJRegistry:  95,
	OriginCPFRegistry:   95,
	OriginGeocoderA:     90,
	OriginGeocoderB:     85,
	OriginPlaces:        85,
	OriginVisionLLM:     75,
	OriginCrossValidated: 100,
}

// FieldOrigin is one row of the Source Map (§4.3).
type FieldOrigin struct {
	Field           string `json:"field"`
	Label           string `json:"label"`
	Value           any    `json:"value"`
	Source          Origin `json:"source"`
	SecondarySource Origin `json:"secondarySource,omitempty"`
	Confidence      int    `json:"confidence"`
	Validated       bool   `json:"validated"`
	Divergence      string `json:"divergence,omitempty"`
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// crossValidatedBonus applies the +5/+10 bonus of §4.3, capped at 100.
// A strongly corroborated field (two independent non-input sources
// agreeing, e.g. both geocoders within 50m) gets +10; a single
// corroboration gets +5.
func crossValidatedBonus(base int, strong bool) int {
	if strong {
		return clamp(base + 10)
	}
	return clamp(base + 5)
}

// field builds one FieldOrigin entry. divergence, when non-empty,
// triggers the -10 disagreement penalty described in §4.3.
func field(name, label string, value any, source Origin, secondary Origin, confidence int, validated bool, divergence string) FieldOrigin {
	if divergence != "" {
		confidence = clamp(confidence - 10)
	}
	return FieldOrigin{
		Field: name, Label: label, Value: value,
		Source: source, SecondarySource: secondary,
		Confidence: clamp(confidence), Validated: validated, Divergence: divergence,
	}
}

// Build constructs the full Source Map for a Record. It is a pure
// function: calling it twice on an unchanged Record yields identical
// output.
func Build(r *models.Record) map[string]FieldOrigin {
	m := make(map[string]FieldOrigin, 32)

	m["document"] = buildDocumentField(r)

	m["nameRaw"] = field("nameRaw", "Raw establishment name", r.NameRaw, OriginInput, "", baselineConfidence[OriginInput], false, "")

	if r.LegalName != "" {
		m["legalName"] = field("legalName", "Legal name", r.LegalName, OriginCNPJRegistry, "", baselineConfidence[OriginCNPJRegistry], true, "")
	}
	if r.TradeName != "" {
		m["tradeName"] = field("tradeName", "Trade name", r.TradeName, OriginCNPJRegistry, "", baselineConfidence[OriginCNPJRegistry], true, "")
	}

	if r.AddressNormalized != "" {
		src := Origin(r.NormalizationSource)
		if src == "" {
			src = OriginInput
		}
		divergence := ""
		if len(r.NormalizationDivergences) > 0 {
			divergence = r.NormalizationDivergences[0]
		}
		conf := r.NormalizationConfidence
		if src == OriginCrossValidated {
			conf = crossValidatedBonus(conf, true)
		}
		m["addressNormalized"] = field("addressNormalized", "Normalized address", r.AddressNormalized, src, "", conf, src != OriginInput, divergence)
	}

	if r.Lat != 0 || r.Lng != 0 {
		src := Origin(r.GeocodingSource)
		if src == "" {
			src = OriginGeocoderA
		}
		divergence := ""
		if r.AddressDivergence {
			divergence = "geocoded coordinates diverge from declared address"
		}
		m["coordinates"] = field("coordinates", "Geocoded coordinates", []float64{r.Lat, r.Lng}, src, OriginGeocoderB, r.GeocodingConfidence, r.GeoValidated, divergence)
	}

	if r.PlaceID != "" {
		divergence := ""
		if !r.PlaceNameValidated || !r.PlaceAddressValidated {
			divergence = "places result only partially corroborated"
		}
		m["placeId"] = field("placeId", "Places identifier", r.PlaceID, OriginPlaces, "", r.PlaceCrossConfidence, r.PlaceNameValidated && r.PlaceAddressValidated, divergence)
	}

	if r.VisualAnalysisConfidence > 0 {
		validated := r.AnalysisSourcesAvailable >= 2
		conf := r.VisualAnalysisConfidence
		if validated {
			conf = crossValidatedBonus(conf, r.AnalysisSourcesAvailable >= 3)
		}
		m["visualAnalysis"] = field("visualAnalysis", "Visual analysis", r.SignageQuality, OriginVisionLLM, "", conf, validated, "")
	}

	if r.NomeFantasiaMatch > 0 {
		m["nomeFantasiaMatch"] = field("nomeFantasiaMatch", "Trade-name match", r.NomeFantasiaMatch, OriginCrossValidated, "", r.NomeFantasiaMatch, r.NomeFantasiaMatch >= 70, "")
	}

	return m
}

// buildDocumentField implements the distinguished document trust rule of
// §4.3: trusted at 100 once the digit count matches and the registry
// confirmed it, or 100 by fiat (with documentValidated unset) before a
// registry result exists.
func buildDocumentField(r *models.Record) FieldOrigin {
	fo := field("document", "Tax document", r.Document, OriginInput, "", 100, r.DocumentValidated, "")
	return fo
}
