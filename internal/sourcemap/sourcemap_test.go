package sourcemap

import (
	"testing"

	"github.com/catalogforge/enrichment-engine/pkg/models"
)

func TestClamp_BoundsToZeroAndHundred(t *testing.T) {
	if got := clamp(-5); got != 0 {
		t.Errorf("clamp(-5) = %d, want 0", got)
	}
	if got := clamp(150); got != 100 {
		t.Errorf("clamp(150) = %d, want 100", got)
	}
	if got := clamp(50); got != 50 {
		t.Errorf("clamp(50) = %d, want 50", got)
	}
}

func TestCrossValidatedBonus_StrongVsWeak(t *testing.T) {
	if got := crossValidatedBonus(80, true); got != 90 {
		t.Errorf("strong bonus = %d, want 90", got)
	}
	if got := crossValidatedBonus(80, false); got != 85 {
		t.Errorf("weak bonus = %d, want 85", got)
	}
	if got := crossValidatedBonus(95, true); got != 100 {
		t.Errorf("strong bonus should clamp at 100, got %d", got)
	}
}

func TestField_DivergencePenalizesConfidence(t *testing.T) {
	fo := field("x", "X", "v", OriginGeocoderA, "", 90, true, "disagreement")
	if fo.Confidence != 80 {
		t.Errorf("Confidence = %d, want 80 after -10 divergence penalty", fo.Confidence)
	}
	if fo.Divergence != "disagreement" {
		t.Errorf("Divergence = %q, want preserved", fo.Divergence)
	}
}

func TestBuild_AlwaysIncludesDocumentAndNameRaw(t *testing.T) {
	r := models.NewRecord("rec-1", "14200166000151")
	r.NameRaw = "Padaria do Ze"

	m := Build(r)
	if _, ok := m["document"]; !ok {
		t.Error("expected a document entry")
	}
	if _, ok := m["nameRaw"]; !ok {
		t.Error("expected a nameRaw entry")
	}
	if _, ok := m["legalName"]; ok {
		t.Error("did not expect a legalName entry when LegalName is empty")
	}
}

func TestBuild_PopulatesCoordinatesWhenGeocoded(t *testing.T) {
	r := models.NewRecord("rec-2", "14200166000151")
	r.Lat, r.Lng = -23.5, -46.6
	r.GeocodingSource = "GEOCODER_B"
	r.GeocodingConfidence = 90
	r.GeoValidated = true

	m := Build(r)
	coords, ok := m["coordinates"]
	if !ok {
		t.Fatal("expected a coordinates entry")
	}
	if coords.Source != OriginGeocoderB {
		t.Errorf("Source = %q, want GEOCODER_B", coords.Source)
	}
	if !coords.Validated {
		t.Error("expected coordinates to be marked validated")
	}
}

func TestBuild_FlagsAddressDivergence(t *testing.T) {
	r := models.NewRecord("rec-3", "14200166000151")
	r.Lat, r.Lng = -23.5, -46.6
	r.AddressDivergence = true

	m := Build(r)
	coords := m["coordinates"]
	if coords.Divergence == "" {
		t.Error("expected a divergence note when AddressDivergence is set")
	}
}

func TestBuild_VisualAnalysisCrossValidatedBonus(t *testing.T) {
	r := models.NewRecord("rec-4", "14200166000151")
	r.VisualAnalysisConfidence = 80
	r.AnalysisSourcesAvailable = 3

	m := Build(r)
	va, ok := m["visualAnalysis"]
	if !ok {
		t.Fatal("expected a visualAnalysis entry")
	}
	if va.Confidence != 90 {
		t.Errorf("Confidence = %d, want 90 (strong bonus at 3+ sources)", va.Confidence)
	}
	if !va.Validated {
		t.Error("expected Validated=true with 2+ analysis sources")
	}
}

func TestBuildDocumentField_ReflectsValidationFlag(t *testing.T) {
	r := models.NewRecord("rec-5", "14200166000151")
	r.DocumentValidated = true

	fo := buildDocumentField(r)
	if !fo.Validated {
		t.Error("expected Validated=true when DocumentValidated is set")
	}
	if fo.Confidence != 100 {
		t.Errorf("Confidence = %d, want 100", fo.Confidence)
	}
}
