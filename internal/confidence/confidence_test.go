package confidence

import "testing"

func fullWeights() Weights {
	return Weights{
		Normalization:  0.15,
		Geocoding:      0.25,
		PlaceCross:     0.25,
		VisualAnalysis: 0.15,
		NomeFantasia:   0.10,
		Document:       0.10,
	}
}

func baseInputs() Inputs {
	return Inputs{
		NormalizationConfidence:  90,
		GeocodingConfidence:      90,
		PlaceCrossConfidence:     90,
		VisualAnalysisConfidence: 90,
		NomeFantasiaMatch:        90,
		DocumentValidated:        true,
		GeoWithinState:           true,
		AnalysisSourcesAvailable: 2,
		RegistryStatus:           "ACTIVE",
	}
}

func TestAggregate_Monotonic(t *testing.T) {
	w := fullWeights()
	low := baseInputs()
	low.NormalizationConfidence = 40

	high := baseInputs()
	high.NormalizationConfidence = 95

	lowResult := Aggregate(low, w)
	highResult := Aggregate(high, w)

	if highResult.Overall <= lowResult.Overall {
		t.Errorf("expected increasing normalization confidence to raise Overall: low=%d high=%d", lowResult.Overall, highResult.Overall)
	}
}

func TestAggregate_CategoryThresholds(t *testing.T) {
	tests := []struct {
		name         string
		overallInput int
		wantCategory string
		wantLevel    string
	}{
		{"excellent", 95, "EXCELLENT", "GREEN"},
		{"high", 75, "HIGH", "YELLOW"},
		{"medium", 55, "MEDIUM", "ORANGE"},
		{"low", 20, "LOW", "RED"},
	}

	w := Weights{Normalization: 1}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Inputs{
				NormalizationConfidence:  tt.overallInput,
				DocumentValidated:        true,
				GeoWithinState:           true,
				AnalysisSourcesAvailable: 2,
				RegistryStatus:           "ACTIVE",
			}
			res := Aggregate(in, w)
			if res.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q (overall=%d)", res.Category, tt.wantCategory, res.Overall)
			}
			if res.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", res.Level, tt.wantLevel)
			}
		})
	}
}

func TestAggregate_InactiveRegistryForcesReviewAndCritical(t *testing.T) {
	in := baseInputs()
	in.RegistryStatus = "SUSPENDED"

	res := Aggregate(in, fullWeights())

	if !res.NeedsReview {
		t.Error("expected NeedsReview to be true when registry status is not ACTIVE")
	}
	found := false
	for _, a := range res.Alerts {
		if a == "CRITICAL: registry status is not ACTIVE" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a CRITICAL registry alert, got %v", res.Alerts)
	}
}

func TestAggregate_GeoOutsideStatePenalizesAndAlerts(t *testing.T) {
	within := baseInputs()
	outside := baseInputs()
	outside.GeoWithinState = false

	withinResult := Aggregate(within, fullWeights())
	outsideResult := Aggregate(outside, fullWeights())

	if outsideResult.Overall >= withinResult.Overall {
		t.Errorf("expected geo-outside-state to lower Overall: within=%d outside=%d", withinResult.Overall, outsideResult.Overall)
	}
	if len(outsideResult.Alerts) == 0 {
		t.Error("expected at least one alert when geo falls outside the declared state")
	}
}

func TestAggregate_ZeroWeightsDoNotDivideByZero(t *testing.T) {
	res := Aggregate(baseInputs(), Weights{})
	if res.Overall < 0 || res.Overall > 100 {
		t.Errorf("Overall out of range with zero weights: %d", res.Overall)
	}
}
