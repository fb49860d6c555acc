package crossvalidate

import "testing"

func TestHaversineMeters_SamePoint(t *testing.T) {
	d := HaversineMeters(-23.5505, -46.6333, -23.5505, -46.6333)
	if d != 0 {
		t.Errorf("HaversineMeters(same point) = %.2f, want 0", d)
	}
}

func TestHaversineMeters_KnownDistance(t *testing.T) {
	// São Paulo to Rio de Janeiro city centers, roughly 360km apart.
	d := HaversineMeters(-23.5505, -46.6333, -22.9068, -43.1729)
	if d < 300000 || d > 400000 {
		t.Errorf("HaversineMeters(SP, RJ) = %.0fm, want roughly 300000-400000", d)
	}
}

func TestResolveCoordinates_BothPresentClose(t *testing.T) {
	res := ResolveCoordinates(-23.5505, -46.6333, true, -23.5506, -46.6334, true, BoundingBox{})
	if res.Source != CoordinateSourceA || res.Confidence != 100 || res.Divergence {
		t.Errorf("unexpected result for close points: %+v", res)
	}
}

func TestResolveCoordinates_BothPresentFarOutsideState(t *testing.T) {
	box, ok := StateBoundingBox("SP")
	if !ok {
		t.Fatal("expected SP bounding box to exist")
	}
	// Geocoder A lands in Rio, far from SP's box; Geocoder B lands in SP.
	res := ResolveCoordinates(-22.9068, -43.1729, true, -23.5505, -46.6333, true, box)
	if res.Source != CoordinateSourceB || !res.Divergence {
		t.Errorf("expected fallback to Geocoder B when A falls outside the state box: %+v", res)
	}
}

func TestResolveCoordinates_OnlyOnePresent(t *testing.T) {
	res := ResolveCoordinates(-23.5505, -46.6333, true, 0, 0, false, BoundingBox{})
	if res.Source != CoordinateSourceA || res.Confidence != 90 {
		t.Errorf("unexpected result for geocoder-A-only: %+v", res)
	}
}

func TestResolveCoordinates_NeitherPresent(t *testing.T) {
	res := ResolveCoordinates(0, 0, false, 0, 0, false, BoundingBox{})
	if res.Source != "" || res.Confidence != 0 {
		t.Errorf("expected zero-value result when neither point is available: %+v", res)
	}
}

func TestStateBoundingBox_UnknownCode(t *testing.T) {
	if _, ok := StateBoundingBox("XX"); ok {
		t.Error("expected ok=false for an unrecognized state code")
	}
}
