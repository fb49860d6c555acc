package cache

import "testing"

func TestAnalysisCacheKey_CompositeOfAllThreeParts(t *testing.T) {
	key := AnalysisCacheKey("abc123", "v2", "precheck")
	want := "abc123|v2|precheck"
	if key != want {
		t.Errorf("AnalysisCacheKey = %q, want %q", key, want)
	}
}

func TestAnalysisCacheKey_DistinguishesDifferentModels(t *testing.T) {
	a := AnalysisCacheKey("abc123", "v2", "precheck")
	b := AnalysisCacheKey("abc123", "v2", "deep")
	if a == b {
		t.Error("expected different model IDs to produce different cache keys")
	}
}
