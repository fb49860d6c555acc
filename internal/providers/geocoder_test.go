package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
)

func TestGeocoderA_NoAPIKeyIsConfigMissing(t *testing.T) {
	g, err := NewGeocoderA("")
	if err != nil {
		t.Fatalf("unexpected error constructing with no key: %v", err)
	}
	res := g.Geocode(context.Background(), "Av Paulista 1000", "Sao Paulo", "SP", "")
	if res.Ok {
		t.Fatal("expected failure with no API key")
	}
	if res.Err.Kind != apperr.ConfigMissing {
		t.Errorf("Kind = %v, want ConfigMissing", res.Err.Kind)
	}
}

func TestGeocoderB_DefaultsToNominatimWhenBaseURLEmpty(t *testing.T) {
	g := NewGeocoderB("", http.DefaultClient)
	if g.baseURL != "https://nominatim.openstreetmap.org" {
		t.Errorf("baseURL = %q, want the default nominatim host", g.baseURL)
	}
}

func TestGeocoderB_Geocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"-23.5613","lon":"-46.6565","display_name":"Av Paulista, Sao Paulo"}]`))
	}))
	defer srv.Close()

	g := NewGeocoderB(srv.URL, http.DefaultClient)
	res := g.Geocode(context.Background(), "Av Paulista 1000", "Sao Paulo", "SP")
	if !res.Ok {
		t.Fatalf("expected success, got error: %v", res.Err)
	}
	if res.Value.Lat != -23.5613 || res.Value.Lng != -46.6565 {
		t.Errorf("Lat/Lng = %v/%v, want -23.5613/-46.6565", res.Value.Lat, res.Value.Lng)
	}
}

func TestGeocoderB_Geocode_NoResultsIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewGeocoderB(srv.URL, http.DefaultClient)
	res := g.Geocode(context.Background(), "Nowhere", "Nowhere", "XX")
	if res.Ok {
		t.Fatal("expected failure for an empty result set")
	}
	if res.Err.Kind != apperr.NotFound {
		t.Errorf("Kind = %v, want NotFound", res.Err.Kind)
	}
}

func TestGeocoderB_Geocode_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGeocoderB(srv.URL, http.DefaultClient)
	res := g.Geocode(context.Background(), "x", "y", "z")
	if res.Ok {
		t.Fatal("expected failure on 429")
	}
	if res.Err.Kind != apperr.RateLimited {
		t.Errorf("Kind = %v, want RateLimited", res.Err.Kind)
	}
}

func TestClassifyMapsError_RateLimited(t *testing.T) {
	err := classifyMapsError(errors.New("googleapi: Error 429: OVER_QUERY_LIMIT"), "geocoder-a")
	if err.Kind != apperr.RateLimited {
		t.Errorf("Kind = %v, want RateLimited", err.Kind)
	}
}

func TestClassifyMapsError_AuthExpired(t *testing.T) {
	err := classifyMapsError(errors.New("REQUEST_DENIED: invalid API key"), "geocoder-a")
	if err.Kind != apperr.AuthExpired {
		t.Errorf("Kind = %v, want AuthExpired", err.Kind)
	}
}

func TestClassifyMapsError_NotFound(t *testing.T) {
	err := classifyMapsError(errors.New("ZERO_RESULTS"), "geocoder-a")
	if err.Kind != apperr.NotFound {
		t.Errorf("Kind = %v, want NotFound", err.Kind)
	}
}

func TestClassifyMapsError_DefaultsToTransient(t *testing.T) {
	err := classifyMapsError(errors.New("connection reset by peer"), "geocoder-a")
	if err.Kind != apperr.TransientNetwork {
		t.Errorf("Kind = %v, want TransientNetwork", err.Kind)
	}
}

func TestContainsAny(t *testing.T) {
	if !containsAny("status 429 rate limited", "429") {
		t.Error("expected match on 429")
	}
	if containsAny("all good", "429", "403") {
		t.Error("expected no match")
	}
}
