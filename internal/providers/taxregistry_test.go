package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
)

func TestTaxRegistryClient_Lookup_MissingAPIKeyIsConfigMissing(t *testing.T) {
	c := NewTaxRegistryClient("http://example.invalid", "", time.Second)
	res := c.Lookup(context.Background(), "14200166000151")
	if res.Ok {
		t.Fatal("expected failure when no API key is configured")
	}
	if res.Err.Kind != apperr.ConfigMissing {
		t.Errorf("Kind = %v, want ConfigMissing", res.Err.Kind)
	}
}

func TestTaxRegistryClient_Lookup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing or wrong Authorization header: %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(TaxRegistryLookup{LegalName: "Example LTDA", Status: "ACTIVE"})
	}))
	defer srv.Close()

	c := NewTaxRegistryClient(srv.URL, "test-key", 5*time.Second)
	res := c.Lookup(context.Background(), "14200166000151")
	if !res.Ok {
		t.Fatalf("expected success, got error: %v", res.Err)
	}
	if res.Value.LegalName != "Example LTDA" {
		t.Errorf("LegalName = %q, want Example LTDA", res.Value.LegalName)
	}
}

func TestTaxRegistryClient_Lookup_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewTaxRegistryClient(srv.URL, "test-key", 5*time.Second)
	res := c.Lookup(context.Background(), "14200166000151")
	if res.Ok {
		t.Fatal("expected failure on 404")
	}
	if res.Err.Kind != apperr.NotFound {
		t.Errorf("Kind = %v, want NotFound", res.Err.Kind)
	}
}

func TestTaxRegistryClient_Lookup_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewTaxRegistryClient(srv.URL, "test-key", 5*time.Second)
	res := c.Lookup(context.Background(), "14200166000151")
	if res.Ok {
		t.Fatal("expected failure on 429")
	}
	if res.Err.Kind != apperr.RateLimited {
		t.Errorf("Kind = %v, want RateLimited", res.Err.Kind)
	}
}

func TestTaxRegistryClient_Lookup_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewTaxRegistryClient(srv.URL, "test-key", 5*time.Second)
	res := c.Lookup(context.Background(), "14200166000151")
	if res.Ok {
		t.Fatal("expected failure on 502")
	}
	if res.Err.Kind != apperr.TransientNetwork {
		t.Errorf("Kind = %v, want TransientNetwork", res.Err.Kind)
	}
}

func TestTaxRegistryClient_Lookup_UnauthorizedIsAuthExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewTaxRegistryClient(srv.URL, "test-key", 5*time.Second)
	res := c.Lookup(context.Background(), "14200166000151")
	if res.Ok {
		t.Fatal("expected failure on 401")
	}
	if res.Err.Kind != apperr.AuthExpired {
		t.Errorf("Kind = %v, want AuthExpired", res.Err.Kind)
	}
}
