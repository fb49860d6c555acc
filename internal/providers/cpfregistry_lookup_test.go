package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCPFRegistryClient_Lookup_NoCredentialsNoFallbackUsesChecksum(t *testing.T) {
	c := NewCPFRegistryClient("", "", "", "", "", time.Second, 3)
	res := c.Lookup(context.Background(), "11144477735")
	if !res.Ok {
		t.Fatalf("expected a validation-only success, got error: %v", res.Err)
	}
	if !res.Value.ValidationOnly {
		t.Error("expected ValidationOnly=true when no registry is reachable")
	}
}

func TestCPFRegistryClient_Lookup_NoCredentialsInvalidChecksumFails(t *testing.T) {
	c := NewCPFRegistryClient("", "", "", "", "", time.Second, 3)
	res := c.Lookup(context.Background(), "11144477730")
	if res.Ok {
		t.Fatal("expected failure for a CPF with an invalid checksum and no registry")
	}
}

func TestCPFRegistryClient_Lookup_FallbackServerSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(CPFLookup{Name: "Jane Doe", Status: "REGULAR"})
	}))
	defer srv.Close()

	c := NewCPFRegistryClient("", srv.URL, "", "", "", time.Second, 3)
	res := c.Lookup(context.Background(), "11144477735")
	if !res.Ok {
		t.Fatalf("expected success, got error: %v", res.Err)
	}
	if res.Value.Name != "Jane Doe" {
		t.Errorf("Name = %q, want Jane Doe", res.Value.Name)
	}
}
