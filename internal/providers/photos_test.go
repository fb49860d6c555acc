package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
)

func TestIsSupportedImageType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/webp", true},
		{"image/gif", false},
		{"text/html", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isSupportedImageType(tt.contentType); got != tt.want {
			t.Errorf("isSupportedImageType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestPhotoFetcher_Fetch_SuccessComputesHash(t *testing.T) {
	body := []byte("fake-jpeg-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(body)
	}))
	defer srv.Close()

	f := NewPhotoFetcher(http.DefaultClient, nil)
	res := f.Fetch(context.Background(), srv.URL)
	if !res.Ok {
		t.Fatalf("expected success, got error: %v", res.Err)
	}
	sum := sha256.Sum256(body)
	want := hex.EncodeToString(sum[:])
	if res.Value.Hash != want {
		t.Errorf("Hash = %q, want %q", res.Value.Hash, want)
	}
}

func TestPhotoFetcher_Fetch_UnsupportedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := NewPhotoFetcher(http.DefaultClient, nil)
	res := f.Fetch(context.Background(), srv.URL)
	if res.Ok {
		t.Fatal("expected failure for an unsupported content type")
	}
	if res.Err.Kind != apperr.ImageFormatInvalid {
		t.Errorf("Kind = %v, want ImageFormatInvalid", res.Err.Kind)
	}
}

func TestPhotoFetcher_Fetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewPhotoFetcher(http.DefaultClient, nil)
	res := f.Fetch(context.Background(), srv.URL)
	if res.Ok {
		t.Fatal("expected failure on 404")
	}
	if res.Err.Kind != apperr.NotFound {
		t.Errorf("Kind = %v, want NotFound", res.Err.Kind)
	}
}
