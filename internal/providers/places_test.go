package providers

import (
	"context"
	"testing"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
)

func TestWeekdayName_ValidRange(t *testing.T) {
	tests := []struct {
		day  int
		want string
	}{
		{0, "sunday"},
		{1, "monday"},
		{6, "saturday"},
	}
	for _, tt := range tests {
		if got := weekdayName(tt.day); got != tt.want {
			t.Errorf("weekdayName(%d) = %q, want %q", tt.day, got, tt.want)
		}
	}
}

func TestWeekdayName_OutOfRange(t *testing.T) {
	if got := weekdayName(-1); got != "unknown" {
		t.Errorf("weekdayName(-1) = %q, want unknown", got)
	}
	if got := weekdayName(7); got != "unknown" {
		t.Errorf("weekdayName(7) = %q, want unknown", got)
	}
}

func TestPlacesClient_NoAPIKeyIsConfigMissing(t *testing.T) {
	p, err := NewPlacesClient("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res := p.Nearby(context.Background(), "", -23.5, -46.6, "padaria"); res.Ok || res.Err.Kind != apperr.ConfigMissing {
		t.Errorf("Nearby result = %+v, want ConfigMissing failure", res)
	}
	if res := p.Text(context.Background(), "padaria sao paulo"); res.Ok || res.Err.Kind != apperr.ConfigMissing {
		t.Errorf("Text result = %+v, want ConfigMissing failure", res)
	}
	if res := p.FetchPhoto(context.Background(), "ref123"); res.Ok || res.Err.Kind != apperr.ConfigMissing {
		t.Errorf("FetchPhoto result = %+v, want ConfigMissing failure", res)
	}
}
