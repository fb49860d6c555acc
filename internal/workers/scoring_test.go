package workers

import (
	"testing"
	"time"

	"github.com/catalogforge/enrichment-engine/pkg/models"
)

func TestScorePotential_EmptyRecordIsLowCategory(t *testing.T) {
	r := &models.Record{}
	total, category, breakdown := scorePotential(r, 0)
	if total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
	if category != "LOW" {
		t.Errorf("category = %q, want LOW", category)
	}
	if breakdown.RatingScore != 0 || breakdown.PhotosScore != 0 {
		t.Errorf("unexpected non-zero sub-scores: %+v", breakdown)
	}
}

func TestScorePotential_StrongRecordIsHighCategory(t *testing.T) {
	opened := time.Now().AddDate(-3, 0, 0)
	r := &models.Record{
		Rating:       5.0,
		ReviewCount:  300,
		PlaceWebsite: "https://example.com",
		OpeningDate:  &opened,
		OpeningHours: map[string][]models.OpeningHoursWindow{
			"monday":    {{Open: "0800", Close: "1800"}},
			"tuesday":   {{Open: "0800", Close: "1800"}},
			"wednesday": {{Open: "0800", Close: "1800"}},
			"thursday":  {{Open: "0800", Close: "1800"}},
			"friday":    {{Open: "0800", Close: "1800"}},
		},
	}
	total, category, _ := scorePotential(r, 10)
	if category != "HIGH" {
		t.Errorf("category = %q, want HIGH (total=%d)", category, total)
	}
	if total < 50 {
		t.Errorf("total = %d, want >= 50", total)
	}
}

func TestRatingScore_ClampedToFifteen(t *testing.T) {
	if got := ratingScore(5.0); got != 15 {
		t.Errorf("ratingScore(5.0) = %d, want 15", got)
	}
	if got := ratingScore(0); got != 0 {
		t.Errorf("ratingScore(0) = %d, want 0", got)
	}
}

func TestReviewCountScore_Buckets(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 0},
		{5, 3},
		{10, 3},
		{50, 6},
		{200, 10},
		{201, 14},
	}
	for _, tt := range tests {
		if got := reviewCountScore(tt.count); got != tt.want {
			t.Errorf("reviewCountScore(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestPhotosScore_Buckets(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 0},
		{3, 4},
		{7, 8},
		{8, 10},
	}
	for _, tt := range tests {
		if got := photosScore(tt.count); got != tt.want {
			t.Errorf("photosScore(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestOpeningHoursScore_EmptyIsZero(t *testing.T) {
	if got := openingHoursScore(nil); got != 0 {
		t.Errorf("openingHoursScore(nil) = %d, want 0", got)
	}
}

func TestOpeningHoursScore_CappedAtTen(t *testing.T) {
	hours := map[string][]models.OpeningHoursWindow{}
	for _, day := range []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"} {
		hours[day] = []models.OpeningHoursWindow{{Open: "0000", Close: "2359"}}
	}
	if got := openingHoursScore(hours); got != 10 {
		t.Errorf("openingHoursScore = %d, want capped at 10", got)
	}
}

func TestWindowHours_HandlesOvernightWrap(t *testing.T) {
	w := models.OpeningHoursWindow{Open: "2200", Close: "0200"}
	if got := windowHours(w); got != 4 {
		t.Errorf("windowHours(overnight) = %v, want 4", got)
	}
}

func TestWindowHours_MalformedReturnsZero(t *testing.T) {
	w := models.OpeningHoursWindow{Open: "not-a-time", Close: "1800"}
	if got := windowHours(w); got != 0 {
		t.Errorf("windowHours(malformed) = %v, want 0", got)
	}
}

func TestWebsiteScore(t *testing.T) {
	if got := websiteScore("https://example.com"); got != 5 {
		t.Errorf("websiteScore(present) = %d, want 5", got)
	}
	if got := websiteScore(""); got != 0 {
		t.Errorf("websiteScore(empty) = %d, want 0", got)
	}
}

func TestReviewDensityScore_NoOpeningDateIsZero(t *testing.T) {
	if got := reviewDensityScore(100, nil); got != 0 {
		t.Errorf("reviewDensityScore(no date) = %d, want 0", got)
	}
}

func TestReviewDensityScore_HighDensityRecentOpening(t *testing.T) {
	opened := time.Now().AddDate(0, -6, 0)
	if got := reviewDensityScore(30, &opened); got != 6 {
		t.Errorf("reviewDensityScore = %d, want 6 (years floored to 1, density 30)", got)
	}
}

func TestReviewDensityScore_LowDensityOldOpening(t *testing.T) {
	opened := time.Now().AddDate(-10, 0, 0)
	if got := reviewDensityScore(10, &opened); got != 0 {
		t.Errorf("reviewDensityScore = %d, want 0 (density ~1/year)", got)
	}
}
