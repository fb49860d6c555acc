package workers

import (
	"time"

	"github.com/catalogforge/enrichment-engine/pkg/models"
)

// scorePotential implements the potential-score rubric of §4.6.4.1: six
// weighted sub-scores summing to at most 70, bucketed into a category.
// photosCount is only meaningful after the analysis stage has run; the
// places worker calls this with 0, and the analysis worker recomputes
// it once photos are classified.
func scorePotential(r *models.Record, photosCount int) (int, string, models.ScoringBreakdown) {
	b := models.ScoringBreakdown{
		RatingScore:        ratingScore(r.Rating),
		ReviewCountScore:   reviewCountScore(r.ReviewCount),
		PhotosScore:        photosScore(photosCount),
		OpeningHoursScore:  openingHoursScore(r.OpeningHours),
		WebsiteScore:       websiteScore(r.PlaceWebsite),
		ReviewDensityScore: reviewDensityScore(r.ReviewCount, r.OpeningDate),
	}

	total := b.RatingScore + b.ReviewCountScore + b.PhotosScore + b.OpeningHoursScore + b.WebsiteScore + b.ReviewDensityScore

	var category string
	switch {
	case total >= 50:
		category = "HIGH"
	case total >= 25:
		category = "MEDIUM"
	default:
		category = "LOW"
	}

	return total, category, b
}

func ratingScore(rating float64) int {
	s := int(rating * 3)
	if s > 15 {
		return 15
	}
	if s < 0 {
		return 0
	}
	return s
}

func reviewCountScore(count int) int {
	switch {
	case count == 0:
		return 0
	case count <= 10:
		return 3
	case count <= 50:
		return 6
	case count <= 200:
		return 10
	default:
		return 14
	}
}

func photosScore(count int) int {
	switch {
	case count == 0:
		return 0
	case count <= 3:
		return 4
	case count <= 7:
		return 8
	default:
		return 10
	}
}

func openingHoursScore(hours map[string][]models.OpeningHoursWindow) int {
	if len(hours) == 0 {
		return 0
	}

	diasAberto := 0
	var tempoAbertoSemanal float64
	for _, windows := range hours {
		if len(windows) == 0 {
			continue
		}
		diasAberto++
		for _, w := range windows {
			tempoAbertoSemanal += windowHours(w)
		}
	}

	score := diasAberto + int(tempoAbertoSemanal/8)
	if score > 10 {
		return 10
	}
	return score
}

func windowHours(w models.OpeningHoursWindow) float64 {
	open, err1 := time.Parse("1504", w.Open)
	closeT, err2 := time.Parse("1504", w.Close)
	if err1 != nil || err2 != nil {
		return 0
	}
	d := closeT.Sub(open).Hours()
	if d < 0 {
		d += 24
	}
	return d
}

func websiteScore(website string) int {
	if website != "" {
		return 5
	}
	return 0
}

func reviewDensityScore(reviewCount int, openingDate *time.Time) int {
	if openingDate == nil || reviewCount == 0 {
		return 0
	}
	years := time.Since(*openingDate).Hours() / (24 * 365)
	if years < 1 {
		years = 1
	}
	density := float64(reviewCount) / years

	switch {
	case density >= 20:
		return 6
	case density >= 5:
		return 3
	default:
		return 0
	}
}
