package crossvalidate

// PhotoVote is one vision source's classification for a single photo.
type PhotoVote struct {
	Source     string // e.g. "VISION_LLM_A", "VISION_LLM_B", "PLACES_TYPE_HINT"
	Category   string
	Confidence float64
}

// PhotoResolution is the majority-vote outcome of §4.4.4.
type PhotoResolution struct {
	Category            string
	Confidence          float64
	NeedsReview         bool
	CrossValidationOnly bool
}

// ResolvePhotoCategory implements the majority-vote table of §4.4.4:
// 3/3 agreement -> 100, 2/3 -> 85, otherwise 60 with a review flag. A
// single vote is passed through at its own baseline confidence and
// flagged as unavailable for cross-validation.
func ResolvePhotoCategory(votes []PhotoVote) PhotoResolution {
	if len(votes) == 0 {
		return PhotoResolution{}
	}
	if len(votes) == 1 {
		return PhotoResolution{
			Category:            votes[0].Category,
			Confidence:          votes[0].Confidence,
			CrossValidationOnly: true,
		}
	}

	counts := make(map[string]int, len(votes))
	for _, v := range votes {
		counts[v.Category]++
	}

	var majorityCategory string
	var majorityCount int
	for cat, n := range counts {
		if n > majorityCount {
			majorityCategory, majorityCount = cat, n
		}
	}

	switch {
	case majorityCount == len(votes) && len(votes) >= 3:
		return PhotoResolution{Category: majorityCategory, Confidence: 100}
	case majorityCount >= 2 && len(votes) >= 3:
		return PhotoResolution{Category: majorityCategory, Confidence: 85}
	default:
		return PhotoResolution{Category: majorityCategory, Confidence: 60, NeedsReview: true}
	}
}
