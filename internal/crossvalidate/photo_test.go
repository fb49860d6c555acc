package crossvalidate

import "testing"

func TestResolvePhotoCategory_NoVotes(t *testing.T) {
	res := ResolvePhotoCategory(nil)
	if res.Category != "" || res.Confidence != 0 {
		t.Errorf("expected zero-value result for no votes, got %+v", res)
	}
}

func TestResolvePhotoCategory_SingleVote(t *testing.T) {
	res := ResolvePhotoCategory([]PhotoVote{{Source: "VISION_LLM_A", Category: "STOREFRONT", Confidence: 70}})
	if !res.CrossValidationOnly || res.Category != "STOREFRONT" || res.Confidence != 70 {
		t.Errorf("unexpected result for a single vote: %+v", res)
	}
}

func TestResolvePhotoCategory_UnanimousThree(t *testing.T) {
	votes := []PhotoVote{
		{Source: "VISION_LLM_A", Category: "STOREFRONT", Confidence: 90},
		{Source: "VISION_LLM_B", Category: "STOREFRONT", Confidence: 85},
		{Source: "PLACES_TYPE_HINT", Category: "STOREFRONT", Confidence: 80},
	}
	res := ResolvePhotoCategory(votes)
	if res.Category != "STOREFRONT" || res.Confidence != 100 || res.NeedsReview {
		t.Errorf("unexpected result for unanimous votes: %+v", res)
	}
}

func TestResolvePhotoCategory_TwoOfThreeMajority(t *testing.T) {
	votes := []PhotoVote{
		{Source: "VISION_LLM_A", Category: "STOREFRONT", Confidence: 90},
		{Source: "VISION_LLM_B", Category: "STOREFRONT", Confidence: 85},
		{Source: "PLACES_TYPE_HINT", Category: "RESIDENCE", Confidence: 60},
	}
	res := ResolvePhotoCategory(votes)
	if res.Category != "STOREFRONT" || res.Confidence != 85 || res.NeedsReview {
		t.Errorf("unexpected result for 2/3 majority: %+v", res)
	}
}

func TestResolvePhotoCategory_NoMajorityNeedsReview(t *testing.T) {
	votes := []PhotoVote{
		{Source: "VISION_LLM_A", Category: "STOREFRONT", Confidence: 60},
		{Source: "VISION_LLM_B", Category: "RESIDENCE", Confidence: 60},
		{Source: "PLACES_TYPE_HINT", Category: "VACANT", Confidence: 60},
	}
	res := ResolvePhotoCategory(votes)
	if res.Confidence != 60 || !res.NeedsReview {
		t.Errorf("unexpected result for a three-way split: %+v", res)
	}
}
