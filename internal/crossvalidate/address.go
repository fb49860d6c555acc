package crossvalidate

import (
	"fmt"
	"strings"

	"github.com/catalogforge/enrichment-engine/internal/providers"
)

// AddressSource names where a reconciled address field came from.
type AddressSource string

const (
	AddressSourceLLMA           AddressSource = "LLM-A"
	AddressSourceLLMB           AddressSource = "LLM-B"
	AddressSourceRegex          AddressSource = "REGEX"
	AddressSourceCrossValidated AddressSource = "CROSS_VALIDATED"
)

// AddressResolution is the (chosen, source, confidence, divergences)
// tuple produced by the address normalization reconciliation (§4.4.1).
type AddressResolution struct {
	Chosen          providers.NormalizedAddress
	Source          AddressSource
	Confidence      float64
	Status          string // SUCCESS or INCOMPLETE
	HallucinationOn AddressSource
	Divergences     []string
}

func flatten(a providers.NormalizedAddress) string {
	return strings.Join([]string{a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State, a.Zip}, " ")
}

func isBlank(a providers.NormalizedAddress) bool {
	return a.Street == "" && a.Number == "" && a.City == "" && a.State == ""
}

// RuleBasedNormalize is the deterministic regex/abbreviation-table
// normalizer that stands in for a third, always-available source (§4.4.1).
func RuleBasedNormalize(raw, city, state string) providers.NormalizedAddress {
	tokens := strings.Fields(raw)
	normalized := make([]string, 0, len(tokens))
	var number string
	for _, tok := range tokens {
		n := normalizeToken(tok)
		if number == "" && isNumeric(strings.Trim(tok, ",.")) {
			number = strings.Trim(tok, ",.")
			continue
		}
		if n != "" {
			normalized = append(normalized, strings.Title(n))
		}
	}

	st := strings.ToUpper(state)
	if full, ok := stateNames[normalizeToken(state)]; ok {
		st = strings.ToUpper(full)
	}

	return providers.NormalizedAddress{
		Street: strings.Join(normalized, " "),
		Number: number,
		City:   strings.TrimSpace(city),
		State:  st,
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ResolveAddress implements the ordered resolution table of §4.4.1.
// llmA/llmB may be nil when that provider failed or was never called.
func ResolveAddress(llmA, llmB *providers.NormalizedAddress, regex providers.NormalizedAddress, rawAddress string) AddressResolution {
	if strings.TrimSpace(rawAddress) == "" && (llmA == nil || isBlank(*llmA)) && (llmB == nil || isBlank(*llmB)) {
		return AddressResolution{Status: "INCOMPLETE", Confidence: 0}
	}

	regexFlat := flatten(regex)

	switch {
	case llmA != nil && llmB != nil:
		simAB := SemanticSimilarity(flatten(*llmA), flatten(*llmB))
		simAR := SemanticSimilarity(flatten(*llmA), regexFlat)
		simBR := SemanticSimilarity(flatten(*llmB), regexFlat)

		switch {
		case simAB >= 80 && simAR >= 80 && simBR >= 80:
			return AddressResolution{Chosen: *llmA, Source: AddressSourceCrossValidated, Confidence: 100, Status: "SUCCESS"}
		case simAB >= 90:
			return AddressResolution{Chosen: *llmA, Source: AddressSourceLLMA, Confidence: 98, Status: "SUCCESS"}
		case simAB >= 80:
			return AddressResolution{Chosen: *llmA, Source: AddressSourceLLMA, Confidence: 95, Status: "SUCCESS"}
		case simAB >= 70:
			return AddressResolution{Chosen: *llmA, Source: AddressSourceLLMA, Confidence: 90, Status: "SUCCESS"}
		case simAB < 70 && simAR >= 75 && simBR < 65:
			return AddressResolution{
				Chosen: *llmA, Source: AddressSourceLLMA, Confidence: 88, Status: "SUCCESS",
				HallucinationOn: AddressSourceLLMB,
				Divergences:     []string{"LLM-B diverges sharply from the rule-based normalizer"},
			}
		case simAB < 70 && simBR >= 75 && simAR < 65:
			return AddressResolution{
				Chosen: *llmB, Source: AddressSourceLLMB, Confidence: 88, Status: "SUCCESS",
				HallucinationOn: AddressSourceLLMA,
				Divergences:     []string{"LLM-A diverges sharply from the rule-based normalizer"},
			}
		default:
			return AddressResolution{
				Chosen: *llmA, Source: AddressSourceLLMA, Confidence: 80, Status: "SUCCESS",
				Divergences: []string{fmt.Sprintf("LLM-A/LLM-B/regex mutually disagree (AB=%.0f AR=%.0f BR=%.0f)", simAB, simAR, simBR)},
			}
		}

	case llmA != nil:
		if SemanticSimilarity(flatten(*llmA), regexFlat) >= 60 {
			return AddressResolution{Chosen: *llmA, Source: AddressSourceLLMA, Confidence: 85, Status: "SUCCESS"}
		}
		return AddressResolution{
			Chosen: regex, Source: AddressSourceRegex, Confidence: 65, Status: "SUCCESS",
			Divergences: []string{"LLM-A disagrees with rule-based normalizer"},
		}

	case llmB != nil:
		if SemanticSimilarity(flatten(*llmB), regexFlat) >= 60 {
			return AddressResolution{Chosen: *llmB, Source: AddressSourceLLMB, Confidence: 82, Status: "SUCCESS"}
		}
		return AddressResolution{
			Chosen: regex, Source: AddressSourceRegex, Confidence: 65, Status: "SUCCESS",
			Divergences: []string{"LLM-B disagrees with rule-based normalizer"},
		}

	default:
		return AddressResolution{Chosen: regex, Source: AddressSourceRegex, Confidence: 60, Status: "SUCCESS"}
	}
}
