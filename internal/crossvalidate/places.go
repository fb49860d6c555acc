package crossvalidate

import (
	"regexp"
	"strings"
)

var genericAddressName = regexp.MustCompile(`(?i)^(rua|avenida|av\.|r\.|travessa|alameda|praca|rodovia)\b`)

// PlacesResolution is the outcome of reconciling the nearby-mode and
// text-mode Places results (§4.4.3).
type PlacesResolution struct {
	Accepted              bool
	Method                string // "both_match", "threshold", "hybrid_high_address"
	Confidence            float64
	NameSim               float64
	AddressSim            float64
	AcceptedByHighAddress bool
}

// ResolvePlaces implements the dynamic-threshold and hybrid-acceptance
// rule of §4.4.3. nameRaw/tradeName and addressNormalized/registryAddress/
// addressRaw are the record's candidates to compare against, in priority
// order for the address comparison.
func ResolvePlaces(nearbyPlaceID, textPlaceID string, chosenDisplayName, chosenFormattedAddress string,
	nearbyWasNamed, textWasNamed bool,
	nameRaw, tradeName string,
	addressNormalized, registryAddress, addressRaw string,
) PlacesResolution {
	if nearbyPlaceID != "" && nearbyPlaceID == textPlaceID {
		return PlacesResolution{Accepted: true, Method: "both_match", Confidence: 100}
	}

	nameSim := maxSim(chosenDisplayName, nameRaw, tradeName)
	addressSim := bestAddressSim(chosenFormattedAddress, addressNormalized, registryAddress, addressRaw)

	var minName, minAddress float64
	switch {
	case genericAddressName.MatchString(strings.TrimSpace(chosenDisplayName)):
		minName, minAddress = 50, 70
	case nearbyWasNamed:
		minName, minAddress = 55, 65
	case textWasNamed:
		minName, minAddress = 50, 60
	default:
		minName, minAddress = 55, 65
	}

	if nameSim >= minName && addressSim >= minAddress {
		return PlacesResolution{Accepted: true, Method: "threshold", Confidence: 85, NameSim: nameSim, AddressSim: addressSim}
	}

	if addressSim >= 68 && nameSim >= 45 {
		return PlacesResolution{
			Accepted: true, Method: "hybrid_high_address", Confidence: 75,
			NameSim: nameSim, AddressSim: addressSim, AcceptedByHighAddress: true,
		}
	}

	return PlacesResolution{Accepted: false, NameSim: nameSim, AddressSim: addressSim}
}

func maxSim(candidate string, options ...string) float64 {
	var best float64
	for _, opt := range options {
		if opt == "" {
			continue
		}
		if s := SemanticSimilarity(candidate, opt); s > best {
			best = s
		}
	}
	return best
}

func bestAddressSim(candidate string, priorityOrdered ...string) float64 {
	for _, opt := range priorityOrdered {
		if opt != "" {
			return SemanticSimilarity(candidate, opt)
		}
	}
	return 0
}
