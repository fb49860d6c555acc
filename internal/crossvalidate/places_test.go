package crossvalidate

import "testing"

func TestResolvePlaces_BothModesAgreeOnPlaceID(t *testing.T) {
	res := ResolvePlaces("place-123", "place-123", "Padaria Sao Jose", "Rua A, 10", true, true,
		"Padaria Sao Jose", "Padaria Sao Jose", "Rua A, 10", "Rua A, 10", "Rua A, 10")
	if !res.Accepted || res.Method != "both_match" || res.Confidence != 100 {
		t.Errorf("unexpected result when both modes return the same place id: %+v", res)
	}
}

func TestResolvePlaces_ThresholdAcceptance(t *testing.T) {
	res := ResolvePlaces("place-a", "place-b", "Padaria Sao Jose", "Rua das Flores, 100", true, true,
		"Padaria Sao Jose", "Padaria Sao Jose", "Rua das Flores, 100", "", "")
	if !res.Accepted || res.Method != "threshold" {
		t.Errorf("expected threshold acceptance for a strong name+address match: %+v", res)
	}
}

func TestResolvePlaces_GenericStreetNameWithUnrelatedInputsRejected(t *testing.T) {
	res := ResolvePlaces("place-a", "place-b", "Rua das Acacias", "Rua das Acacias, 5", true, true,
		"Totally Unrelated Name", "", "Some Other Address", "", "")
	if res.Accepted {
		t.Errorf("expected rejection for a generic-street-name display with unrelated inputs: %+v", res)
	}
}

func TestResolvePlaces_NoMatchRejected(t *testing.T) {
	res := ResolvePlaces("place-a", "place-b", "Totally Different Place", "Avenida Z, 999", true, true,
		"My Store", "", "Rua A, 1", "", "")
	if res.Accepted {
		t.Errorf("expected rejection when name and address both diverge: %+v", res)
	}
}
