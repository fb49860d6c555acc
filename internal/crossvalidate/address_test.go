package crossvalidate

import (
	"testing"

	"github.com/catalogforge/enrichment-engine/internal/providers"
)

func TestResolveAddress_BothLLMsAndRegexAgree(t *testing.T) {
	addr := providers.NormalizedAddress{Street: "Rua Das Flores", Number: "100", City: "Sao Paulo", State: "SP"}
	a, b := addr, addr
	res := ResolveAddress(&a, &b, addr, "Rua das Flores, 100, Sao Paulo, SP")
	if res.Source != AddressSourceCrossValidated || res.Confidence != 100 || res.Status != "SUCCESS" {
		t.Errorf("unexpected result for full three-way agreement: %+v", res)
	}
}

func TestResolveAddress_OnlyLLMA(t *testing.T) {
	addr := providers.NormalizedAddress{Street: "Rua Das Flores", Number: "100", City: "Sao Paulo", State: "SP"}
	res := ResolveAddress(&addr, nil, addr, "Rua das Flores, 100")
	if res.Source != AddressSourceLLMA || res.Status != "SUCCESS" {
		t.Errorf("unexpected result for LLM-A only: %+v", res)
	}
}

func TestResolveAddress_NoInputsIncomplete(t *testing.T) {
	res := ResolveAddress(nil, nil, providers.NormalizedAddress{}, "")
	if res.Status != "INCOMPLETE" || res.Confidence != 0 {
		t.Errorf("expected INCOMPLETE status with no inputs, got %+v", res)
	}
}

func TestResolveAddress_LLMBDivergesFromRegexFlagsHallucination(t *testing.T) {
	a := providers.NormalizedAddress{Street: "Rua Das Flores", Number: "100", City: "Sao Paulo", State: "SP"}
	b := providers.NormalizedAddress{Street: "Avenida Completamente Diferente", Number: "999", City: "Rio de Janeiro", State: "RJ"}
	regex := a

	res := ResolveAddress(&a, &b, regex, "Rua das Flores, 100, Sao Paulo, SP")
	if res.Source != AddressSourceLLMA || res.HallucinationOn != AddressSourceLLMB {
		t.Errorf("expected LLM-A chosen with LLM-B flagged as a hallucination, got %+v", res)
	}
}
