package ingest

import (
	"context"
	"testing"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
	"github.com/catalogforge/enrichment-engine/internal/providers"
)

// fakeTextLLM implements providers.TextLLM with canned responses so
// MapHeaders can be exercised without a real model call.
type fakeTextLLM struct {
	mapping providers.Result[providers.HeaderMapping]
}

func (f fakeTextLLM) NormalizeAddress(context.Context, string, string, string) providers.Result[providers.NormalizedAddress] {
	return providers.Success(providers.NormalizedAddress{})
}

func (f fakeTextLLM) MapHeaders(context.Context, []string, [][]string) providers.Result[providers.HeaderMapping] {
	return f.mapping
}

func TestMapHeaders_ResolvesKnownColumns(t *testing.T) {
	llm := fakeTextLLM{mapping: providers.Success(providers.HeaderMapping{
		Name:     "Nome Fantasia",
		Document: "CNPJ",
		City:     "Cidade",
	})}
	header := []string{"CNPJ", "Nome Fantasia", "Cidade", "Telefone"}

	idx, err := MapHeaders(context.Background(), llm, header, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Document != 0 {
		t.Errorf("Document column = %d, want 0", idx.Document)
	}
	if idx.Name != 1 {
		t.Errorf("Name column = %d, want 1", idx.Name)
	}
	if idx.City != 2 {
		t.Errorf("City column = %d, want 2", idx.City)
	}
	if idx.Phone != -1 {
		t.Errorf("Phone column = %d, want -1 (unmapped)", idx.Phone)
	}
}

func TestMapHeaders_MissingDocumentIsError(t *testing.T) {
	llm := fakeTextLLM{mapping: providers.Success(providers.HeaderMapping{Name: "Nome"})}
	header := []string{"Nome", "Cidade"}

	_, err := MapHeaders(context.Background(), llm, header, nil)
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.InvalidInput {
		t.Errorf("expected an InvalidInput AppError, got %v", err)
	}
}

func TestMapHeaders_PropagatesLLMFailure(t *testing.T) {
	wantErr := apperr.New(apperr.ParseError, "model returned malformed JSON")
	llm := fakeTextLLM{mapping: providers.Failure[providers.HeaderMapping](wantErr)}

	_, err := MapHeaders(context.Background(), llm, []string{"CNPJ"}, nil)
	if err != wantErr {
		t.Errorf("MapHeaders error = %v, want the LLM's original error", err)
	}
}

func TestRowValue_OutOfRangeAndUnmapped(t *testing.T) {
	row := []string{"a", "b"}
	if v := RowValue(row, -1); v != "" {
		t.Errorf("RowValue(unmapped) = %q, want empty", v)
	}
	if v := RowValue(row, 5); v != "" {
		t.Errorf("RowValue(out of range) = %q, want empty", v)
	}
	if v := RowValue(row, 1); v != "b" {
		t.Errorf("RowValue(1) = %q, want %q", v, "b")
	}
}
