package crossvalidate

import "testing"

func TestSemanticSimilarity_IdenticalStrings(t *testing.T) {
	if s := SemanticSimilarity("Rua das Flores, 123", "Rua das Flores, 123"); s != 100 {
		t.Errorf("SemanticSimilarity(identical) = %.1f, want 100", s)
	}
}

func TestSemanticSimilarity_AbbreviationEquivalence(t *testing.T) {
	s := SemanticSimilarity("R. das Flores", "Rua das Flores")
	if s < 90 {
		t.Errorf("SemanticSimilarity(abbreviation) = %.1f, want >= 90", s)
	}
}

func TestSemanticSimilarity_StateNameEquivalence(t *testing.T) {
	s := SemanticSimilarity("Sao Paulo", "SP")
	if s < 50 {
		t.Errorf("SemanticSimilarity(state name vs code) = %.1f, want >= 50", s)
	}
}

func TestSemanticSimilarity_CompletelyDifferent(t *testing.T) {
	s := SemanticSimilarity("Avenida Paulista 1000", "Rua XV de Novembro 42")
	if s > 50 {
		t.Errorf("SemanticSimilarity(unrelated addresses) = %.1f, want a low score", s)
	}
}

func TestSemanticSimilarity_BothEmpty(t *testing.T) {
	if s := SemanticSimilarity("", ""); s != 100 {
		t.Errorf("SemanticSimilarity(\"\", \"\") = %.1f, want 100", s)
	}
}
