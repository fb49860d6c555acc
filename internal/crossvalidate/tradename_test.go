package crossvalidate

import "testing"

func TestTradeNameMatch_BestPairWins(t *testing.T) {
	score := TradeNameMatch("Padaria Sao Jose LTDA", "Padaria Sao Jose", "Padaria Sao Jose")
	if score < 90 {
		t.Errorf("TradeNameMatch(strong match) = %.1f, want >= 90", score)
	}
}

func TestTradeNameMatch_AllBlank(t *testing.T) {
	if score := TradeNameMatch("", "", ""); score != 0 {
		t.Errorf("TradeNameMatch(all blank) = %.1f, want 0", score)
	}
}

func TestTradeNameMatch_SkipsBlankCandidates(t *testing.T) {
	score := TradeNameMatch("Mercadinho Bom Preco", "", "Mercadinho Bom Preco")
	if score < 90 {
		t.Errorf("TradeNameMatch(one blank candidate) = %.1f, want >= 90", score)
	}
}
