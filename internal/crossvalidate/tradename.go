package crossvalidate

// TradeNameMatch computes nomeFantasiaMatch ∈ [0..100]: the best pairwise
// semantic similarity among (nameRaw, tradeName, placesDisplayName) (§4.4.5).
func TradeNameMatch(nameRaw, tradeName, placesDisplayName string) float64 {
	best := 0.0
	pairs := [][2]string{
		{nameRaw, tradeName},
		{nameRaw, placesDisplayName},
		{tradeName, placesDisplayName},
	}
	for _, p := range pairs {
		if p[0] == "" || p[1] == "" {
			continue
		}
		if s := SemanticSimilarity(p[0], p[1]); s > best {
			best = s
		}
	}
	return best
}
