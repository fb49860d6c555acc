// Package crossvalidate implements the dual/triple-source reconciliation
// engine (C4): every field the pipeline can observe from more than one
// provider is resolved here into a (chosen, source, confidence,
// divergences) tuple instead of being picked ad hoc by the stage worker
// that happened to run last.
package crossvalidate

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// equivalences maps an abbreviation to its expansion so that "R." and
// "Rua" count as the same token before similarity is computed (§4.4.1).
var equivalences = map[string]string{
	"r.":    "rua",
	"av.":   "avenida",
	"av":    "avenida",
	"dr.":   "doutor",
	"dra.":  "doutora",
	"sto.":  "santo",
	"sta.":  "santa",
	"pca.":  "praca",
	"pr.":   "praca",
	"trav.": "travessa",
	"al.":   "alameda",
	"eng.":  "engenheiro",
	"prof.": "professor",
	"sr.":   "senhor",
	"sra.":  "senhora",
	"nr.":   "numero",
	"n.":    "numero",
	"no.":   "numero",
	"apto.": "apartamento",
	"ap.":   "apartamento",
	"km":    "quilometro",
}

// stateNames maps full Brazilian state names to their 2-letter codes so
// that "São Paulo" and "SP" are treated as equivalent tokens.
var stateNames = map[string]string{
	"acre": "ac", "alagoas": "al", "amapa": "ap", "amazonas": "am",
	"bahia": "ba", "ceara": "ce", "distrito federal": "df",
	"espirito santo": "es", "goias": "go", "maranhao": "ma",
	"mato grosso": "mt", "mato grosso do sul": "ms", "minas gerais": "mg",
	"para": "pa", "paraiba": "pb", "parana": "pr", "pernambuco": "pe",
	"piaui": "pi", "rio de janeiro": "rj", "rio grande do norte": "rn",
	"rio grande do sul": "rs", "rondonia": "ro", "roraima": "rr",
	"santa catarina": "sc", "sao paulo": "sp", "sergipe": "se",
	"tocantins": "to",
}

func stripAccents(s string) string {
	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"í", "i", "ì", "i", "î", "i", "ï", "i",
		"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ö", "o",
		"ú", "u", "ù", "u", "û", "u", "ü", "u",
		"ç", "c", "ñ", "n",
	)
	return replacer.Replace(s)
}

func normalizeToken(tok string) string {
	tok = stripAccents(strings.ToLower(strings.TrimSpace(tok)))
	tok = strings.Trim(tok, ",.;:")
	if expanded, ok := equivalences[tok]; ok {
		return expanded
	}
	return tok
}

func tokenize(s string) []string {
	fields := strings.Fields(stripAccents(strings.ToLower(s)))
	out := make([]string, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		n := normalizeToken(fields[i])
		// Multi-word state names span several fields; try the longest
		// run first ("mato grosso do sul" before "mato grosso").
		for k := min(4, len(fields)-i); k > 1; k-- {
			words := make([]string, k)
			for j := range words {
				words[j] = normalizeToken(fields[i+j])
			}
			if code, ok := stateNames[strings.Join(words, " ")]; ok {
				n, i = code, i+k-1
				break
			}
		}
		if full, ok := stateNames[n]; ok {
			n = full
		}
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func levenshteinRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	an, bn := normalizeToken(a), normalizeToken(b)
	dist := levenshtein.ComputeDistance(an, bn)
	maxLen := len(an)
	if len(bn) > maxLen {
		maxLen = len(bn)
	}
	if maxLen == 0 {
		return 100
	}
	return (1 - float64(dist)/float64(maxLen)) * 100
}

func jaccardTokens(a, b string) float64 {
	ta, tb := tokenize(a), tokenize(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 100
	}
	setA := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(tb))
	for _, t := range tb {
		setB[t] = struct{}{}
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA)
	for t := range setB {
		if _, ok := setA[t]; !ok {
			union++
		}
	}
	if union == 0 {
		return 100
	}
	return float64(intersection) / float64(union) * 100
}

// SemanticSimilarity is the `0.5·Levenshtein-ratio + 0.5·Jaccard-on-tokens`
// formula of §4.4.1, expressed as a 0-100 percentage. It is the one
// similarity primitive shared by every cross-validation in this package.
func SemanticSimilarity(a, b string) float64 {
	return 0.5*levenshteinRatio(a, b) + 0.5*jaccardTokens(a, b)
}
