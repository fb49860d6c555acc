package cache

import "time"

// Namespace prefixes, one per provider the cache fronts (§4.2).
const (
	PrefixCNPJ     = "cnpj"
	PrefixCPF      = "cpf"
	PrefixGeocode  = "geocode"
	PrefixPlaces   = "places"
	PrefixAnalysis = "analysis"
)

// Default TTLs per §4.2.
const (
	TTLTaxRegistry   = 30 * 24 * time.Hour
	TTLCPF           = 7 * 24 * time.Hour
	TTLPlaces        = 30 * 24 * time.Hour
	TTLPhotoAnalysis = 30 * 24 * time.Hour
)

// AnalysisCacheKey builds the composite id the photo-analysis cache is
// keyed by: (photoHash, promptVersion, modelId).
func AnalysisCacheKey(photoHash, promptVersion, modelID string) string {
	return photoHash + "|" + promptVersion + "|" + modelID
}
