package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
	"googlemaps.github.io/maps"
)

// GeocodeResult is the common shape both geocoders return (§4.1).
type GeocodeResult struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
	PlaceHint        string
	DisplayName      string // OSM's own label, when Geocoder-B answered
}

// GeocoderA wraps the paid Google Maps geocoding API.
type GeocoderA struct {
	client *maps.Client
}

func NewGeocoderA(apiKey string) (*GeocoderA, error) {
	if apiKey == "" {
		return &GeocoderA{}, nil
	}
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeocoderA{client: c}, nil
}

// Geocode resolves a free-text address, optionally biased by city/state
// and a name hint (used by the Places stage as a search anchor).
func (g *GeocoderA) Geocode(ctx context.Context, freeText, city, state, nameHint string) Result[GeocodeResult] {
	if g.client == nil {
		return Failure[GeocodeResult](apperr.New(apperr.ConfigMissing, "geocoder-a api key not configured"))
	}

	query := freeText
	if city != "" {
		query += ", " + city
	}
	if state != "" {
		query += ", " + state
	}

	resp, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: query,
		Region:  "br",
	})
	if err != nil {
		return Failure[GeocodeResult](classifyMapsError(err, "geocoder-a"))
	}
	if len(resp) == 0 {
		return Failure[GeocodeResult](apperr.New(apperr.NotFound, "geocoder-a returned no results"))
	}

	best := resp[0]
	return Success(GeocodeResult{
		Lat:              best.Geometry.Location.Lat,
		Lng:              best.Geometry.Location.Lng,
		FormattedAddress: best.FormattedAddress,
		PlaceHint:        nameHint,
	})
}

// GeocoderB wraps a free, best-effort OSM/Nominatim-style geocoder. An
// empty result set is reported as a NotFound error, distinct from the
// error kinds used for transport failures (§4.1).
type GeocoderB struct {
	httpClient *http.Client
	baseURL    string
}

func NewGeocoderB(baseURL string, httpClient *http.Client) *GeocoderB {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &GeocoderB{httpClient: httpClient, baseURL: baseURL}
}

func (g *GeocoderB) Geocode(ctx context.Context, freeText, city, state string) Result[GeocodeResult] {
	q := fmt.Sprintf("%s, %s, %s, Brazil", freeText, city, state)

	reqURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", g.baseURL, url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Failure[GeocodeResult](apperr.Wrap(err, apperr.Internal, "building geocoder-b request"))
	}
	req.Header.Set("User-Agent", "enrichment-engine/1.0")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Failure[GeocodeResult](apperr.Wrap(err, apperr.TransientNetwork, "geocoder-b request failed"))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Failure[GeocodeResult](apperr.New(apperr.RateLimited, "geocoder-b rate limit exceeded"))
	}
	if resp.StatusCode != http.StatusOK {
		return Failure[GeocodeResult](apperr.Newf(apperr.TransientNetwork, "geocoder-b returned %d", resp.StatusCode))
	}

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Failure[GeocodeResult](apperr.Wrap(err, apperr.ParseError, "geocoder-b payload did not conform"))
	}
	if len(results) == 0 {
		return Failure[GeocodeResult](apperr.New(apperr.NotFound, "geocoder-b found no match"))
	}

	lat, err1 := strconv.ParseFloat(results[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(results[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return Failure[GeocodeResult](apperr.New(apperr.ParseError, "geocoder-b returned non-numeric coordinates"))
	}

	return Success(GeocodeResult{
		Lat:         lat,
		Lng:         lng,
		DisplayName: results[0].DisplayName,
	})
}

// classifyMapsError maps the googlemaps client's error strings to our
// taxonomy. The SDK does not expose a structured status code on its
// error type, so this is a best-effort substring match rather than a
// type assertion.
func classifyMapsError(err error, provider string) *apperr.AppError {
	msg := err.Error()
	switch {
	case containsAny(msg, "429", "Too Many Requests", "OVER_QUERY_LIMIT"):
		return apperr.Wrap(err, apperr.RateLimited, provider+" rate limit exceeded")
	case containsAny(msg, "401", "403", "REQUEST_DENIED", "invalid API key"):
		return apperr.Wrap(err, apperr.AuthExpired, provider+" credential rejected")
	case containsAny(msg, "ZERO_RESULTS", "404"):
		return apperr.Wrap(err, apperr.NotFound, provider+" found no match")
	default:
		return apperr.Wrap(err, apperr.TransientNetwork, provider+" request failed")
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
