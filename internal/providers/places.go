package providers

import (
	"context"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
	"googlemaps.github.io/maps"
)

// OpeningHoursWindow is one open/close pair for a weekday (§3.1).
type OpeningHoursWindow struct {
	Open  string
	Close string
}

// PlaceResult is the common shape returned by both Places search modes (§4.1).
type PlaceResult struct {
	PlaceID          string
	DisplayName      string
	FormattedAddress string
	Types            []string
	Rating           float64
	ReviewCount      int
	Phone            string
	Website          string
	OpeningHours     map[string][]OpeningHoursWindow
	PhotoRefs        []string
}

// PlacesClient wraps the Places "nearby search" and "text search" modes
// used by the cross-validation engine in §4.4.3.
type PlacesClient struct {
	client *maps.Client
}

func NewPlacesClient(apiKey string) (*PlacesClient, error) {
	if apiKey == "" {
		return &PlacesClient{}, nil
	}
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &PlacesClient{client: c}, nil
}

// Nearby searches for an establishment close to a coordinate, optionally
// anchored by a known placeId and a name hint (§4.1).
func (p *PlacesClient) Nearby(ctx context.Context, placeID string, lat, lng float64, nameHint string) Result[PlaceResult] {
	if p.client == nil {
		return Failure[PlaceResult](apperr.New(apperr.ConfigMissing, "places api key not configured"))
	}

	if placeID != "" {
		resp, err := p.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{PlaceID: placeID})
		if err != nil {
			return Failure[PlaceResult](classifyMapsError(err, "places-nearby"))
		}
		return Success(fromPlaceDetails(resp))
	}

	resp, err := p.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: lat, Lng: lng},
		Radius:   150,
		Keyword:  nameHint,
	})
	if err != nil {
		return Failure[PlaceResult](classifyMapsError(err, "places-nearby"))
	}
	if len(resp.Results) == 0 {
		return Failure[PlaceResult](apperr.New(apperr.NotFound, "places-nearby found no results"))
	}

	details, err := p.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{PlaceID: resp.Results[0].PlaceID})
	if err != nil {
		return Failure[PlaceResult](classifyMapsError(err, "places-nearby"))
	}
	return Success(fromPlaceDetails(details))
}

// Text searches by a free-form query string composed of the name hint,
// normalized address, city and state (§4.6.4).
func (p *PlacesClient) Text(ctx context.Context, query string) Result[PlaceResult] {
	if p.client == nil {
		return Failure[PlaceResult](apperr.New(apperr.ConfigMissing, "places api key not configured"))
	}

	resp, err := p.client.TextSearch(ctx, &maps.TextSearchRequest{Query: query})
	if err != nil {
		return Failure[PlaceResult](classifyMapsError(err, "places-text"))
	}
	if len(resp.Results) == 0 {
		return Failure[PlaceResult](apperr.New(apperr.NotFound, "places-text found no results"))
	}

	details, err := p.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{PlaceID: resp.Results[0].PlaceID})
	if err != nil {
		return Failure[PlaceResult](classifyMapsError(err, "places-text"))
	}
	return Success(fromPlaceDetails(details))
}

func fromPlaceDetails(d maps.PlaceDetailsResult) PlaceResult {
	hours := make(map[string][]OpeningHoursWindow)
	if d.OpeningHours != nil {
		for _, period := range d.OpeningHours.Periods {
			day := weekdayName(int(period.Open.Day))
			hours[day] = append(hours[day], OpeningHoursWindow{
				Open:  period.Open.Time,
				Close: period.Close.Time,
			})
		}
	}

	photoRefs := make([]string, 0, len(d.Photos))
	for _, ph := range d.Photos {
		photoRefs = append(photoRefs, ph.PhotoReference)
	}

	return PlaceResult{
		PlaceID:          d.PlaceID,
		DisplayName:      d.Name,
		FormattedAddress: d.FormattedAddress,
		Types:            d.Types,
		Rating:           float64(d.Rating),
		ReviewCount:      d.UserRatingsTotal,
		Phone:            d.FormattedPhoneNumber,
		Website:          d.Website,
		OpeningHours:     hours,
		PhotoRefs:        photoRefs,
	}
}

func weekdayName(day int) string {
	names := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	if day < 0 || day > 6 {
		return "unknown"
	}
	return names[day]
}

// FetchPhoto re-downloads a single photo's bytes via the Places photo
// reference when no local copy is cached (§4.1, §6.3).
func (p *PlacesClient) FetchPhoto(ctx context.Context, photoRef string) Result[[]byte] {
	if p.client == nil {
		return Failure[[]byte](apperr.New(apperr.ConfigMissing, "places api key not configured"))
	}

	resp, err := p.client.PlacePhoto(ctx, &maps.PlacePhotoRequest{
		PhotoReference: photoRef,
		MaxWidth:       1600,
	})
	if err != nil {
		return Failure[[]byte](classifyMapsError(err, "places-photo"))
	}
	defer resp.Data.Close()

	buf := make([]byte, 0, 64*1024)
	chunk := make([]byte, 32*1024)
	for {
		n, rerr := resp.Data.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if rerr != nil {
			break
		}
	}
	return Success(buf)
}
