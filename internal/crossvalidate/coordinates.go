package crossvalidate

import "math"

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two
// lat/lng points, in meters.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	phi1, phi2 := toRad(lat1), toRad(lat2)
	dPhi := toRad(lat2 - lat1)
	dLambda := toRad(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// CoordinateSource names which geocoder's point was chosen.
type CoordinateSource string

const (
	CoordinateSourceA CoordinateSource = "GEOCODER_A"
	CoordinateSourceB CoordinateSource = "GEOCODER_B"
)

// CoordinateResolution is the outcome of reconciling Geocoder-A and
// Geocoder-B's points (§4.4.2).
type CoordinateResolution struct {
	Lat, Lng    float64
	Source      CoordinateSource
	Confidence  float64
	DistanceM   float64
	Divergence  bool
}

// BoundingBox is a coarse rectangle used to sanity-check a resolved
// coordinate against its declared state or city (§4.4.2).
type BoundingBox struct {
	MinLat, MaxLat, MinLng, MaxLng float64
}

func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ResolveCoordinates applies the distance-threshold table of §4.4.2.
// Either point may be absent (ok=false); when neither is present the
// zero CoordinateResolution (no Source, Confidence 0) is returned.
func ResolveCoordinates(aLat, aLng float64, aOK bool, bLat, bLng float64, bOK bool, stateBox BoundingBox) CoordinateResolution {
	switch {
	case aOK && bOK:
		d := HaversineMeters(aLat, aLng, bLat, bLng)
		switch {
		case d <= 50:
			return CoordinateResolution{Lat: aLat, Lng: aLng, Source: CoordinateSourceA, Confidence: 100, DistanceM: d}
		case d <= 200:
			return CoordinateResolution{Lat: aLat, Lng: aLng, Source: CoordinateSourceA, Confidence: 90, DistanceM: d}
		case d <= 1000:
			return CoordinateResolution{Lat: aLat, Lng: aLng, Source: CoordinateSourceA, Confidence: 75, DistanceM: d, Divergence: true}
		default:
			if stateBox.Contains(aLat, aLng) {
				return CoordinateResolution{Lat: aLat, Lng: aLng, Source: CoordinateSourceA, Confidence: 60, DistanceM: d, Divergence: true}
			}
			return CoordinateResolution{Lat: bLat, Lng: bLng, Source: CoordinateSourceB, Confidence: 60, DistanceM: d, Divergence: true}
		}
	case aOK:
		return CoordinateResolution{Lat: aLat, Lng: aLng, Source: CoordinateSourceA, Confidence: 90}
	case bOK:
		return CoordinateResolution{Lat: bLat, Lng: bLng, Source: CoordinateSourceB, Confidence: 75}
	default:
		return CoordinateResolution{}
	}
}

// brazilianStateBoxes holds coarse bounding boxes for every state plus
// the federal district, used to validate a resolved point is at least
// plausible for its declared state (§4.4.2). Values are deliberately
// generous rectangles, not precise borders.
var brazilianStateBoxes = map[string]BoundingBox{
	"AC": {-11.14, -7.0, -73.99, -66.62},
	"AL": {-10.5, -8.8, -38.2, -35.1},
	"AP": {-0.1, 4.4, -54.9, -49.8},
	"AM": {-9.8, 2.3, -73.8, -56.0},
	"BA": {-18.4, -8.5, -46.6, -37.3},
	"CE": {-7.9, -2.7, -41.4, -37.2},
	"DF": {-16.1, -15.4, -48.3, -47.3},
	"ES": {-21.3, -17.9, -41.9, -39.6},
	"GO": {-19.5, -12.3, -53.3, -45.9},
	"MA": {-10.3, -1.0, -48.8, -41.8},
	"MT": {-18.1, -7.3, -61.7, -50.2},
	"MS": {-24.1, -17.2, -58.2, -50.9},
	"MG": {-22.9, -14.2, -51.0, -39.9},
	"PA": {-9.9, 2.6, -58.9, -46.0},
	"PB": {-8.3, -6.0, -38.8, -34.8},
	"PR": {-26.7, -22.5, -54.6, -48.0},
	"PE": {-9.5, -7.3, -41.4, -34.8},
	"PI": {-10.9, -2.7, -45.9, -40.4},
	"RJ": {-23.4, -20.8, -44.9, -40.9},
	"RN": {-6.9, -4.8, -38.6, -34.9},
	"RS": {-33.8, -27.0, -57.7, -49.7},
	"RO": {-13.7, -7.9, -66.8, -59.8},
	"RR": {-1.6, 5.3, -64.8, -58.9},
	"SC": {-29.4, -25.9, -53.9, -48.3},
	"SP": {-25.4, -19.8, -53.2, -44.1},
	"SE": {-11.6, -9.5, -38.2, -36.4},
	"TO": {-13.5, -5.1, -50.8, -45.7},
}

// StateBoundingBox looks up a coarse bounding box for a 2-letter state
// code; ok is false for an unrecognized code.
func StateBoundingBox(state string) (BoundingBox, bool) {
	box, ok := brazilianStateBoxes[state]
	return box, ok
}
