package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
)

// PhotoFetcher retrieves raw photo bytes either from the Places photo
// reference or from a plain external URL, and computes the content hash
// used to dedupe the analysis cache (§4.1, §3.2 AnalysisCacheEntry).
type PhotoFetcher struct {
	httpClient *http.Client
	places     *PlacesClient
}

func NewPhotoFetcher(httpClient *http.Client, places *PlacesClient) *PhotoFetcher {
	return &PhotoFetcher{httpClient: httpClient, places: places}
}

// Fetch returns the raw bytes and sha256 hex digest for a photo's
// external reference. A reference starting with "places:" is resolved
// through the Places photo API; anything else is treated as a direct URL.
func (f *PhotoFetcher) Fetch(ctx context.Context, externalRef string) Result[FetchedPhoto] {
	const placesPrefix = "places:"

	var data []byte
	if len(externalRef) > len(placesPrefix) && externalRef[:len(placesPrefix)] == placesPrefix {
		res := f.places.FetchPhoto(ctx, externalRef[len(placesPrefix):])
		if !res.Ok {
			return Failure[FetchedPhoto](res.Err)
		}
		data = res.Value
	} else {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, externalRef, nil)
		if err != nil {
			return Failure[FetchedPhoto](apperr.Wrap(err, apperr.Internal, "building photo fetch request"))
		}
		resp, err := f.httpClient.Do(req)
		if err != nil {
			return Failure[FetchedPhoto](apperr.Wrap(err, apperr.TransientNetwork, "photo fetch request failed"))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return Failure[FetchedPhoto](apperr.New(apperr.NotFound, "photo not found at external ref"))
		}
		if resp.StatusCode != http.StatusOK {
			return Failure[FetchedPhoto](apperr.Newf(apperr.TransientNetwork, "photo fetch returned %d", resp.StatusCode))
		}

		data, err = io.ReadAll(io.LimitReader(resp.Body, 16<<20))
		if err != nil {
			return Failure[FetchedPhoto](apperr.Wrap(err, apperr.TransientNetwork, "reading photo body"))
		}

		contentType := resp.Header.Get("Content-Type")
		if !isSupportedImageType(contentType) {
			return Failure[FetchedPhoto](apperr.Newf(apperr.ImageFormatInvalid, "unsupported content type %q", contentType))
		}
	}

	sum := sha256.Sum256(data)
	return Success(FetchedPhoto{
		Data: data,
		Hash: hex.EncodeToString(sum[:]),
	})
}

type FetchedPhoto struct {
	Data []byte
	Hash string
}

func isSupportedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
		return true
	default:
		return false
	}
}
