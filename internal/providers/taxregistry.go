package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
	"github.com/sony/gobreaker"
)

// TaxRegistryLookup is the payload returned by the CNPJ registry per §4.1.
type TaxRegistryLookup struct {
	LegalName    string
	TradeName    string
	AddressParts AddressParts
	Status       string
	OpeningDate  string
	LegalNature  string
	MainActivity string
	Simples      struct {
		Optant bool
		Since  string
	}
	MEI struct {
		Optant bool
	}
	FiscalRegistrations []FiscalRegistration
	Partners            []PartnerInfo
	Capital             float64
	Size                string
}

// AddressParts is the structured address a registry response carries.
type AddressParts struct {
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	Zip          string
}

// FiscalRegistration mirrors the registry's per-state tax registration entry.
type FiscalRegistration struct {
	Number  string
	State   string
	Status  string
	Enabled bool
}

// PartnerInfo mirrors one QSA row.
type PartnerInfo struct {
	Name   string
	TaxID  string
	Role   string
	Since  string
}

// TaxRegistryClient looks up CNPJ records against the tax registry.
// Rate-limit and auth failures surface as typed AppError variants;
// retry policy lives in the queue layer (§4.1), not here — this client
// only performs one attempt, wrapped in a circuit breaker so a string of
// failures stops hammering a downed upstream (§5 "aggressively
// throttling providers").
type TaxRegistryClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker
}

func NewTaxRegistryClient(baseURL, apiKey string, timeout time.Duration) *TaxRegistryClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "tax-registry",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &TaxRegistryClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		breaker:    cb,
	}
}

// Lookup calls the tax registry for a 14-digit CNPJ.
func (c *TaxRegistryClient) Lookup(ctx context.Context, cnpj14 string) Result[TaxRegistryLookup] {
	if c.apiKey == "" {
		return Failure[TaxRegistryLookup](apperr.New(apperr.ConfigMissing, "tax registry API key not configured"))
	}

	raw, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/cnpj/%s", c.baseURL, cnpj14), nil)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.Internal, "building tax registry request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.TransientNetwork, "tax registry request failed")
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, apperr.New(apperr.NotFound, "cnpj not found in registry")
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, apperr.New(apperr.RateLimited, "tax registry rate limit exceeded")
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, apperr.New(apperr.AuthExpired, "tax registry credential rejected")
		case resp.StatusCode >= 500:
			return nil, apperr.Newf(apperr.TransientNetwork, "tax registry returned %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil, apperr.Newf(apperr.Internal, "tax registry returned unexpected status %d", resp.StatusCode)
		}

		var payload TaxRegistryLookup
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, apperr.Wrap(err, apperr.ParseError, "tax registry payload did not conform")
		}
		return payload, nil
	})
	if err != nil {
		if ae, ok := apperr.As(err); ok {
			return Failure[TaxRegistryLookup](ae)
		}
		return Failure[TaxRegistryLookup](apperr.Wrap(err, apperr.Internal, "tax registry circuit breaker error"))
	}
	return Success(raw.(TaxRegistryLookup))
}
