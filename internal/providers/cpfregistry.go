package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/catalogforge/enrichment-engine/internal/apperr"
	"golang.org/x/time/rate"
)

// CPFLookup is the payload returned by the CPF registry per §4.1.
type CPFLookup struct {
	Name      string
	Status    string
	Birth     string
	Deceased  bool
	// ValidationOnly is set when both the primary and fallback providers
	// failed but the Mod-11 checksum is valid (§4.6.1).
	ValidationOnly bool
}

// tokenCache caches an OAuth2 access token until expiry minus a safety
// margin, per §4.1 ("cache the token until expiry minus a safety margin").
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

const tokenSafetyMargin = 30 * time.Second

func (t *tokenCache) get() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.token == "" || time.Now().After(t.expiresAt.Add(-tokenSafetyMargin)) {
		return "", false
	}
	return t.token, true
}

func (t *tokenCache) set(token string, ttl time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	t.expiresAt = time.Now().Add(ttl)
}

func (t *tokenCache) invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = ""
}

// CPFRegistryClient looks up CPF holders via an authenticated primary
// endpoint with an open fallback, per §4.1. A token bucket limiter
// enforces the ~3 req/min the primary provider tolerates (§5).
type CPFRegistryClient struct {
	httpClient   *http.Client
	primaryURL   string
	fallbackURL  string
	clientID     string
	clientSecret string
	tokenURL     string
	tokens       tokenCache
	limiter      *rate.Limiter
}

func NewCPFRegistryClient(primaryURL, fallbackURL, tokenURL, clientID, clientSecret string, timeout time.Duration, ratePerMinute int) *CPFRegistryClient {
	if ratePerMinute <= 0 {
		ratePerMinute = 3
	}
	return &CPFRegistryClient{
		httpClient:   &http.Client{Timeout: timeout},
		primaryURL:   primaryURL,
		fallbackURL:  fallbackURL,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		limiter:      rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), 1),
	}
}

// Lookup resolves an 11-digit CPF, falling through to the open fallback
// provider when the primary credential is not configured or the primary
// lookup fails for any reason (including 401/403).
func (c *CPFRegistryClient) Lookup(ctx context.Context, cpf11 string) Result[CPFLookup] {
	if c.clientID != "" && c.clientSecret != "" {
		if err := c.limiter.Wait(ctx); err != nil {
			return Failure[CPFLookup](apperr.Wrap(err, apperr.TransientNetwork, "cpf registry rate limiter wait failed"))
		}
		if res := c.lookupPrimary(ctx, cpf11); res.Ok {
			return res
		}
		// Any primary failure (auth, not-found, rate-limited, ...)
		// falls through to the open fallback endpoint.
	}
	return c.lookupFallback(ctx, cpf11)
}

func (c *CPFRegistryClient) authToken(ctx context.Context) (string, *apperr.AppError) {
	if tok, ok := c.tokens.get(); ok {
		return tok, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, nil)
	if err != nil {
		return "", apperr.Wrap(err, apperr.Internal, "building oauth2 token request")
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(err, apperr.TransientNetwork, "oauth2 token request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", apperr.New(apperr.AuthExpired, "cpf registry oauth2 credentials rejected")
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.Newf(apperr.TransientNetwork, "oauth2 token endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperr.Wrap(err, apperr.ParseError, "oauth2 token payload did not conform")
	}

	ttl := time.Duration(body.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c.tokens.set(body.AccessToken, ttl)
	return body.AccessToken, nil
}

func (c *CPFRegistryClient) lookupPrimary(ctx context.Context, cpf11 string) Result[CPFLookup] {
	token, aerr := c.authToken(ctx)
	if aerr != nil {
		return Failure[CPFLookup](aerr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/cpf/%s", c.primaryURL, cpf11), nil)
	if err != nil {
		return Failure[CPFLookup](apperr.Wrap(err, apperr.Internal, "building cpf primary request"))
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Failure[CPFLookup](apperr.Wrap(err, apperr.TransientNetwork, "cpf primary request failed"))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.tokens.invalidate()
		return Failure[CPFLookup](apperr.New(apperr.AuthExpired, "cpf primary token invalidated"))
	case resp.StatusCode == http.StatusNotFound:
		return Failure[CPFLookup](apperr.New(apperr.NotFound, "cpf not found in primary registry"))
	case resp.StatusCode == http.StatusTooManyRequests:
		return Failure[CPFLookup](apperr.New(apperr.RateLimited, "cpf primary rate limit exceeded"))
	case resp.StatusCode != http.StatusOK:
		return Failure[CPFLookup](apperr.Newf(apperr.TransientNetwork, "cpf primary returned %d", resp.StatusCode))
	}

	var payload CPFLookup
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Failure[CPFLookup](apperr.Wrap(err, apperr.ParseError, "cpf primary payload did not conform"))
	}
	return Success(payload)
}

func (c *CPFRegistryClient) lookupFallback(ctx context.Context, cpf11 string) Result[CPFLookup] {
	if c.fallbackURL == "" {
		if ValidCPFChecksum(cpf11) {
			return Success(CPFLookup{ValidationOnly: true})
		}
		return Failure[CPFLookup](apperr.New(apperr.NotFound, "cpf not found and no fallback configured"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/cpf/%s", c.fallbackURL, cpf11), nil)
	if err != nil {
		return Failure[CPFLookup](apperr.Wrap(err, apperr.Internal, "building cpf fallback request"))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ValidCPFChecksum(cpf11) {
			return Success(CPFLookup{ValidationOnly: true})
		}
		return Failure[CPFLookup](apperr.Wrap(err, apperr.TransientNetwork, "cpf fallback request failed"))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		if ValidCPFChecksum(cpf11) {
			return Success(CPFLookup{ValidationOnly: true})
		}
		return Failure[CPFLookup](apperr.New(apperr.NotFound, "cpf not found in any registry"))
	}
	if resp.StatusCode != http.StatusOK {
		if ValidCPFChecksum(cpf11) {
			return Success(CPFLookup{ValidationOnly: true})
		}
		return Failure[CPFLookup](apperr.Newf(apperr.TransientNetwork, "cpf fallback returned %d", resp.StatusCode))
	}

	var payload CPFLookup
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Failure[CPFLookup](apperr.Wrap(err, apperr.ParseError, "cpf fallback payload did not conform"))
	}
	return Success(payload)
}

// ValidCPFChecksum implements the Mod-11 CPF checksum algorithm used to
// classify an otherwise-unconfirmable CPF as "validation-only" (§4.6.1).
func ValidCPFChecksum(cpf11 string) bool {
	if len(cpf11) != 11 {
		return false
	}
	digits := make([]int, 11)
	for i, r := range cpf11 {
		if r < '0' || r > '9' {
			return false
		}
		digits[i] = int(r - '0')
	}
	// Reject the well-known all-equal-digit sequences (e.g. 00000000000).
	allEqual := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return false
	}

	check := func(upto int, weight int) int {
		sum := 0
		for i := 0; i < upto; i++ {
			sum += digits[i] * weight
			weight--
		}
		rem := (sum * 10) % 11
		if rem == 10 {
			rem = 0
		}
		return rem
	}

	d1 := check(9, 10)
	if d1 != digits[9] {
		return false
	}
	d2 := check(10, 11)
	return d2 == digits[10]
}
