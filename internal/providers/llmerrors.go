package providers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/catalogforge/enrichment-engine/internal/apperr"
	"github.com/sashabaranov/go-openai"
)

// classifyAnthropicError maps the SDK's *anthropic.Error into our
// taxonomy by HTTP status code.
func classifyAnthropicError(err error) *apperr.AppError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return apperr.Wrap(err, apperr.RateLimited, "anthropic rate limit exceeded")
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.Wrap(err, apperr.AuthExpired, "anthropic credential rejected")
		case http.StatusNotFound:
			return apperr.Wrap(err, apperr.NotFound, "anthropic model not found")
		default:
			if apiErr.StatusCode >= 500 {
				return apperr.Wrap(err, apperr.TransientNetwork, "anthropic server error")
			}
		}
	}
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return apperr.Wrap(err, apperr.TransientNetwork, "anthropic request timed out")
	}
	return apperr.Wrap(err, apperr.TransientNetwork, "anthropic request failed")
}

// classifyOpenAIError maps the SDK's *openai.APIError into our taxonomy.
func classifyOpenAIError(err error) *apperr.AppError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return apperr.Wrap(err, apperr.RateLimited, "openai rate limit exceeded")
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.Wrap(err, apperr.AuthExpired, "openai credential rejected")
		case http.StatusNotFound:
			return apperr.Wrap(err, apperr.NotFound, "openai model not found")
		default:
			if apiErr.HTTPStatusCode >= 500 {
				return apperr.Wrap(err, apperr.TransientNetwork, "openai server error")
			}
		}
	}
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return apperr.Wrap(err, apperr.TransientNetwork, "openai request timed out")
	}
	return apperr.Wrap(err, apperr.TransientNetwork, "openai request failed")
}
