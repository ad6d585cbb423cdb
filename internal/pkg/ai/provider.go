// Package ai provides the LLM provider clients for git cai.
package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// DefaultTimeout bounds one provider HTTP call.
const DefaultTimeout = 30 * time.Second

// Request is one generation call: a system prompt, the user content, and
// the sampling settings of the selected backend.
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float32
}

// Provider is the uniform client over one LLM backend. Generate sends a
// single prompt and returns the model's raw text reply; callers normalize
// it through the message package. Construction never performs network I/O.
type Provider interface {
	Generate(ctx context.Context, req *Request) (string, error)
	Name() string
}

// newHTTPClient returns the HTTP client shared by the adapters.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: transport,
	}
}

// checkStatus maps a non-OK HTTP response onto the provider error taxonomy.
// 401/403 are authentication failures, 429 is a rate limit carrying the
// Retry-After value when the backend sends one, everything else is a
// request failure eligible for one retry.
func checkStatus(provider string, resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.NewAuthenticationError(provider)
	case http.StatusTooManyRequests:
		retryAfter := apperrors.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return apperrors.NewRateLimitError(provider, retryAfter)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewRequestError(provider,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
}
