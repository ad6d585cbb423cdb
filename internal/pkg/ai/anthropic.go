package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gitcai/gitcai/internal/pkg/config"
	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"

	// anthropicMaxTokens caps the reply length; the messages API requires
	// an explicit value.
	anthropicMaxTokens = 8192
)

// anthropicClient calls the Anthropic messages API directly. The system
// prompt travels in the top-level system field.
type anthropicClient struct {
	token      string
	endpoint   string
	httpClient *http.Client
	retry      apperrors.RetryConfig
}

// NewAnthropic creates the Anthropic provider.
func NewAnthropic(token string) Provider {
	return &anthropicClient{
		token:      token,
		endpoint:   anthropicEndpoint,
		httpClient: newHTTPClient(),
		retry:      apperrors.DefaultRetryConfig(),
	}
}

// Name returns the provider name.
func (c *anthropicClient) Name() string {
	return config.ProviderAnthropic
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends one messages request and returns the reply text.
func (c *anthropicClient) Generate(ctx context.Context, req *Request) (string, error) {
	body := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   anthropicMaxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.User},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", apperrors.NewRequestError(c.Name(), err)
	}

	requestID := uuid.NewString()
	apperrors.LogAPIRequest(requestID, c.Name(), c.endpoint, req.Model, len(req.System)+len(req.User))
	start := time.Now()

	var text string
	err = apperrors.RetryWithNotify(ctx, c.retry, func(ctx context.Context) error {
		var callErr error
		text, callErr = c.call(ctx, payload)
		return callErr
	}, func(attempt int, err error, delay time.Duration) {
		apperrors.LogRetry(attempt, c.retry.MaxAttempts, err, delay)
	})
	if err != nil {
		return "", err
	}

	apperrors.LogAPIResponse(requestID, c.Name(), http.StatusOK, len(text), time.Since(start))
	return text, nil
}

func (c *anthropicClient) call(ctx context.Context, payload []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.NewRequestError(c.Name(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.token)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperrors.NewTimeoutError(c.Name(), err)
		}
		return "", apperrors.NewRequestError(c.Name(), err)
	}
	defer resp.Body.Close()

	if err := checkStatus(c.Name(), resp); err != nil {
		return "", err
	}

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", apperrors.NewResponseFormatError(c.Name(), err)
	}
	if len(decoded.Content) == 0 {
		return "", apperrors.NewResponseFormatError(c.Name(), errors.New("response contains no content blocks"))
	}

	text := strings.TrimSpace(decoded.Content[0].Text)
	if text == "" {
		return "", apperrors.NewResponseFormatError(c.Name(), errors.New("response text is empty"))
	}
	return text, nil
}
