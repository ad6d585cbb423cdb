package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/gitcai/gitcai/internal/pkg/config"
	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// Base URLs of the OpenAI-compatible backends. OpenAI itself uses the
// go-openai default.
const (
	groqEndpoint     = "https://api.groq.com/openai/v1"
	xaiEndpoint      = "https://api.x.ai/v1"
	mistralEndpoint  = "https://api.mistral.ai/v1"
	deepseekEndpoint = "https://api.deepseek.com/v1"
)

// openAIClient serves every backend that speaks the OpenAI chat completions
// protocol. The backends differ only in base URL and token.
type openAIClient struct {
	name     string
	endpoint string
	client   *openai.Client
	retry    apperrors.RetryConfig
}

// newOpenAICompatible builds the client for one compatible backend. An
// empty endpoint selects the official OpenAI API.
func newOpenAICompatible(name, token, endpoint string) *openAIClient {
	clientConfig := openai.DefaultConfig(token)
	if endpoint != "" {
		clientConfig.BaseURL = endpoint
	}
	clientConfig.HTTPClient = newHTTPClient()

	return &openAIClient{
		name:     name,
		endpoint: clientConfig.BaseURL,
		client:   openai.NewClientWithConfig(clientConfig),
		retry:    apperrors.DefaultRetryConfig(),
	}
}

// NewOpenAI creates the OpenAI provider.
func NewOpenAI(token string) Provider {
	return newOpenAICompatible(config.ProviderOpenAI, token, "")
}

// NewGroq creates the Groq provider.
func NewGroq(token string) Provider {
	return newOpenAICompatible(config.ProviderGroq, token, groqEndpoint)
}

// NewXAI creates the xAI provider.
func NewXAI(token string) Provider {
	return newOpenAICompatible(config.ProviderXAI, token, xaiEndpoint)
}

// NewMistral creates the Mistral provider.
func NewMistral(token string) Provider {
	return newOpenAICompatible(config.ProviderMistral, token, mistralEndpoint)
}

// NewDeepSeek creates the DeepSeek provider.
func NewDeepSeek(token string) Provider {
	return newOpenAICompatible(config.ProviderDeepSeek, token, deepseekEndpoint)
}

// Name returns the provider name.
func (c *openAIClient) Name() string {
	return c.name
}

// Generate sends one chat completion request and returns the reply text.
func (c *openAIClient) Generate(ctx context.Context, req *Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
	}

	requestID := uuid.NewString()
	apperrors.LogAPIRequest(requestID, c.name, c.endpoint, req.Model, len(req.System)+len(req.User))
	start := time.Now()

	var resp openai.ChatCompletionResponse
	err := apperrors.RetryWithNotify(ctx, c.retry, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.client.CreateChatCompletion(ctx, chatReq)
		if callErr != nil {
			return c.wrapError(callErr)
		}
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		apperrors.LogRetry(attempt, c.retry.MaxAttempts, err, delay)
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.NewResponseFormatError(c.name, errors.New("response contains no choices"))
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	apperrors.LogAPIResponse(requestID, c.name, http.StatusOK, len(text), time.Since(start))
	if text == "" {
		return "", apperrors.NewResponseFormatError(c.name, errors.New("response text is empty"))
	}
	return text, nil
}

// wrapError maps go-openai errors onto the provider error taxonomy. The
// SDK reports structured API errors and unparsable error bodies through
// different types; both carry the HTTP status.
func (c *openAIClient) wrapError(err error) error {
	statusCode := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		statusCode = reqErr.HTTPStatusCode
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.NewAuthenticationError(c.name)
	case http.StatusTooManyRequests:
		// The SDK does not expose the Retry-After header.
		return apperrors.NewRateLimitError(c.name, 0)
	}
	if statusCode != 0 {
		return apperrors.NewRequestError(c.name, err).WithContext("status", statusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(c.name, err)
	}
	return apperrors.NewRequestError(c.name, err)
}
