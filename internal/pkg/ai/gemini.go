package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gitcai/gitcai/internal/pkg/config"
	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

// geminiEndpoint is the generateContent URL; the model name is spliced in.
const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// geminiClient calls the Gemini REST API directly. This API version has no
// system role, so the system prompt is prepended to the user content.
type geminiClient struct {
	token      string
	endpoint   string
	httpClient *http.Client
	retry      apperrors.RetryConfig
}

// NewGemini creates the Gemini provider.
func NewGemini(token string) Provider {
	return &geminiClient{
		token:      token,
		endpoint:   geminiEndpoint,
		httpClient: newHTTPClient(),
		retry:      apperrors.DefaultRetryConfig(),
	}
}

// Name returns the provider name.
func (c *geminiClient) Name() string {
	return config.ProviderGemini
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature float32 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends one generateContent request and returns the reply text.
func (c *geminiClient) Generate(ctx context.Context, req *Request) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: req.System + "\n\n" + req.User}}},
		},
		GenerationConfig: geminiGenerationConfig{Temperature: req.Temperature},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", apperrors.NewRequestError(c.Name(), err)
	}

	url := fmt.Sprintf(c.endpoint, req.Model)
	requestID := uuid.NewString()
	apperrors.LogAPIRequest(requestID, c.Name(), url, req.Model, len(req.System)+len(req.User))
	start := time.Now()

	var text string
	err = apperrors.RetryWithNotify(ctx, c.retry, func(ctx context.Context) error {
		var callErr error
		text, callErr = c.call(ctx, url, payload)
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

func (c *geminiClient) call(ctx context.Context, url string, payload []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.NewRequestError(c.Name(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.token)

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

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", apperrors.NewResponseFormatError(c.Name(), err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.NewResponseFormatError(c.Name(), errors.New("response contains no candidates"))
	}

	text := strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", apperrors.NewResponseFormatError(c.Name(), errors.New("response text is empty"))
	}
	return text, nil
}
