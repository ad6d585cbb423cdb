package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/gitcai/gitcai/internal/pkg/errors"
)

func newTestAnthropicClient(serverURL string) *anthropicClient {
	return &anthropicClient{
		token:      "sk-ant-test",
		endpoint:   serverURL + "/v1/messages",
		httpClient: newHTTPClient(),
		retry:      fastRetry(),
	}
}

func anthropicResponseJSON(text string) string {
	return `{"content":[{"type":"text","text":` + string(mustJSON(text)) + `}]}`
}

func TestAnthropicClient_Generate_WireFormat(t *testing.T) {
	var captured struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float32 `json:"temperature"`
		System      string  `json:"system"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var apiKey, version string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("x-api-key")
		version = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(anthropicResponseJSON("Add feature\n\n- detail")))
	}))
	defer server.Close()

	client := newTestAnthropicClient(server.URL)
	req := &Request{
		System:      "system prompt",
		User:        "user diff",
		Model:       "claude-test",
		Temperature: 0.5,
	}
	text, err := client.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if text != "Add feature\n\n- detail" {
		t.Errorf("Generate() = %q", text)
	}
	if apiKey != "sk-ant-test" {
		t.Errorf("x-api-key = %q", apiKey)
	}
	if version != anthropicVersion {
		t.Errorf("anthropic-version = %q, want %q", version, anthropicVersion)
	}
	if captured.Model != "claude-test" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.MaxTokens != anthropicMaxTokens {
		t.Errorf("max_tokens = %d, want %d", captured.MaxTokens, anthropicMaxTokens)
	}
	if captured.Temperature != 0.5 {
		t.Errorf("temperature = %v, want 0.5", captured.Temperature)
	}
	// The system prompt travels in the top-level system field, not as a
	// message.
	if captured.System != "system prompt" {
		t.Errorf("system = %q", captured.System)
	}
	if len(captured.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "user" || captured.Messages[0].Content != "user diff" {
		t.Errorf("unexpected user message: %+v", captured.Messages[0])
	}
}

func TestAnthropicClient_Generate_AuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	client := newTestAnthropicClient(server.URL)
	_, err := client.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected authentication error")
	}
	if code := apperrors.CodeOf(err); code != apperrors.ErrAuthenticationFailed {
		t.Errorf("expected ErrAuthenticationFailed, got %v", code)
	}
}

func TestAnthropicClient_Generate_ServerErrorRetriedOnce(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(anthropicResponseJSON("Recovered message")))
	}))
	defer server.Close()

	client := newTestAnthropicClient(server.URL)
	text, err := client.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "Recovered message" {
		t.Errorf("Generate() = %q", text)
	}
	if hits != 2 {
		t.Errorf("expected exactly one retry, got %d calls", hits)
	}
}

func TestAnthropicClient_Generate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client := newTestAnthropicClient(server.URL)
	_, err := client.Generate(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected response format error")
	}
	if code := apperrors.CodeOf(err); code != apperrors.ErrResponseFormat {
		t.Errorf("expected ErrResponseFormat, got %v", code)
	}
}
