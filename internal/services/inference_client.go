package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const anthropicVersion = "2023-06-01"

var (
	// ErrUnauthorized is returned when the API key is rejected.
	ErrUnauthorized = errors.New("inference: unauthorized")
	// ErrRateLimited is returned on HTTP 429.
	ErrRateLimited = errors.New("inference: rate limited")
	// ErrUnavailable is returned on 5xx responses.
	ErrUnavailable = errors.New("inference: service unavailable")
)

// InferenceClient is an HTTP implementation of the Completer interface
// speaking the Messages API.
type InferenceClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewInferenceClient creates a new InferenceClient.
func NewInferenceClient(baseURL, apiKey, model string, timeout time.Duration) *InferenceClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &InferenceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Complete sends prompt as a single user message and returns the concatenated
// text blocks of the answer.
func (c *InferenceClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	requestBody, err := json.Marshal(messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode >= 500:
		return "", ErrUnavailable
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("inference error: %s - %s", resp.Status, string(errorBody))
	}

	var response messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}
	var buf strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			buf.WriteString(block.Text)
		}
	}
	if buf.Len() == 0 {
		return "", errors.New("inference: empty response")
	}
	return buf.String(), nil
}
