package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a failed response body is kept for logs.
const maxErrorBody = 4 << 10

// Client is a client for an OpenAI-compatible chat completions endpoint.
type Client struct {
	Endpoint string
	APIKey   string
	Model    string
	client   *http.Client
}

// NewClient creates a new LLM client. endpoint is the full URL of the
// completions resource and is used as is.
func NewClient(endpoint, apiKey, model string) *Client {
	return &Client{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Model:    model,
		client:   http.DefaultClient,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// ChatRequest represents the request payload for chat completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
}

// ChatChoiceMessage represents the message in a chat choice.
type ChatChoiceMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// ChatChoice represents a single choice in the chat response.
type ChatChoice struct {
	Index        int               `json:"index"`
	Message      *ChatChoiceMessage `json:"message"`
	FinishReason string             `json:"finish_reason"`
}

// ChatResponse represents the response from the chat completions API.
type ChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []*ChatChoice `json:"choices"`
}

// Complete sends the whole conversation in a single request and returns the
// content of the first choice. It makes exactly one attempt; every failure is
// reported as *CompletionError.
func (c *Client) Complete(ctx context.Context, messages []Message, params ChatParams) (string, error) {
	model := params.Model
	if model == "" {
		model = c.Model
	}

	payload := ChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &CompletionError{Reason: ReasonEncode, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &CompletionError{Reason: ReasonEncode, Err: err}
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &CompletionError{Reason: ReasonTransport, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &CompletionError{
			Reason:     ReasonStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response body: %s", string(raw)),
		}
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &CompletionError{Reason: ReasonDecode, StatusCode: resp.StatusCode, Err: err}
	}

	if len(chatResp.Choices) == 0 {
		return "", &CompletionError{Reason: ReasonNoChoices, StatusCode: resp.StatusCode}
	}

	first := chatResp.Choices[0]
	if first == nil || first.Message == nil || first.Message.Content == nil {
		return "", &CompletionError{
			Reason:     ReasonDecode,
			StatusCode: resp.StatusCode,
			Err:        errors.New("first choice has no message content"),
		}
	}

	return *first.Message.Content, nil
}
