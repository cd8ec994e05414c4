package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

const deepseekEndpoint = "https://api.deepseek.com/v1/chat/completions"

// DeepSeekClient is the Narrator backed by DeepSeek's OpenAI-compatible chat
// completions endpoint.
type DeepSeekClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewDeepSeekClient returns a Narrator that calls the DeepSeek API.
func NewDeepSeekClient(apiKey, model string) *DeepSeekClient {
	return &DeepSeekClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: deepseekEndpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithEndpoint points the client at a different URL.
func (c *DeepSeekClient) WithEndpoint(url string) *DeepSeekClient {
	c.endpoint = url
	return c
}

// ─── OPENAI-COMPATIBLE API SHAPES ────────────────────────────────────────────

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

func (c *DeepSeekClient) Explain(ctx context.Context, res scoring.RiskResult) (Narrative, error) {
	raw, err := c.call(ctx, openAIRequest{
		Model:          c.model,
		MaxTokens:      1024,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(res)},
		},
	})
	if err != nil {
		return Narrative{}, err
	}
	n, err := parseNarrative(raw, c.model)
	if err != nil {
		return Narrative{}, fmt.Errorf("deepseek: %w", err)
	}
	return n, nil
}

// call sends one request and returns the content of the first choice.
func (c *DeepSeekClient) call(ctx context.Context, reqBody openAIRequest) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("deepseek: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("deepseek: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepseek: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("deepseek: read response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("deepseek: unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("deepseek: API error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepseek: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("deepseek: no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}
