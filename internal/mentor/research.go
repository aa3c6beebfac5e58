package mentor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hackfund/server/internal/config"
	"github.com/hackfund/server/internal/shared"
)

// ErrMissingAPIKey is returned before any network attempt when a stage
// client has no credential configured.
var ErrMissingAPIKey = errors.New("API key not configured")

// ResearchClient calls an OpenAI-compatible chat-completions endpoint to
// research documentation and APIs for the team's project.
type ResearchClient struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewResearchClient builds a research stage client from configuration.
func NewResearchClient(cfg config.MentorConfig) *ResearchClient {
	timeout := cfg.StageTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ResearchClient{
		apiKey: cfg.ResearchAPIKey,
		url:    cfg.ResearchURL,
		model:  cfg.ResearchModel,
		client: &http.Client{Timeout: timeout},
	}
}

type chatCompletionsRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Research posts the query with a documentation-expert system instruction
// embedding the project context. Transport failures, non-2xx statuses and
// malformed payloads come back as errors; the orchestrator folds them into
// the conversation rather than aborting the turn. Transient failures are
// retried once.
func (c *ResearchClient) Research(ctx context.Context, query, projectContext string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("research: %w", ErrMissingAPIKey)
	}

	var content string
	err := shared.RetryOnce(ctx, func() error {
		var callErr error
		content, callErr = c.call(ctx, query, projectContext)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *ResearchClient) call(ctx context.Context, query, projectContext string) (string, error) {
	reqBody := chatCompletionsRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "system",
				Content: fmt.Sprintf("You are a technical documentation expert. Research and provide insights about the latest APIs, technologies, and best practices for the project: %s. Focus on current trends, documentation, and implementation examples.", projectContext),
			},
			{Role: "user", Content: query},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal research request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create research request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call research API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("research API status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var parsed chatCompletionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode research response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("research response contained no completion")
	}

	return parsed.Choices[0].Message.Content, nil
}
