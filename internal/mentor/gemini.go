package mentor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hackfund/server/internal/config"
	"github.com/hackfund/server/internal/shared"
)

// GeminiClient calls a generateContent-style endpoint for the mentorship
// stage. The API key travels as a query parameter, per that API's
// convention.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGeminiClient builds a mentor stage client from configuration.
func NewGeminiClient(cfg config.MentorConfig) *GeminiClient {
	timeout := cfg.StageTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GeminiClient{
		apiKey:  cfg.MentorAPIKey,
		baseURL: strings.TrimSuffix(cfg.MentorURL, "/"),
		model:   cfg.MentorModel,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateContentRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Mentor composes a single prompt from the request and asks for a bounded
// completion. Same fail-fast and retry-once behavior as the research stage.
func (c *GeminiClient) Mentor(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("mentor: %w", ErrMissingAPIKey)
	}

	var content string
	err := shared.RetryOnce(ctx, func() error {
		var callErr error
		content, callErr = c.call(ctx, req)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *GeminiClient) call(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(generateContentRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPrompt(req)}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 300,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal mentor request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create mentor request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call mentor API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("mentor API status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode mentor response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == "" {
		return "", fmt.Errorf("mentor response contained no completion")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// buildPrompt embeds project context, purchased offerings, remaining
// budget, research findings and the user's message into one mentorship
// prompt.
func buildPrompt(req Request) string {
	purchased := "None"
	if len(req.PurchasedItemNames) > 0 {
		purchased = strings.Join(req.PurchasedItemNames, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a wise coding mentor. Project: %s.\n\n", req.ProjectContext)
	b.WriteString("Give simple, thoughtful advice. Include:\n")
	b.WriteString("- Clear solution\n")
	b.WriteString("- Code example if needed\n")
	fmt.Fprintf(&b, "- Use purchased APIs: %s\n", purchased)
	fmt.Fprintf(&b, "- Budget suggestions: %s\n", req.RemainingBudget.USD())

	if len(req.RecentHistory) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, msg := range req.RecentHistory {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
		}
	}

	fmt.Fprintf(&b, "\nResearch: %s\n\n", req.ResearchFindings)
	fmt.Fprintf(&b, "User: %s\n\n", req.UserMessage)
	b.WriteString("Be wise, simple, and helpful.")

	return b.String()
}
