package mentor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hackfund/server/internal/config"
)

func researchConfig(url, key string) config.MentorConfig {
	return config.MentorConfig{
		ResearchAPIKey: key,
		ResearchURL:    url,
		ResearchModel:  "sixtyfour-1.0",
		StageTimeout:   5 * time.Second,
	}
}

func TestResearchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatCompletionsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "sixtyfour-1.0" {
			t.Errorf("model = %q", req.Model)
		}
		if req.MaxTokens != 1000 {
			t.Errorf("max_tokens = %d, want 1000", req.MaxTokens)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("messages = %d, want 2", len(req.Messages))
		}
		if req.Messages[0].Role != "system" || !strings.Contains(req.Messages[0].Content, "my project idea") {
			t.Errorf("system message should embed project context, got %q", req.Messages[0].Content)
		}
		if req.Messages[1].Role != "user" || req.Messages[1].Content != "what database?" {
			t.Errorf("user message = %+v", req.Messages[1])
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Postgres is fine."}},
			},
		})
	}))
	defer srv.Close()

	c := NewResearchClient(researchConfig(srv.URL, "test-key"))
	got, err := c.Research(context.Background(), "what database?", "my project idea")
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if got != "Postgres is fine." {
		t.Errorf("findings = %q", got)
	}
}

func TestResearchMissingKeyFailsFast(t *testing.T) {
	t.Parallel()

	var called atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))
	defer srv.Close()

	c := NewResearchClient(researchConfig(srv.URL, ""))
	_, err := c.Research(context.Background(), "query", "context")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
	if called.Load() {
		t.Error("no network call should be made without an API key")
	}
}

func TestResearchNon200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewResearchClient(researchConfig(srv.URL, "test-key"))
	_, err := c.Research(context.Background(), "query", "context")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestResearchEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewResearchClient(researchConfig(srv.URL, "test-key"))
	if _, err := c.Research(context.Background(), "query", "context"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestResearchMalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c := NewResearchClient(researchConfig(srv.URL, "test-key"))
	if _, err := c.Research(context.Background(), "query", "context"); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
