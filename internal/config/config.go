// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	// Mentor configures the two-stage AI mentor flow. Missing API keys
	// degrade the mentor to fallback responses; they are not a startup
	// error.
	Mentor MentorConfig

	// RateLimit throttles mentor chat turns per user.
	RateLimit RateLimitConfig

	// LedgerIdleTTL is how long a team's in-memory ledger survives
	// without activity before the janitor evicts it.
	LedgerIdleTTL time.Duration
}

// MentorConfig configures the research and mentor stage clients.
type MentorConfig struct {
	ResearchAPIKey string
	ResearchURL    string
	ResearchModel  string
	MentorAPIKey   string
	MentorURL      string
	MentorModel    string
	StageTimeout   time.Duration
}

// RateLimitConfig controls per-user chat throttling.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	rateLimit := getEnvInt("CHAT_RATE_LIMIT", 20)
	if rateLimit <= 0 {
		rateLimit = 20
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/hackfund.db"),
		Mentor: MentorConfig{
			ResearchAPIKey: getEnv("RESEARCH_API_KEY", ""),
			ResearchURL:    getEnv("RESEARCH_API_URL", "https://api.sixtyfour.ai/v1/chat/completions"),
			ResearchModel:  getEnv("RESEARCH_MODEL", "sixtyfour-1.0"),
			MentorAPIKey:   getEnv("MENTOR_API_KEY", ""),
			MentorURL:      getEnv("MENTOR_API_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
			MentorModel:    getEnv("MENTOR_MODEL", "gemini-2.0-flash"),
			StageTimeout:   getEnvDuration("MENTOR_STAGE_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: rateLimit,
			WindowDuration:    getEnvDuration("CHAT_RATE_WINDOW", time.Minute),
		},
		LedgerIdleTTL: getEnvDuration("LEDGER_IDLE_TTL", 12*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Mentor.ResearchURL == "" {
		return fmt.Errorf("RESEARCH_API_URL cannot be empty")
	}
	if c.Mentor.MentorURL == "" {
		return fmt.Errorf("MENTOR_API_URL cannot be empty")
	}
	if c.Mentor.StageTimeout <= 0 {
		return fmt.Errorf("MENTOR_STAGE_TIMEOUT must be > 0")
	}
	if c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("CHAT_RATE_WINDOW must be > 0")
	}
	if c.LedgerIdleTTL <= 0 {
		return fmt.Errorf("LEDGER_IDLE_TTL must be > 0")
	}
	return nil
}

// MentorStagesEnabled returns true if both stage API keys are configured.
func (c *Config) MentorStagesEnabled() bool {
	return c.Mentor.ResearchAPIKey != "" && c.Mentor.MentorAPIKey != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
