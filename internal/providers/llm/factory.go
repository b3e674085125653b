package llm

import (
	"context"
	"fmt"
	"strings"
)

type Config struct {
	Provider    string // vertex|anthropic|openai
	Model       string
	APIKey      string
	BaseURL     string
	GCPProject  string
	GCPLocation string
}

// New builds the configured provider.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "vertex", "gemini":
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("llm: GCP project is required for vertex")
		}
		return NewVertexGemini(ctx, cfg.GCPProject, cfg.GCPLocation, cfg.Model)
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: api key is required for anthropic")
		}
		return NewAnthropic(cfg.APIKey, cfg.Model), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: api key is required for openai")
		}
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
