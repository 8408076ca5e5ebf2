package llm

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// Provider is the single model boundary used by every pipeline agent:
// one prompt in, one text out. No streaming, no multi-turn memory.
type Provider interface {
	GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error)
	GetProviderName() string
}

// ProviderType untuk factory
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
	ProviderGroq   ProviderType = "groq"
)

// ProviderConfig holds the process-wide model identity and generation
// parameters, configured once and reused by every component.
type ProviderConfig struct {
	Type ProviderType

	// API Keys
	OpenAIKey string
	GeminiKey string
	GroqKey   string

	// Model configs
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewProvider factory untuk create LLM provider
func NewProvider(cfg *ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil

	case ProviderGemini:
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required")
		}
		return NewGeminiProvider(cfg.GeminiKey, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil

	case ProviderGroq:
		if cfg.GroqKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is required")
		}
		return NewGroqProvider(cfg.GroqKey, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s", cfg.Type)
	}
}

// LoadProviderFromEnv load config dari environment variables
func LoadProviderFromEnv() (*ProviderConfig, error) {
	providerType := os.Getenv("LLM_PROVIDER")
	if providerType == "" {
		providerType = "openai" // default
	}

	cfg := &ProviderConfig{
		Type:      ProviderType(providerType),
		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
		GeminiKey: os.Getenv("GEMINI_API_KEY"),
		GroqKey:   os.Getenv("GROQ_API_KEY"),
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		cfg.Model = model
	} else {
		// Provider-specific defaults
		switch cfg.Type {
		case ProviderOpenAI:
			cfg.Model = "gpt-4o-mini"
		case ProviderGemini:
			cfg.Model = "gemini-2.5-flash"
		case ProviderGroq:
			cfg.Model = "llama-3.1-70b-versatile"
		}
	}

	cfg.Temperature = 0.7
	if t := os.Getenv("LLM_TEMPERATURE"); t != "" {
		if f, err := strconv.ParseFloat(t, 32); err == nil {
			cfg.Temperature = float32(f)
		}
	}

	// Insight and chart prompts embed stats tables and data samples, so the
	// output budget is larger than a chat reply would need.
	cfg.MaxTokens = 2048
	if m := os.Getenv("LLM_MAX_TOKENS"); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			cfg.MaxTokens = n
		}
	}

	return cfg, nil
}
