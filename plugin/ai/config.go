package ai

import (
	"errors"
	"time"

	"github.com/wonderai/wonderchat/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string // openai, placeholder
	Model      string // text-embedding-3-small
	Dimensions int    // 1536
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
}

// LLMConfig represents chat completion configuration.
type LLMConfig struct {
	Provider    string // openai, placeholder
	Model       string // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.7
}

// NewConfigFromProfile creates AI config from profile. When no real provider
// is configured the placeholder provider is selected so the retrieval
// pipeline stays exercisable without network access.
func NewConfigFromProfile(p *profile.Profile) *Config {
	provider := p.AIProvider
	if !p.IsAIConfigured() {
		provider = "placeholder"
	}

	timeout := time.Duration(p.AITimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Config{
		Embedding: EmbeddingConfig{
			Provider:   provider,
			Model:      p.AIEmbeddingModel,
			Dimensions: p.AIDimensions,
			APIKey:     p.AIAPIKey,
			BaseURL:    p.AIBaseURL,
			Timeout:    timeout,
		},
		LLM: LLMConfig{
			Provider:    provider,
			Model:       p.AIChatModel,
			APIKey:      p.AIAPIKey,
			BaseURL:     p.AIBaseURL,
			MaxTokens:   2048,
			Temperature: float32(p.AITemperature),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Embedding.Provider == "" {
		return errors.New("embedding provider is required")
	}
	if c.Embedding.Provider != "placeholder" && c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}
	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if c.LLM.Provider != "placeholder" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	return nil
}
