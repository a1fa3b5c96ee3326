package ai

import (
	"testing"
	"time"

	"github.com/wonderai/wonderchat/internal/profile"
)

// TestNewConfigFromProfile_OpenAI tests OpenAI configuration.
func TestNewConfigFromProfile_OpenAI(t *testing.T) {
	prof := &profile.Profile{
		AIProvider:       "openai",
		AIAPIKey:         "test-key",
		AIBaseURL:        "https://api.openai.com/v1",
		AIChatModel:      "gpt-4o-mini",
		AIEmbeddingModel: "text-embedding-3-small",
		AIDimensions:     1536,
		AITimeoutSeconds: 15,
		AITemperature:    0.7,
	}

	cfg := NewConfigFromProfile(prof)

	if cfg.Embedding.Provider != "openai" {
		t.Errorf("Expected Embedding.Provider=openai, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("Expected Embedding.Model=text-embedding-3-small, got %s", cfg.Embedding.Model)
	}
	if cfg.Embedding.APIKey != "test-key" {
		t.Errorf("Expected Embedding.APIKey=test-key, got %s", cfg.Embedding.APIKey)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("Expected Embedding.Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.Timeout != 15*time.Second {
		t.Errorf("Expected Embedding.Timeout=15s, got %v", cfg.Embedding.Timeout)
	}

	if cfg.LLM.Provider != "openai" {
		t.Errorf("Expected LLM.Provider=openai, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("Expected LLM.Model=gpt-4o-mini, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 2048 {
		t.Errorf("Expected LLM.MaxTokens=2048, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Errorf("Expected LLM.Temperature=0.7, got %f", cfg.LLM.Temperature)
	}
}

// TestNewConfigFromProfile_Placeholder tests fallback when no provider is configured.
func TestNewConfigFromProfile_Placeholder(t *testing.T) {
	prof := &profile.Profile{
		AIEmbeddingModel: "text-embedding-3-small",
		AIDimensions:     384,
	}

	cfg := NewConfigFromProfile(prof)

	if cfg.Embedding.Provider != "placeholder" {
		t.Errorf("Expected Embedding.Provider=placeholder, got %s", cfg.Embedding.Provider)
	}
	if cfg.LLM.Provider != "placeholder" {
		t.Errorf("Expected LLM.Provider=placeholder, got %s", cfg.LLM.Provider)
	}
	if cfg.Embedding.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.Embedding.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected placeholder config to validate, got %v", err)
	}
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid openai",
			cfg: Config{
				Embedding: EmbeddingConfig{Provider: "openai", APIKey: "k", Dimensions: 1536},
				LLM:       LLMConfig{Provider: "openai", APIKey: "k"},
			},
			wantErr: false,
		},
		{
			name: "missing embedding provider",
			cfg: Config{
				Embedding: EmbeddingConfig{Dimensions: 1536},
				LLM:       LLMConfig{Provider: "openai", APIKey: "k"},
			},
			wantErr: true,
		},
		{
			name: "openai without key",
			cfg: Config{
				Embedding: EmbeddingConfig{Provider: "openai", Dimensions: 1536},
				LLM:       LLMConfig{Provider: "openai", APIKey: "k"},
			},
			wantErr: true,
		},
		{
			name: "non-positive dimensions",
			cfg: Config{
				Embedding: EmbeddingConfig{Provider: "placeholder", Dimensions: 0},
				LLM:       LLMConfig{Provider: "placeholder"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
