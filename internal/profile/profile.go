package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where wonderchat stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// AI configuration
	AIProvider       string  // WONDERCHAT_AI_PROVIDER (openai or placeholder)
	AIAPIKey         string  // WONDERCHAT_AI_API_KEY
	AIBaseURL        string  // WONDERCHAT_AI_BASE_URL (default: https://api.openai.com/v1)
	AIChatModel      string  // WONDERCHAT_AI_CHAT_MODEL (default: gpt-4o-mini)
	AIEmbeddingModel string  // WONDERCHAT_AI_EMBEDDING_MODEL (default: text-embedding-3-small)
	AIDimensions     int     // WONDERCHAT_AI_DIMENSIONS (default: 1536)
	AITimeoutSeconds int     // WONDERCHAT_AI_TIMEOUT_SECONDS (default: 30)
	AITemperature    float64 // WONDERCHAT_AI_TEMPERATURE (default: 0.7)

	// Retrieval configuration
	ChunkSize           int     // WONDERCHAT_CHUNK_SIZE (default: 1000)
	ChunkOverlap        int     // WONDERCHAT_CHUNK_OVERLAP (default: 200)
	MaxChunks           int     // WONDERCHAT_MAX_CHUNKS (default: 5)
	SimilarityThreshold float64 // WONDERCHAT_SIMILARITY_THRESHOLD (default: 0.7)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIConfigured returns true if a real embedding/chat provider is configured.
// When false the server falls back to the deterministic placeholder embedder.
func (p *Profile) IsAIConfigured() bool {
	return p.AIProvider == "openai" && p.AIAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FromEnv loads AI and retrieval configuration from environment variables.
func (p *Profile) FromEnv() {
	p.AIProvider = getEnvOrDefault("WONDERCHAT_AI_PROVIDER", "openai")
	p.AIAPIKey = os.Getenv("WONDERCHAT_AI_API_KEY")
	p.AIBaseURL = getEnvOrDefault("WONDERCHAT_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIChatModel = getEnvOrDefault("WONDERCHAT_AI_CHAT_MODEL", "gpt-4o-mini")
	p.AIEmbeddingModel = getEnvOrDefault("WONDERCHAT_AI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.AIDimensions = getIntEnvOrDefault("WONDERCHAT_AI_DIMENSIONS", 1536)
	p.AITimeoutSeconds = getIntEnvOrDefault("WONDERCHAT_AI_TIMEOUT_SECONDS", 30)
	p.AITemperature = getFloatEnvOrDefault("WONDERCHAT_AI_TEMPERATURE", 0.7)

	p.ChunkSize = getIntEnvOrDefault("WONDERCHAT_CHUNK_SIZE", 1000)
	p.ChunkOverlap = getIntEnvOrDefault("WONDERCHAT_CHUNK_OVERLAP", 200)
	p.MaxChunks = getIntEnvOrDefault("WONDERCHAT_MAX_CHUNKS", 5)
	p.SimilarityThreshold = getFloatEnvOrDefault("WONDERCHAT_SIMILARITY_THRESHOLD", 0.7)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "wonderchat")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/wonderchat"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("wonderchat_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.AIDimensions <= 0 {
		return errors.Errorf("invalid embedding dimension: %d", p.AIDimensions)
	}
	if p.ChunkSize <= 0 || p.ChunkOverlap < 0 {
		return errors.Errorf("invalid chunking configuration: size=%d overlap=%d", p.ChunkSize, p.ChunkOverlap)
	}

	return nil
}
