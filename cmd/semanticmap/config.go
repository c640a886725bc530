package main

import (
	"fmt"
	"os"
	"time"

	"github.com/botirk38/semanticmap/types"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML layout of --config.
type fileConfig struct {
	Provider providerConfig `yaml:"provider"`
	Cache    cacheConfig    `yaml:"cache"`
	Analysis analysisConfig `yaml:"analysis"`
}

type providerConfig struct {
	Type    string `yaml:"type"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	OrgID   string `yaml:"org_id"`
	// APIKeyEnv names the environment variable holding the key.
	APIKeyEnv string `yaml:"api_key_env"`
	BatchSize int    `yaml:"batch_size"`
	MaxTokens int    `yaml:"max_tokens"`
}

type cacheConfig struct {
	// Type is "lru", "redis" or empty for no cache.
	Type     string        `yaml:"type"`
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
	URL      string        `yaml:"url"`
	Database int           `yaml:"database"`
	Prefix   string        `yaml:"prefix"`
}

type analysisConfig struct {
	Norm01   bool   `yaml:"norm01"`
	IDColumn string `yaml:"id_column"`
	// Clamp switches ±1 handling from exclusion to clamping at ±(1 - Clamp).
	Clamp float64 `yaml:"clamp"`
}

var defaultKeyEnv = map[types.ProviderType]string{
	types.ProviderOpenAI: "OPENAI_API_KEY",
	types.ProviderGemini: "GEMINI_API_KEY",
}

func defaultConfig() *fileConfig {
	return &fileConfig{
		Provider: providerConfig{Type: string(types.ProviderOpenAI)},
	}
}

// loadConfig reads path over the defaults. An empty path returns the defaults.
func loadConfig(path string) (*fileConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// loadEnv loads envFile, or ./.env when envFile is empty. A missing default
// file is not an error.
func loadEnv(envFile string) error {
	if envFile == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// providerSettings resolves the API key from the environment into an explicit config.
func (c *fileConfig) providerSettings() types.ProviderConfig {
	pt := types.ProviderType(c.Provider.Type)
	keyEnv := c.Provider.APIKeyEnv
	if keyEnv == "" {
		keyEnv = defaultKeyEnv[pt]
	}

	var apiKey string
	if keyEnv != "" {
		apiKey = os.Getenv(keyEnv)
	}

	return types.ProviderConfig{
		Type:      pt,
		APIKey:    apiKey,
		BaseURL:   c.Provider.BaseURL,
		OrgID:     c.Provider.OrgID,
		Model:     c.Provider.Model,
		BatchSize: c.Provider.BatchSize,
		MaxTokens: c.Provider.MaxTokens,
	}
}

func (c *fileConfig) backendSettings() types.BackendConfig {
	return types.BackendConfig{
		Capacity:         c.Cache.Capacity,
		TTL:              c.Cache.TTL,
		ConnectionString: c.Cache.URL,
		Database:         c.Cache.Database,
		Prefix:           c.Cache.Prefix,
	}
}
