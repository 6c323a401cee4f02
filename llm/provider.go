package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cryptosimchain_go/utils"
)

/**
 * Provider is the single abstraction over text-generation backends. The
 * designer depends only on this interface; the concrete backend (remote API
 * or the offline fallback) is chosen once at startup.
 */
type Provider interface {
	// Generate produces a completion for the prompt. Implementations must
	// honor context cancellation.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name identifies the backend for status reporting.
	Name() string
}

// ProviderConfig is the environment-driven provider configuration.
type ProviderConfig struct {
	APIKey  string `json:"-"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

// Default remote endpoint settings, overridable via environment.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// ConfigFromEnv reads the provider configuration from the environment:
// LLM_API_KEY, LLM_BASE_URL and LLM_MODEL.
func ConfigFromEnv() ProviderConfig {
	config := ProviderConfig{
		APIKey:  os.Getenv("LLM_API_KEY"),
		BaseURL: os.Getenv("LLM_BASE_URL"),
		Model:   os.Getenv("LLM_MODEL"),
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	return config
}

/**
 * NewProviderFromEnv selects the backend: a remote API client when an API key
 * is configured, the deterministic offline provider otherwise. The process
 * always has a working provider; missing credentials degrade, they do not
 * fail.
 */
func NewProviderFromEnv() Provider {
	config := ConfigFromEnv()
	if config.APIKey == "" {
		utils.LogInfo("No LLM API key configured, using offline provider")
		return NewOfflineProvider()
	}
	utils.LogInfo("LLM provider configured: %s (model %s)", config.BaseURL, config.Model)
	return NewAPIClient(config)
}

/**
 * OfflineProvider is the zero-dependency fallback backend. It answers design
 * prompts with a fixed, well-formed parameter bundle so the rest of the system
 * behaves identically with or without a remote model.
 */
type OfflineProvider struct{}

// NewOfflineProvider creates the offline fallback provider.
func NewOfflineProvider() *OfflineProvider {
	return &OfflineProvider{}
}

// Name identifies the backend.
func (p *OfflineProvider) Name() string {
	return "offline"
}

// offlineDesignResponse is the canned parameter bundle returned for design
// prompts. It matches the format a remote model is instructed to produce.
const offlineDesignResponse = `{
  "name": "NeuraCoin",
  "symbol": "NURA",
  "description": "A simulated utility token for decentralized AI compute markets.",
  "total_supply": 1000000,
  "initial_price": 0.01,
  "inflation_rate": 0.02,
  "block_reward": 50
}`

/**
 * Generate returns the canned design bundle for design-shaped prompts and a
 * short acknowledgment otherwise. The context is checked so cancellation
 * behaves the same as with a remote backend.
 */
func (p *OfflineProvider) Generate(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	lower := strings.ToLower(prompt)
	if strings.Contains(lower, "cryptocurrency") || strings.Contains(lower, "tokenomics") {
		return offlineDesignResponse, nil
	}
	return fmt.Sprintf("Offline provider cannot answer free-form prompts (%d chars received).", len(prompt)), nil
}
