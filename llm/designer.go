package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cryptosimchain_go/tokenomics"
	"cryptosimchain_go/utils"
)

// GeneratedCrypto is the parameter bundle extracted from a model response.
// Zero or negative numeric fields are replaced by the tokenomics defaults.
type GeneratedCrypto struct {
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	Description   string  `json:"description"`
	TotalSupply   float64 `json:"total_supply"`
	InitialPrice  float64 `json:"initial_price"`
	InflationRate float64 `json:"inflation_rate"`
	BlockReward   float64 `json:"block_reward"`
}

// TokenomicsConfig converts the bundle into an engine configuration, filling
// the stability and price-bound fields from the defaults.
func (g *GeneratedCrypto) TokenomicsConfig() tokenomics.Config {
	config := tokenomics.DefaultConfig()
	config.TotalSupply = g.TotalSupply
	config.InitialPrice = g.InitialPrice
	config.InflationRate = g.InflationRate
	config.BlockReward = g.BlockReward
	return config
}

// Interaction captures the last prompt/response exchange for inspection.
type Interaction struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Provider string `json:"provider"`
}

/**
 * Designer turns natural-language themes into cryptocurrency parameter
 * bundles via the configured Provider. Responses are free text; the designer
 * extracts the embedded JSON object and sanitizes the numbers, so a chatty or
 * partially malformed model answer still yields a usable configuration.
 */
type Designer struct {
	provider Provider

	lastPrompt   string
	lastResponse string
	mutex        sync.RWMutex
}

// NewDesigner creates a designer on top of the given provider.
func NewDesigner(provider Provider) *Designer {
	return &Designer{provider: provider}
}

// ProviderName reports which backend the designer uses.
func (d *Designer) ProviderName() string {
	return d.provider.Name()
}

// LastInteraction returns the most recent prompt/response pair.
func (d *Designer) LastInteraction() Interaction {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return Interaction{
		Prompt:   d.lastPrompt,
		Response: d.lastResponse,
		Provider: d.provider.Name(),
	}
}

func (d *Designer) recordInteraction(prompt, response string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.lastPrompt = prompt
	d.lastResponse = response
}

func designPrompt(theme string) string {
	return fmt.Sprintf(`Design a cryptocurrency for the following theme: %s

Respond with a single JSON object with exactly these fields:
{
  "name": "...",
  "symbol": "3-5 uppercase letters",
  "description": "one sentence",
  "total_supply": number,
  "initial_price": number,
  "inflation_rate": number between 0 and 1,
  "block_reward": number
}`, theme)
}

func optimizePrompt(stats string) string {
	return fmt.Sprintf(`Given these observed market statistics for a simulated cryptocurrency:

%s

Suggest improved tokenomics parameters. Respond with a single JSON object with
the fields total_supply, initial_price, inflation_rate and block_reward, plus
a short "description" explaining the changes.`, stats)
}

/**
 * Design asks the provider for a parameter bundle matching the theme. The
 * raw exchange is recorded before parsing, so a malformed response is still
 * inspectable through LastInteraction. Malformed output is not a failure:
 * parsing falls back to the default bundle, so only a provider error fails
 * the call.
 */
func (d *Designer) Design(ctx context.Context, theme string) (*GeneratedCrypto, error) {
	prompt := designPrompt(theme)
	response, err := d.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("design generation failed: %w", err)
	}
	d.recordInteraction(prompt, response)

	crypto := parseGeneratedCrypto(response)
	utils.LogInfo("Designed cryptocurrency %s (%s)", crypto.Name, crypto.Symbol)
	return crypto, nil
}

/**
 * Optimize asks the provider for adjusted parameters given observed market
 * statistics. Parsing and sanitization are shared with Design; only the
 * prompt differs.
 */
func (d *Designer) Optimize(ctx context.Context, statsJSON string) (*GeneratedCrypto, error) {
	prompt := optimizePrompt(statsJSON)
	response, err := d.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("optimization generation failed: %w", err)
	}
	d.recordInteraction(prompt, response)

	return parseGeneratedCrypto(response), nil
}

/**
 * extractJSON pulls a JSON object out of a model response. It tries, in
 * order: a fenced code block, the whole trimmed text, and the substring from
 * the first '{' to the last '}'.
 */
func extractJSON(response string) (string, bool) {
	trimmed := strings.TrimSpace(response)

	if start := strings.Index(trimmed, "```"); start >= 0 {
		rest := trimmed[start+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate := strings.TrimSpace(rest[:end])
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
	}

	if json.Valid([]byte(trimmed)) {
		return trimmed, true
	}

	first := strings.Index(trimmed, "{")
	last := strings.LastIndex(trimmed, "}")
	if first >= 0 && last > first {
		candidate := trimmed[first : last+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}

	return "", false
}

// defaultGeneratedCrypto is the bundle used when a model response carries no
// usable JSON object.
func defaultGeneratedCrypto() *GeneratedCrypto {
	return &GeneratedCrypto{
		Name:          "NeuraCoin",
		Symbol:        "NURA",
		Description:   "An AI-generated cryptocurrency",
		TotalSupply:   tokenomics.DefaultTotalSupply,
		InitialPrice:  tokenomics.DefaultInitialPrice,
		InflationRate: tokenomics.DefaultInflationRate,
		BlockReward:   tokenomics.DefaultBlockReward,
	}
}

// parseGeneratedCrypto extracts and sanitizes the parameter bundle. A
// response without a decodable JSON object yields the default bundle rather
// than an error.
func parseGeneratedCrypto(response string) *GeneratedCrypto {
	payload, ok := extractJSON(response)
	if !ok {
		utils.LogDebug("No JSON object in model response, using default parameters")
		return defaultGeneratedCrypto()
	}

	var crypto GeneratedCrypto
	if err := json.Unmarshal([]byte(payload), &crypto); err != nil {
		utils.LogDebug("Undecodable parameter bundle (%v), using default parameters", err)
		return defaultGeneratedCrypto()
	}

	if crypto.Name == "" {
		crypto.Name = "NeuraCoin"
	}
	if crypto.Symbol == "" {
		crypto.Symbol = "NURA"
	}
	crypto.Symbol = strings.ToUpper(crypto.Symbol)
	if crypto.TotalSupply <= 0 {
		crypto.TotalSupply = tokenomics.DefaultTotalSupply
	}
	if crypto.InitialPrice <= 0 {
		crypto.InitialPrice = tokenomics.DefaultInitialPrice
	}
	if crypto.InflationRate <= 0 || crypto.InflationRate >= 1 {
		crypto.InflationRate = tokenomics.DefaultInflationRate
	}
	if crypto.BlockReward <= 0 {
		crypto.BlockReward = tokenomics.DefaultBlockReward
	}

	return &crypto
}
