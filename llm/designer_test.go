package llm

import (
	"context"
	"errors"
	"testing"

	"cryptosimchain_go/tokenomics"
)

// stubProvider returns a canned response or error.
type stubProvider struct {
	response string
	err      error
}

func (p *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.response, p.err
}

func (p *stubProvider) Name() string { return "stub" }

func TestExtractJSONFencedBlock(t *testing.T) {
	response := "Here is your design:\n```json\n{\"name\": \"X\"}\n```\nEnjoy!"
	payload, ok := extractJSON(response)
	if !ok {
		t.Fatal("fenced JSON block not extracted")
	}
	if payload != `{"name": "X"}` {
		t.Errorf("extracted payload: got %q", payload)
	}
}

func TestExtractJSONWholeText(t *testing.T) {
	payload, ok := extractJSON(`  {"name": "X"}  `)
	if !ok || payload != `{"name": "X"}` {
		t.Errorf("whole-text extraction failed: %q ok=%v", payload, ok)
	}
}

func TestExtractJSONEmbedded(t *testing.T) {
	payload, ok := extractJSON(`Sure! The object {"name": "X", "symbol": "XXX"} should work.`)
	if !ok {
		t.Fatal("embedded JSON object not extracted")
	}
	if payload != `{"name": "X", "symbol": "XXX"}` {
		t.Errorf("extracted payload: got %q", payload)
	}
}

func TestExtractJSONNone(t *testing.T) {
	if _, ok := extractJSON("no json here at all"); ok {
		t.Error("extraction should fail without a JSON object")
	}
}

func TestParseGeneratedCryptoDefaults(t *testing.T) {
	crypto := parseGeneratedCrypto(`{"name": "", "symbol": "", "total_supply": -5}`)
	if crypto.Name != "NeuraCoin" || crypto.Symbol != "NURA" {
		t.Errorf("identity defaults not applied: %+v", crypto)
	}
	if crypto.TotalSupply != tokenomics.DefaultTotalSupply {
		t.Errorf("total supply default: got %v", crypto.TotalSupply)
	}
	if crypto.InitialPrice != tokenomics.DefaultInitialPrice {
		t.Errorf("initial price default: got %v", crypto.InitialPrice)
	}
	if crypto.InflationRate != tokenomics.DefaultInflationRate {
		t.Errorf("inflation rate default: got %v", crypto.InflationRate)
	}
	if crypto.BlockReward != tokenomics.DefaultBlockReward {
		t.Errorf("block reward default: got %v", crypto.BlockReward)
	}
}

func TestParseGeneratedCryptoUppercasesSymbol(t *testing.T) {
	crypto := parseGeneratedCrypto(`{"name": "Coin", "symbol": "abc"}`)
	if crypto.Symbol != "ABC" {
		t.Errorf("symbol not uppercased: %s", crypto.Symbol)
	}
}

func TestParseGeneratedCryptoRejectsBadInflation(t *testing.T) {
	crypto := parseGeneratedCrypto(`{"name": "Coin", "symbol": "C", "inflation_rate": 1.5}`)
	if crypto.InflationRate != tokenomics.DefaultInflationRate {
		t.Errorf("out-of-range inflation not defaulted: got %v", crypto.InflationRate)
	}
}

func TestParseGeneratedCryptoFallsBackWithoutJSON(t *testing.T) {
	crypto := parseGeneratedCrypto("I'm sorry, I can only chat about the weather today.")
	if crypto.Name != "NeuraCoin" || crypto.Symbol != "NURA" {
		t.Errorf("fallback identity: %+v", crypto)
	}
	if crypto.TotalSupply != tokenomics.DefaultTotalSupply {
		t.Errorf("fallback total supply: got %v", crypto.TotalSupply)
	}
	if crypto.BlockReward != tokenomics.DefaultBlockReward {
		t.Errorf("fallback block reward: got %v", crypto.BlockReward)
	}
}

func TestDesignerDesign(t *testing.T) {
	provider := &stubProvider{response: "```json\n" + `{"name": "SolarCoin", "symbol": "slr", "total_supply": 2000000, "initial_price": 0.05, "inflation_rate": 0.03, "block_reward": 25}` + "\n```"}
	d := NewDesigner(provider)

	crypto, err := d.Design(context.Background(), "solar energy")
	if err != nil {
		t.Fatalf("design: %v", err)
	}
	if crypto.Name != "SolarCoin" || crypto.Symbol != "SLR" {
		t.Errorf("design identity: %+v", crypto)
	}

	config := crypto.TokenomicsConfig()
	if config.TotalSupply != 2_000_000 || config.BlockReward != 25 {
		t.Errorf("design config: %+v", config)
	}
	// Untouched fields keep the defaults.
	if config.StabilityFactor != tokenomics.DefaultStabilityFactor {
		t.Errorf("stability factor: got %v", config.StabilityFactor)
	}

	interaction := d.LastInteraction()
	if interaction.Prompt == "" || interaction.Response == "" {
		t.Error("last interaction not recorded")
	}
	if interaction.Provider != "stub" {
		t.Errorf("interaction provider: got %s", interaction.Provider)
	}
}

func TestDesignFallsBackOnProseResponse(t *testing.T) {
	provider := &stubProvider{response: "Great question! A cryptocurrency needs careful tuning, here are some thoughts without concrete numbers."}
	d := NewDesigner(provider)

	crypto, err := d.Design(context.Background(), "ocean cleanup")
	if err != nil {
		t.Fatalf("prose response must not fail the design: %v", err)
	}
	if crypto.Name != "NeuraCoin" || crypto.Symbol != "NURA" {
		t.Errorf("fallback bundle identity: %+v", crypto)
	}
	if crypto.InitialPrice != tokenomics.DefaultInitialPrice {
		t.Errorf("fallback initial price: got %v", crypto.InitialPrice)
	}
	// The unusable exchange is still recorded for inspection.
	if d.LastInteraction().Response == "" {
		t.Error("interaction not recorded before the fallback")
	}
}

func TestDesignerProviderError(t *testing.T) {
	d := NewDesigner(&stubProvider{err: errors.New("backend down")})
	if _, err := d.Design(context.Background(), "anything"); err == nil {
		t.Error("provider error should propagate")
	}
}

func TestOfflineProviderDesign(t *testing.T) {
	d := NewDesigner(NewOfflineProvider())

	crypto, err := d.Design(context.Background(), "anything")
	if err != nil {
		t.Fatalf("offline design: %v", err)
	}
	if crypto.Name != "NeuraCoin" || crypto.Symbol != "NURA" {
		t.Errorf("offline design bundle: %+v", crypto)
	}
	if crypto.TotalSupply != tokenomics.DefaultTotalSupply {
		t.Errorf("offline total supply: got %v", crypto.TotalSupply)
	}
}

func TestOfflineProviderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewOfflineProvider()
	if _, err := p.Generate(ctx, "prompt"); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled context: got %v want context.Canceled", err)
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("LLM_MODEL", "")

	config := ConfigFromEnv()
	if config.BaseURL != DefaultBaseURL {
		t.Errorf("base url default: got %s", config.BaseURL)
	}
	if config.Model != DefaultModel {
		t.Errorf("model default: got %s", config.Model)
	}
}

func TestNewProviderFromEnvFallsBackOffline(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	if got := NewProviderFromEnv().Name(); got != "offline" {
		t.Errorf("provider without key: got %s want offline", got)
	}
}
