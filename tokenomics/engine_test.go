package tokenomics

import (
	"math"
	"testing"
)

func TestUpdateSupplyClamps(t *testing.T) {
	config := DefaultConfig()
	config.TotalSupply = 1000
	e := NewEngine(config)
	e.Initialize(900, config.InitialPrice)

	if got := e.UpdateSupply(500, true); got != 1000 {
		t.Errorf("mint past cap: got %v want 1000", got)
	}
	if got := e.UpdateSupply(5000, false); got != 0 {
		t.Errorf("burn past zero: got %v want 0", got)
	}
}

func TestApplyBlockRewardTruncation(t *testing.T) {
	config := DefaultConfig()
	config.TotalSupply = 1000
	config.BlockReward = 50
	e := NewEngine(config)
	e.Initialize(990, config.InitialPrice)

	if got := e.ApplyBlockReward("MINER"); got != 10 {
		t.Errorf("truncated reward: got %v want 10", got)
	}
	if got := e.CirculatingSupply(); got != 1000 {
		t.Errorf("circulating supply after truncated reward: got %v want 1000", got)
	}
	if got := e.ApplyBlockReward("MINER"); got != 0 {
		t.Errorf("reward at cap: got %v want 0", got)
	}
}

func TestApplyBlockRewardFull(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.Initialize(500_000, DefaultInitialPrice)

	if got := e.ApplyBlockReward("MINER"); got != DefaultBlockReward {
		t.Errorf("full reward: got %v want %v", got, DefaultBlockReward)
	}
}

func TestCalculatePricePressureDirection(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.Initialize(500_000, DefaultInitialPrice)

	e.AddBuyPressure(10_000)
	up := e.CalculatePrice(1)
	if up <= DefaultInitialPrice {
		t.Errorf("net buy pressure should raise the price: got %v", up)
	}

	e.AddSellPressure(50_000)
	down := e.CalculatePrice(2)
	if down >= up {
		t.Errorf("net sell pressure should lower the price: got %v from %v", down, up)
	}
}

func TestCalculatePricePressureDecay(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.Initialize(500_000, DefaultInitialPrice)

	e.AddBuyPressure(1000)
	e.AddSellPressure(400)
	e.CalculatePrice(1)

	buy, sell := e.Pressures()
	if math.Abs(buy-1000*PressureDecay) > 1e-9 {
		t.Errorf("buy pressure after decay: got %v want %v", buy, 1000*PressureDecay)
	}
	if math.Abs(sell-400*PressureDecay) > 1e-9 {
		t.Errorf("sell pressure after decay: got %v want %v", sell, 400*PressureDecay)
	}

	// Decay applies on every calculation, including when nothing changed.
	e.CalculatePrice(2)
	buy2, _ := e.Pressures()
	if math.Abs(buy2-buy*PressureDecay) > 1e-9 {
		t.Errorf("buy pressure after second decay: got %v want %v", buy2, buy*PressureDecay)
	}
}

func TestCalculatePriceZeroSupply(t *testing.T) {
	e := NewEngine(DefaultConfig())

	e.AddBuyPressure(1_000_000)
	if got := e.CalculatePrice(1); got != DefaultInitialPrice {
		t.Errorf("price with zero circulating supply: got %v want %v", got, DefaultInitialPrice)
	}
}

func TestCalculatePriceBounds(t *testing.T) {
	config := DefaultConfig()
	config.MinPrice = 0.005
	config.MaxPrice = 0.02
	e := NewEngine(config)
	e.Initialize(100, config.InitialPrice)

	e.AddSellPressure(1_000_000)
	if got := e.CalculatePrice(1); got != config.MinPrice {
		t.Errorf("price should clamp to MinPrice: got %v want %v", got, config.MinPrice)
	}

	e.AddBuyPressure(10_000_000)
	if got := e.CalculatePrice(2); got != config.MaxPrice {
		t.Errorf("price should clamp to MaxPrice: got %v want %v", got, config.MaxPrice)
	}
}

func TestValuationMetrics(t *testing.T) {
	config := DefaultConfig()
	config.TotalSupply = 1000
	config.InitialPrice = 2
	e := NewEngine(config)
	e.Initialize(400, 2)

	if got := e.MarketCap(); got != 800 {
		t.Errorf("market cap: got %v want 800", got)
	}
	if got := e.FullyDilutedValuation(); got != 2000 {
		t.Errorf("FDV: got %v want 2000", got)
	}
	if got := e.SupplyRatio(); got != 0.4 {
		t.Errorf("supply ratio: got %v want 0.4", got)
	}
}

func TestGetStatsSnapshot(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.Initialize(500_000, DefaultInitialPrice)
	e.AddBuyPressure(100)

	stats := e.GetStats()
	if stats.CirculatingSupply != 500_000 {
		t.Errorf("stats circulating supply: got %v", stats.CirculatingSupply)
	}
	if stats.BuyPressure != 100 {
		t.Errorf("stats buy pressure: got %v", stats.BuyPressure)
	}
	if stats.TotalSupply != DefaultTotalSupply {
		t.Errorf("stats total supply: got %v", stats.TotalSupply)
	}
}
