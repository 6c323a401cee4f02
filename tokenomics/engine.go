package tokenomics

import (
	"sync"

	"cryptosimchain_go/utils"
)

// Default economic parameters applied when the AI parameter bundle omits or
// malforms a field.
const (
	DefaultTotalSupply     = 1_000_000.0
	DefaultInitialPrice    = 0.01
	DefaultInflationRate   = 0.02 // 2% annual
	DefaultBlockReward     = 50.0
	DefaultStabilityFactor = 0.1 // How much supply/demand pressure affects price
	DefaultMinPrice        = 0.0001
	DefaultMaxPrice        = 1000.0

	// PressureDecay is applied multiplicatively to both pressures on every
	// price calculation, unconditionally.
	PressureDecay = 0.9
)

// Config holds the token economics parameters for one cryptocurrency.
type Config struct {
	TotalSupply        float64            `json:"totalSupply"`
	InitialPrice       float64            `json:"initialPrice"`
	InflationRate      float64            `json:"inflationRate"`
	BlockReward        float64            `json:"blockReward"`
	HolderDistribution map[string]float64 `json:"holderDistribution,omitempty"`
	StabilityFactor    float64            `json:"stabilityFactor"`
	MinPrice           float64            `json:"minPrice"`
	MaxPrice           float64            `json:"maxPrice"`
}

// DefaultConfig returns a config populated with the default parameters.
func DefaultConfig() Config {
	return Config{
		TotalSupply:     DefaultTotalSupply,
		InitialPrice:    DefaultInitialPrice,
		InflationRate:   DefaultInflationRate,
		BlockReward:     DefaultBlockReward,
		StabilityFactor: DefaultStabilityFactor,
		MinPrice:        DefaultMinPrice,
		MaxPrice:        DefaultMaxPrice,
	}
}

// Stats is a read-only snapshot of the engine state.
type Stats struct {
	TotalSupply       float64 `json:"total_supply"`
	CirculatingSupply float64 `json:"circulating_supply"`
	CurrentPrice      float64 `json:"current_price"`
	MarketCap         float64 `json:"market_cap"`
	FDV               float64 `json:"fdv"`
	SupplyRatio       float64 `json:"supply_ratio"`
	InflationRate     float64 `json:"inflation_rate"`
	BuyPressure       float64 `json:"buy_pressure"`
	SellPressure      float64 `json:"sell_pressure"`
}

/**
 * Engine manages supply-bounded minting/burning and the pressure-based price
 * formula. Circulating supply and price are mutated only through the defined
 * operations; both pressures decay on every price calculation.
 */
type Engine struct {
	config            Config
	circulatingSupply float64 // 0 <= x <= config.TotalSupply
	currentPrice      float64 // bounded by [MinPrice, MaxPrice]
	buyPressure       float64
	sellPressure      float64
	priceHistory      []PricePoint
	mutex             sync.RWMutex
}

// PricePoint is one (timestamp, price) sample.
type PricePoint struct {
	Timestamp float64 `json:"timestamp"`
	Price     float64 `json:"price"`
}

// NewEngine creates an engine for the given configuration with zero
// circulating supply and the configured initial price.
func NewEngine(config Config) *Engine {
	return &Engine{
		config:       config,
		currentPrice: config.InitialPrice,
		priceHistory: make([]PricePoint, 0),
	}
}

// Initialize sets the circulating supply and price for an already
// distributed token (after initial wallet allocation).
func (e *Engine) Initialize(circulatingSupply, currentPrice float64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.circulatingSupply = circulatingSupply
	e.currentPrice = currentPrice
	utils.LogInfo("Tokenomics initialized: circulating=%.2f price=%.6f", circulatingSupply, currentPrice)
}

/**
 * UpdateSupply mints or burns tokens, returning the new circulating supply.
 * Mints clamp to not exceed the total supply; burns clamp to not go below
 * zero.
 */
func (e *Engine) UpdateSupply(amount float64, isMint bool) float64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.updateSupplyLocked(amount, isMint)
}

func (e *Engine) updateSupplyLocked(amount float64, isMint bool) float64 {
	if isMint {
		e.circulatingSupply = min(e.circulatingSupply+amount, e.config.TotalSupply)
	} else {
		e.circulatingSupply = max(0, e.circulatingSupply-amount)
	}
	return e.circulatingSupply
}

// AddBuyPressure adds buying pressure to the market.
func (e *Engine) AddBuyPressure(amount float64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.buyPressure += amount
}

// AddSellPressure adds selling pressure to the market.
func (e *Engine) AddSellPressure(amount float64) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.sellPressure += amount
}

/**
 * CalculatePrice recomputes the price from the current supply/demand
 * pressures: the net pressure is normalized by circulating supply, dampened by
 * the stability factor and applied as a fractional change, clamped to the
 * configured [MinPrice, MaxPrice] bounds. Both pressures then decay by
 * PressureDecay, whether or not they moved the price.
 */
func (e *Engine) CalculatePrice(timestamp float64) float64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	netPressure := e.buyPressure - e.sellPressure

	pressureRatio := 0.0
	if e.circulatingSupply > 0 {
		pressureRatio = netPressure / e.circulatingSupply
	}

	priceChange := pressureRatio * e.config.StabilityFactor

	newPrice := e.currentPrice * (1 + priceChange)
	newPrice = max(e.config.MinPrice, min(e.config.MaxPrice, newPrice))

	e.currentPrice = newPrice
	e.priceHistory = append(e.priceHistory, PricePoint{Timestamp: timestamp, Price: newPrice})

	e.buyPressure *= PressureDecay
	e.sellPressure *= PressureDecay

	return newPrice
}

/**
 * ApplyBlockReward mints the configured block reward, truncated to the
 * remaining supply headroom. Returns the actually minted amount, which is
 * zero once circulating supply has reached the cap.
 */
func (e *Engine) ApplyBlockReward(minerAddress string) float64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	reward := e.config.BlockReward
	if e.circulatingSupply+reward > e.config.TotalSupply {
		reward = e.config.TotalSupply - e.circulatingSupply
	}

	if reward > 0 {
		e.updateSupplyLocked(reward, true)
		utils.LogDebug("Block reward %.2f minted to %s", reward, minerAddress)
	}
	return reward
}

// MarketCap is circulating supply times current price.
func (e *Engine) MarketCap() float64 {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.circulatingSupply * e.currentPrice
}

// FullyDilutedValuation is total supply times current price.
func (e *Engine) FullyDilutedValuation() float64 {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.config.TotalSupply * e.currentPrice
}

// SupplyRatio is circulating over total supply (zero when total is zero).
func (e *Engine) SupplyRatio() float64 {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	if e.config.TotalSupply == 0 {
		return 0
	}
	return e.circulatingSupply / e.config.TotalSupply
}

// InflationRate returns the configured annual inflation rate.
func (e *Engine) InflationRate() float64 {
	return e.config.InflationRate
}

// CirculatingSupply returns the current circulating supply.
func (e *Engine) CirculatingSupply() float64 {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.circulatingSupply
}

// TotalSupply returns the configured total supply.
func (e *Engine) TotalSupply() float64 {
	return e.config.TotalSupply
}

// CurrentPrice returns the current pressure-model price.
func (e *Engine) CurrentPrice() float64 {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.currentPrice
}

// Pressures returns the current buy and sell pressure.
func (e *Engine) Pressures() (buy, sell float64) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.buyPressure, e.sellPressure
}

// GetStats returns a tokenomics statistics snapshot.
func (e *Engine) GetStats() Stats {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	supplyRatio := 0.0
	if e.config.TotalSupply > 0 {
		supplyRatio = e.circulatingSupply / e.config.TotalSupply
	}

	return Stats{
		TotalSupply:       e.config.TotalSupply,
		CirculatingSupply: e.circulatingSupply,
		CurrentPrice:      e.currentPrice,
		MarketCap:         e.circulatingSupply * e.currentPrice,
		FDV:               e.config.TotalSupply * e.currentPrice,
		SupplyRatio:       supplyRatio,
		InflationRate:     e.config.InflationRate,
		BuyPressure:       e.buyPressure,
		SellPressure:      e.sellPressure,
	}
}
