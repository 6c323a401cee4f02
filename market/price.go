package market

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"cryptosimchain_go/utils"
)

const (
	// FloorPrice is the absolute lower bound on the simulated price.
	FloorPrice = 0.0001

	// DefaultVolatility is the per-tick volatility cap used when no intensity
	// preset overrides it.
	DefaultVolatility = 0.05

	defaultTrendStrength     = 0.3
	defaultTrendDecay        = 0.95
	defaultReversionStrength = 0.1
	marketImpactScale        = 0.1
	supportResistanceEffect  = 0.02
	supportResistanceBand    = 0.05 // Within 5% of a level
	meanPriceEMAWeight       = 0.01
	volatilityWindow         = 20
	maxHistoryPoints         = 1000 // Retained sample window, oldest dropped first
)

// PricePoint is one (timestamp, price) sample of the price history.
type PricePoint struct {
	Timestamp float64 `json:"timestamp"`
	Price     float64 `json:"price"`
}

// Stats is a read-only snapshot of the price process diagnostics.
type Stats struct {
	CurrentPrice    float64 `json:"current_price"`
	InitialPrice    float64 `json:"initial_price"`
	AllTimeHigh     float64 `json:"all_time_high"`
	AllTimeLow      float64 `json:"all_time_low"`
	PriceChangePct  float64 `json:"price_change_pct"`
	VolatilityIndex float64 `json:"volatility_index"`
	Trend           float64 `json:"trend"`
	DataPoints      int     `json:"data_points"`
}

/**
 * PriceSimulator advances a stochastic price one step per simulation tick by
 * summing four independent forces: a zero-mean Gaussian draw (Brownian
 * motion), reversion toward a slow EMA mean, a decaying directional trend fed
 * by market impact, and stacked support/resistance nudges. The summed change
 * is clamped to the volatility cap before being applied.
 */
type PriceSimulator struct {
	initialPrice float64
	currentPrice float64
	volatility   float64 // Max fractional change per tick

	trend             float64 // Directional bias in roughly [-1, 1], decays each tick
	trendStrength     float64
	trendDecay        float64
	meanPrice         float64 // EMA of observed price
	reversionStrength float64

	supportLevels    []float64
	resistanceLevels []float64

	allTimeHigh  float64
	allTimeLow   float64
	priceHistory []PricePoint
	priceChanges []float64 // Per-tick fractional changes

	rng   *rand.Rand
	mutex sync.RWMutex
}

// NewPriceSimulator creates a simulator starting at initialPrice with the
// given per-tick volatility cap and a time-seeded random source.
func NewPriceSimulator(initialPrice, volatility float64) *PriceSimulator {
	return NewSeededPriceSimulator(initialPrice, volatility, time.Now().UnixNano())
}

// NewSeededPriceSimulator creates a simulator with a deterministic random
// source, for reproducible runs.
func NewSeededPriceSimulator(initialPrice, volatility float64, seed int64) *PriceSimulator {
	now := float64(time.Now().UnixNano()) / 1e9
	return &PriceSimulator{
		initialPrice:      initialPrice,
		currentPrice:      initialPrice,
		volatility:        volatility,
		trendStrength:     defaultTrendStrength,
		trendDecay:        defaultTrendDecay,
		meanPrice:         initialPrice,
		reversionStrength: defaultReversionStrength,
		allTimeHigh:       initialPrice,
		allTimeLow:        initialPrice,
		priceHistory:      []PricePoint{{Timestamp: now, Price: initialPrice}},
		rng:               utils.NewSeededRand(seed),
	}
}

// SetInitialPrice resets the process to a new starting price, clearing
// history and statistics.
func (ps *PriceSimulator) SetInitialPrice(price float64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	now := float64(time.Now().UnixNano()) / 1e9
	ps.initialPrice = price
	ps.currentPrice = price
	ps.meanPrice = price
	ps.allTimeHigh = price
	ps.allTimeLow = price
	ps.priceHistory = []PricePoint{{Timestamp: now, Price: price}}
	ps.priceChanges = nil
}

// SetVolatility adjusts the per-tick volatility cap (intensity presets).
func (ps *PriceSimulator) SetVolatility(volatility float64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	ps.volatility = volatility
}

/**
 * AddMarketImpact blends net buy/sell flow into the trend. The impact is
 * net flow over total supply scaled down by a factor of 10; it moves only the
 * trend, never the price directly. Returns the computed impact.
 */
func (ps *PriceSimulator) AddMarketImpact(buyVolume, sellVolume, totalSupply float64) float64 {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	if totalSupply == 0 {
		return 0
	}

	netFlow := buyVolume - sellVolume
	impact := (netFlow / totalSupply) * marketImpactScale

	ps.trend = ps.trend*ps.trendDecay + impact*(1-ps.trendDecay)
	return impact
}

func (ps *PriceSimulator) brownianMotion() float64 {
	return ps.rng.NormFloat64() * ps.volatility
}

func (ps *PriceSimulator) meanReversion() float64 {
	if ps.meanPrice == 0 {
		return 0
	}
	deviation := (ps.meanPrice - ps.currentPrice) / ps.meanPrice
	return deviation * ps.reversionStrength
}

func (ps *PriceSimulator) trendComponent() float64 {
	return ps.trend * ps.trendStrength
}

// supportResistanceComponent stacks +0.02 for every support level the price
// sits within 5% above and -0.02 for every resistance level it sits within 5%
// below. Multiple levels are additive, not exclusive.
func (ps *PriceSimulator) supportResistanceComponent() float64 {
	effect := 0.0
	for _, support := range ps.supportLevels {
		if 0.95*support <= ps.currentPrice && ps.currentPrice <= support {
			effect += supportResistanceEffect
		}
	}
	for _, resistance := range ps.resistanceLevels {
		if resistance <= ps.currentPrice && ps.currentPrice <= 1.05*resistance {
			effect -= supportResistanceEffect
		}
	}
	return effect
}

/**
 * UpdatePrice advances the process one tick: the four components are summed,
 * clamped to the volatility cap, applied multiplicatively and floored at
 * FloorPrice. History, all-time extremes, the EMA mean and the trend decay
 * are then refreshed. Returns the new price.
 */
func (ps *PriceSimulator) UpdatePrice(timestamp float64) float64 {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	totalChange := ps.brownianMotion() + ps.meanReversion() + ps.trendComponent() + ps.supportResistanceComponent()

	changeFactor := max(-ps.volatility, min(ps.volatility, totalChange))
	newPrice := ps.currentPrice * (1 + changeFactor)
	newPrice = max(FloorPrice, newPrice)

	priceChange := 0.0
	if ps.currentPrice > 0 {
		priceChange = (newPrice - ps.currentPrice) / ps.currentPrice
	}
	ps.priceChanges = append(ps.priceChanges, priceChange)

	ps.currentPrice = newPrice
	ps.priceHistory = append(ps.priceHistory, PricePoint{Timestamp: timestamp, Price: newPrice})
	if len(ps.priceHistory) > maxHistoryPoints {
		ps.priceHistory = ps.priceHistory[len(ps.priceHistory)-maxHistoryPoints:]
	}
	if len(ps.priceChanges) > maxHistoryPoints {
		ps.priceChanges = ps.priceChanges[len(ps.priceChanges)-maxHistoryPoints:]
	}

	ps.allTimeHigh = max(ps.allTimeHigh, newPrice)
	ps.allTimeLow = min(ps.allTimeLow, newPrice)

	ps.meanPrice = ps.meanPrice*(1-meanPriceEMAWeight) + newPrice*meanPriceEMAWeight
	ps.trend *= ps.trendDecay

	return newPrice
}

// CurrentPrice returns the current price.
func (ps *PriceSimulator) CurrentPrice() float64 {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	return ps.currentPrice
}

// InitialPrice returns the starting price of the current run.
func (ps *PriceSimulator) InitialPrice() float64 {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	return ps.initialPrice
}

// AllTimeHigh returns the highest price observed.
func (ps *PriceSimulator) AllTimeHigh() float64 {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	return ps.allTimeHigh
}

// AllTimeLow returns the lowest price observed.
func (ps *PriceSimulator) AllTimeLow() float64 {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	return ps.allTimeLow
}

// PriceChange24h approximates the 24h change as the percentage difference
// between the first retained sample and the current price. History is not
// pruned by calendar time, so this covers the retained window only.
func (ps *PriceSimulator) PriceChange24h() float64 {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	if len(ps.priceHistory) < 2 {
		return 0
	}
	oldPrice := ps.priceHistory[0].Price
	if oldPrice == 0 {
		return 0
	}
	return ((ps.currentPrice - oldPrice) / oldPrice) * 100
}

// AddSupportLevel registers a support price level.
func (ps *PriceSimulator) AddSupportLevel(price float64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	ps.supportLevels = append(ps.supportLevels, price)
}

// AddResistanceLevel registers a resistance price level.
func (ps *PriceSimulator) AddResistanceLevel(price float64) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	ps.resistanceLevels = append(ps.resistanceLevels, price)
}

// VolatilityIndex is the root mean square of the last 20 per-tick fractional
// changes, expressed as a percentage.
func (ps *PriceSimulator) VolatilityIndex() float64 {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	if len(ps.priceChanges) < 2 {
		return 0
	}

	recent := ps.priceChanges
	if len(recent) > volatilityWindow {
		recent = recent[len(recent)-volatilityWindow:]
	}

	variance := 0.0
	for _, c := range recent {
		variance += c * c
	}
	variance /= float64(len(recent))
	return math.Sqrt(variance) * 100
}

// GetStats returns a price statistics snapshot.
func (ps *PriceSimulator) GetStats() Stats {
	changePct := ps.PriceChange24h()
	volIndex := ps.VolatilityIndex()

	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	return Stats{
		CurrentPrice:    ps.currentPrice,
		InitialPrice:    ps.initialPrice,
		AllTimeHigh:     ps.allTimeHigh,
		AllTimeLow:      ps.allTimeLow,
		PriceChangePct:  changePct,
		VolatilityIndex: volIndex,
		Trend:           ps.trend,
		DataPoints:      len(ps.priceHistory),
	}
}

// ChartData returns the most recent price samples, up to limit (all samples
// when limit is zero or negative).
func (ps *PriceSimulator) ChartData(limit int) []PricePoint {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	history := ps.priceHistory
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]PricePoint, len(history))
	copy(out, history)
	return out
}
