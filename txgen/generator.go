package txgen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"cryptosimchain_go/utils"
)

// TxType classifies a generated transaction.
type TxType string

const (
	TxTypeBuy      TxType = "buy"
	TxTypeSell     TxType = "sell"
	TxTypeTransfer TxType = "transfer"
)

// Default generation parameters.
const (
	DefaultBuyProbability      = 0.45
	DefaultSellProbability     = 0.35
	DefaultTransferProbability = 0.20

	DefaultMinAmount = 1.0
	DefaultMaxAmount = 10000.0

	// WhaleThreshold is the probability that a generated transaction uses the
	// whale amount range instead of the retail range.
	WhaleThreshold = 0.1

	whaleSupplyShare    = 0.6
	exchangeSupplyShare = 0.10
	treasurySupplyShare = 0.05
)

// GeneratedTransaction is a sampled transaction ready to be submitted to the
// ledger.
type GeneratedTransaction struct {
	Type   TxType  `json:"type"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// DistributionStats summarizes the wallet balance distribution.
type DistributionStats struct {
	Holders int     `json:"holders"`
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

/**
 * Generator produces a synthetic wallet population and samples buy/sell/
 * transfer transactions against it. Given the same seed it produces the same
 * wallets and the same transaction stream. Wallet addresses are
 * content-derived hex strings, so collisions are negligible rather than
 * impossible by construction.
 */
type Generator struct {
	wallets         []string
	walletBalances  map[string]float64
	ExchangeAddress string
	TreasuryAddress string

	buyProbability      float64
	sellProbability     float64
	transferProbability float64

	minAmount float64
	maxAmount float64

	rng   *rand.Rand
	mutex sync.RWMutex
}

// NewGenerator creates a generator with a time-seeded random source.
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator creates a generator with a deterministic random source.
func NewSeededGenerator(seed int64) *Generator {
	g := &Generator{
		walletBalances:      make(map[string]float64),
		buyProbability:      DefaultBuyProbability,
		sellProbability:     DefaultSellProbability,
		transferProbability: DefaultTransferProbability,
		minAmount:           DefaultMinAmount,
		maxAmount:           DefaultMaxAmount,
		rng:                 utils.NewSeededRand(seed),
	}
	g.ExchangeAddress = g.generateAddress("EXCHANGE")
	g.TreasuryAddress = g.generateAddress("TREASURY")
	return g
}

// generateAddress derives a wallet address from the prefix and two random
// draws: "0x" plus the first 40 hex chars of a SHA-256 digest.
func (g *Generator) generateAddress(prefix string) string {
	seedData := fmt.Sprintf("%s%f%f", prefix, g.rng.Float64(), g.rng.Float64())
	hash := sha256.Sum256([]byte(seedData))
	return "0x" + hex.EncodeToString(hash[:])[:40]
}

/**
 * InitializeWallets creates the wallet population and the initial token
 * distribution: a whale cohort of max(1, count/10) wallets shares 60% of the
 * supply with +/-20% individual variance, the remaining wallets split the rest
 * with 50-150% variance, and the exchange and treasury addresses are credited
 * 10% and 5% respectively. The independent variance multipliers mean the
 * distribution does not exactly conserve the requested supply; this is
 * accepted simulation noise.
 */
func (g *Generator) InitializeWallets(count int, initialSupply float64) map[string]float64 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.wallets = make([]string, count)
	for i := 0; i < count; i++ {
		g.wallets[i] = g.generateAddress(fmt.Sprintf("W%d", i))
	}

	distribution := make(map[string]float64, count+2)
	remaining := initialSupply

	whaleCount := max(1, count/10)
	if whaleCount > count {
		whaleCount = count
	}
	whaleShare := 0.0
	if whaleCount > 0 {
		whaleShare = initialSupply * whaleSupplyShare / float64(whaleCount)
	}

	for _, wallet := range g.wallets[:whaleCount] {
		amount := whaleShare * (0.8 + g.rng.Float64()*0.4)
		distribution[wallet] = amount
		remaining -= amount
	}

	regularWallets := g.wallets[whaleCount:]
	if len(regularWallets) > 0 {
		share := remaining / float64(len(regularWallets))
		for _, wallet := range regularWallets {
			amount := share * (0.5 + g.rng.Float64())
			distribution[wallet] = max(0, amount)
		}
	}

	distribution[g.ExchangeAddress] = initialSupply * exchangeSupplyShare
	distribution[g.TreasuryAddress] = initialSupply * treasurySupplyShare

	g.walletBalances = make(map[string]float64, len(distribution))
	for addr, amount := range distribution {
		g.walletBalances[addr] = amount
	}

	utils.LogInfo("Initialized %d wallets (%d whales) with supply %.2f", count, whaleCount, initialSupply)
	return distribution
}

// RandomWallet returns a random wallet address, excluding the given one. A
// fresh address is minted when no candidate remains.
func (g *Generator) RandomWallet(exclude string) string {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.randomWalletLocked(exclude)
}

func (g *Generator) randomWalletLocked(exclude string) string {
	candidates := make([]string, 0, len(g.wallets))
	for _, w := range g.wallets {
		if w != exclude {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return g.generateAddress("NEW")
	}
	return candidates[g.rng.Intn(len(candidates))]
}

/**
 * GenerateTransaction samples one transaction: type with probabilities
 * buy 0.45 / sell 0.35 / transfer 0.20, amount from the whale range
 * [max/2, max] with 10% probability or the retail range [min, max/10]
 * otherwise, rounded to two decimals. Buys flow exchange->wallet, sells
 * wallet->exchange, transfers between two distinct wallets.
 */
func (g *Generator) GenerateTransaction() GeneratedTransaction {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	var txType TxType
	r := g.rng.Float64()
	switch {
	case r < g.buyProbability:
		txType = TxTypeBuy
	case r < g.buyProbability+g.sellProbability:
		txType = TxTypeSell
	default:
		txType = TxTypeTransfer
	}

	var amount float64
	if g.rng.Float64() < WhaleThreshold {
		amount = g.maxAmount*0.5 + g.rng.Float64()*g.maxAmount*0.5
	} else {
		amount = g.minAmount + g.rng.Float64()*(g.maxAmount*0.1-g.minAmount)
	}
	amount = math.Round(amount*100) / 100

	var from, to string
	switch txType {
	case TxTypeBuy:
		from = g.ExchangeAddress
		to = g.randomWalletLocked("")
	case TxTypeSell:
		from = g.randomWalletLocked("")
		to = g.ExchangeAddress
	default:
		from = g.randomWalletLocked("")
		to = g.randomWalletLocked(from)
	}

	return GeneratedTransaction{
		Type:   txType,
		From:   from,
		To:     to,
		Amount: amount,
	}
}

// GenerateBatch samples count transactions.
func (g *Generator) GenerateBatch(count int) []GeneratedTransaction {
	out := make([]GeneratedTransaction, count)
	for i := 0; i < count; i++ {
		out[i] = g.GenerateTransaction()
	}
	return out
}

// UpdateBalance adds or subtracts from a wallet's tracked balance, clamping
// at zero.
func (g *Generator) UpdateBalance(address string, amount float64, isAdd bool) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	current := g.walletBalances[address]
	if isAdd {
		g.walletBalances[address] = current + amount
	} else {
		g.walletBalances[address] = max(0, current-amount)
	}
}

// HolderCount returns the number of wallets with a strictly positive balance.
func (g *Generator) HolderCount() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	holders := 0
	for _, bal := range g.walletBalances {
		if bal > 0 {
			holders++
		}
	}
	return holders
}

// WalletCount returns the size of the generated wallet population, excluding
// the utility addresses.
func (g *Generator) WalletCount() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.wallets)
}

// GetDistributionStats summarizes the tracked balance distribution. Min is
// the smallest strictly positive balance.
func (g *Generator) GetDistributionStats() DistributionStats {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if len(g.walletBalances) == 0 {
		return DistributionStats{}
	}

	var stats DistributionStats
	minPositive := math.Inf(1)
	for _, bal := range g.walletBalances {
		stats.Total += bal
		if bal > stats.Max {
			stats.Max = bal
		}
		if bal > 0 {
			stats.Holders++
			if bal < minPositive {
				minPositive = bal
			}
		}
	}
	stats.Average = stats.Total / float64(len(g.walletBalances))
	if stats.Holders > 0 {
		stats.Min = minPositive
	}
	return stats
}
