package blockchain

import (
	"sync"
	"time"

	"cryptosimchain_go/utils"
)

// DefaultBlockTime is the minimum interval between sealed blocks.
const DefaultBlockTime = 2 * time.Second

// Stats is a read-only snapshot of ledger state for presentation layers.
type Stats struct {
	Blocks              int  `json:"blocks"`
	TotalTransactions   int  `json:"total_transactions"`
	PendingTransactions int  `json:"pending_transactions"`
	UniqueAddresses     int  `json:"unique_addresses"`
	IsValid             bool `json:"is_valid"`
}

/**
 * Ledger combines the block chain with the balance map it validates against.
 * Validation and balance mutation happen under one lock, so the
 * check-then-mutate sequence of AddTransaction is atomic with respect to a
 * single call.
 */
type Ledger struct {
	chain         *Blockchain
	balances      map[string]float64 // address -> balance, never negative
	blockTime     time.Duration
	lastBlockTime time.Time
	archive       *ChainArchive // optional write-through block archive
	mutex         sync.RWMutex
}

// NewLedger creates a ledger with a fresh chain (genesis included) and an
// empty balance map.
func NewLedger() *Ledger {
	return &Ledger{
		chain:         NewBlockchain(),
		balances:      make(map[string]float64),
		blockTime:     DefaultBlockTime,
		lastBlockTime: time.Now(),
	}
}

// Initialize seeds the balance map with an initial token distribution.
func (l *Ledger) Initialize(distribution map[string]float64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.balances = make(map[string]float64, len(distribution))
	for addr, amount := range distribution {
		l.balances[addr] = amount
	}
	utils.LogInfo("Ledger initialized with %d addresses", len(distribution))
}

// SetArchive attaches an optional block archive; sealed blocks are written
// through to it. The in-memory chain stays authoritative.
func (l *Ledger) SetArchive(archive *ChainArchive) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.archive = archive
}

// SetBlockTime overrides the minimum interval between sealed blocks.
func (l *Ledger) SetBlockTime(d time.Duration) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.blockTime = d
}

/**
 * AddTransaction validates and records a transfer. It returns (nil, false)
 * when the amount is not positive or the sender's balance is insufficient;
 * rejection is a normal result, not a fault. On success the sender is debited
 * (unless it is the system address), the receiver credited, and the
 * transaction appended to the pending queue.
 */
func (l *Ledger) AddTransaction(from, to string, amount float64) (*Transaction, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if amount <= 0 {
		return nil, false
	}
	if from != SystemAddress && l.balances[from] < amount {
		return nil, false
	}

	tx := NewTransaction(from, to, amount)

	if from != SystemAddress {
		l.balances[from] -= amount
	}
	l.balances[to] += amount

	l.chain.AddTransaction(tx)
	return tx, true
}

/**
 * CreateBlock seals the pending queue into a new block and resets the block
 * timer. The sealed block is written through to the archive when one is
 * attached; archive failures are logged, never propagated.
 */
func (l *Ledger) CreateBlock() *Block {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	block := l.chain.CreateBlock(nil)
	l.lastBlockTime = time.Now()

	if l.archive != nil {
		if err := l.archive.SaveBlock(block); err != nil {
			utils.LogError("Failed to archive block %d: %v", block.Index, err)
		}
	}
	return block
}

/**
 * ShouldCreateBlock reports whether the block interval has elapsed since the
 * last sealed block and the pending queue is non-empty. This is a policy
 * decision polled by the simulation loop, not an automatic timer.
 */
func (l *Ledger) ShouldCreateBlock() bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return time.Since(l.lastBlockTime) >= l.blockTime && l.chain.PendingCount() > 0
}

// Balance returns the balance of an address (zero for unknown addresses).
func (l *Ledger) Balance(address string) float64 {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.balances[address]
}

// AllBalances returns a copy of the full balance map.
func (l *Ledger) AllBalances() map[string]float64 {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	out := make(map[string]float64, len(l.balances))
	for addr, bal := range l.balances {
		out[addr] = bal
	}
	return out
}

// Chain returns a snapshot of all sealed blocks.
func (l *Ledger) Chain() []*Block {
	return l.chain.Chain()
}

// PendingTransactions returns a snapshot of the pending queue.
func (l *Ledger) PendingTransactions() []*Transaction {
	return l.chain.PendingTransactions()
}

// TotalTransactions counts transactions across all sealed blocks.
func (l *Ledger) TotalTransactions() int {
	total := 0
	for _, block := range l.chain.Chain() {
		total += len(block.Transactions)
	}
	return total
}

// IsValid validates the chain integrity.
func (l *Ledger) IsValid() bool {
	return l.chain.IsValid()
}

// GetStats returns a ledger statistics snapshot.
func (l *Ledger) GetStats() Stats {
	l.mutex.RLock()
	uniqueAddresses := len(l.balances)
	l.mutex.RUnlock()

	return Stats{
		Blocks:              l.chain.Length(),
		TotalTransactions:   l.TotalTransactions(),
		PendingTransactions: l.chain.PendingCount(),
		UniqueAddresses:     uniqueAddresses,
		IsValid:             l.chain.IsValid(),
	}
}
