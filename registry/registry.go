package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"cryptosimchain_go/blockchain"
	"cryptosimchain_go/market"
	"cryptosimchain_go/tokenomics"
	"cryptosimchain_go/txgen"
	"cryptosimchain_go/utils"
)

// ErrNotFound is returned when no cryptocurrency exists for the given id.
var ErrNotFound = errors.New("cryptocurrency not found")

// Defaults for the initial token allocation.
const (
	DefaultWalletCount = 100
	// InitialCirculationRatio is the fraction of total supply distributed to
	// wallets at initialization.
	InitialCirculationRatio = 0.5
)

// Cryptocurrency holds the descriptive state of one simulated token.
type Cryptocurrency struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Symbol            string            `json:"symbol"`
	TotalSupply       float64           `json:"totalSupply"`
	CirculatingSupply float64           `json:"circulatingSupply"`
	CurrentPrice      float64           `json:"currentPrice"`
	CreatedAt         time.Time         `json:"createdAt"`
	Tokenomics        tokenomics.Config `json:"tokenomics"`
}

// MarketCap is circulating supply times current price.
func (c *Cryptocurrency) MarketCap() float64 {
	return c.CirculatingSupply * c.CurrentPrice
}

/**
 * Instance bundles one cryptocurrency with the simulation components that
 * operate on it. The bundle is created once per initialize call and shared by
 * the simulation loop (single writer) and the presentation layer (readers).
 */
type Instance struct {
	Crypto    *Cryptocurrency
	Ledger    *blockchain.Ledger
	Engine    *tokenomics.Engine
	Generator *txgen.Generator
	PriceSim  *market.PriceSimulator
}

/**
 * NewInstance builds a fully initialized bundle: the generator allocates the
 * initial wallet distribution (half of total supply in circulation), the
 * ledger is seeded with it, and the tokenomics engine starts from the summed
 * distribution. The sum can deviate from the requested circulation because of
 * the distribution's variance multipliers; the summed value is authoritative.
 */
func NewInstance(name, symbol string, config tokenomics.Config) *Instance {
	crypto := &Cryptocurrency{
		ID:           uuid.New().String()[:8],
		Name:         name,
		Symbol:       symbol,
		TotalSupply:  config.TotalSupply,
		CurrentPrice: config.InitialPrice,
		CreatedAt:    time.Now(),
		Tokenomics:   config,
	}

	ledger := blockchain.NewLedger()
	engine := tokenomics.NewEngine(config)
	generator := txgen.NewGenerator()
	priceSim := market.NewPriceSimulator(config.InitialPrice, market.DefaultVolatility)

	distribution := generator.InitializeWallets(DefaultWalletCount, config.TotalSupply*InitialCirculationRatio)
	ledger.Initialize(distribution)

	circulating := 0.0
	for _, amount := range distribution {
		circulating += amount
	}
	crypto.CirculatingSupply = circulating
	engine.Initialize(circulating, config.InitialPrice)

	utils.LogInfo("Cryptocurrency %s (%s) initialized with id %s", name, symbol, crypto.ID)

	return &Instance{
		Crypto:    crypto,
		Ledger:    ledger,
		Engine:    engine,
		Generator: generator,
		PriceSim:  priceSim,
	}
}

/**
 * Registry is the explicit store of cryptocurrency instances. Its lifecycle
 * is owned by the host process and it is passed by reference to whatever
 * needs it; there is no ambient package-level state.
 */
type Registry struct {
	instances map[string]*Instance
	mutex     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[string]*Instance),
	}
}

// Add stores an instance under its cryptocurrency id.
func (r *Registry) Add(instance *Instance) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.instances[instance.Crypto.ID] = instance
}

// Get returns the instance for the given id.
func (r *Registry) Get(id string) (*Instance, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	instance, exists := r.instances[id]
	if !exists {
		return nil, ErrNotFound
	}
	return instance, nil
}

// Delete removes the instance for the given id.
func (r *Registry) Delete(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.instances[id]; !exists {
		return ErrNotFound
	}
	delete(r.instances, id)
	return nil
}

// List returns all stored instances.
func (r *Registry) List() []*Instance {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*Instance, 0, len(r.instances))
	for _, instance := range r.instances {
		out = append(out, instance)
	}
	return out
}

// Len returns the number of stored instances.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.instances)
}
