package simulation

import (
	"context"
	"errors"
	"sync"

	"cryptosimchain_go/registry"
	"cryptosimchain_go/utils"
)

var (
	// ErrSimulationNotFound is returned when no simulation exists for an id.
	ErrSimulationNotFound = errors.New("simulation not found")

	// ErrSimulationConflict is returned when a simulation is already running
	// for the target cryptocurrency.
	ErrSimulationConflict = errors.New("simulation already running for this cryptocurrency")

	// ErrNotRunning is returned when stopping a simulation that is not in the
	// running state.
	ErrNotRunning = errors.New("simulation is not running")
)

// run couples a simulation state with the cancel handle of its loop.
type run struct {
	state  *State
	cancel context.CancelFunc
	done   chan struct{}
}

/**
 * Manager owns all simulation runs. It enforces the one-running-simulation-
 * per-cryptocurrency rule, spawns runner goroutines and keeps finished runs
 * around for summary queries. Like the registry, it is created by the host
 * process and passed by reference.
 */
type Manager struct {
	registry *registry.Registry
	runs     map[string]*run // simulation id -> run
	mutex    sync.RWMutex
}

// NewManager creates a manager backed by the given cryptocurrency registry.
func NewManager(reg *registry.Registry) *Manager {
	return &Manager{
		registry: reg,
		runs:     make(map[string]*run),
	}
}

/**
 * Start launches a new simulation for the given cryptocurrency. It returns
 * registry.ErrNotFound for an unknown crypto id and ErrSimulationConflict
 * when a run for the same cryptocurrency is still pending or running. The
 * returned state is already registered; the loop runs on its own goroutine.
 */
func (m *Manager) Start(cryptoID string, config Config) (*State, error) {
	instance, err := m.registry.Get(cryptoID)
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, existing := range m.runs {
		if existing.state.CryptoID() == cryptoID && !existing.state.Status().IsTerminal() {
			return nil, ErrSimulationConflict
		}
	}

	state := NewState(cryptoID, config.DurationSeconds, instance.Engine.CurrentPrice())
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		state:  state,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.runs[state.ID()] = r

	runner := NewRunner(state, instance, config)
	go func() {
		defer close(r.done)
		runner.Run(ctx)
	}()

	return state, nil
}

/**
 * Stop cancels a running simulation and waits for its loop to exit, so the
 * state is terminal (paused) when Stop returns. Stopping a simulation that
 * already finished returns ErrNotRunning.
 */
func (m *Manager) Stop(simulationID string) (*State, error) {
	m.mutex.RLock()
	r, exists := m.runs[simulationID]
	m.mutex.RUnlock()

	if !exists {
		return nil, ErrSimulationNotFound
	}
	if r.state.Status().IsTerminal() {
		return nil, ErrNotRunning
	}

	r.cancel()
	<-r.done

	utils.LogInfo("Simulation %s stopped on request", simulationID)
	return r.state, nil
}

// Get returns the state for a simulation id.
func (m *Manager) Get(simulationID string) (*State, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	r, exists := m.runs[simulationID]
	if !exists {
		return nil, ErrSimulationNotFound
	}
	return r.state, nil
}

// List returns the states of all known simulations.
func (m *Manager) List() []*State {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]*State, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r.state)
	}
	return out
}

// ActiveForCrypto returns the non-terminal simulation for a cryptocurrency,
// or nil when none is running.
func (m *Manager) ActiveForCrypto(cryptoID string) *State {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, r := range m.runs {
		if r.state.CryptoID() == cryptoID && !r.state.Status().IsTerminal() {
			return r.state
		}
	}
	return nil
}

/**
 * StopAll cancels every non-terminal simulation and waits for the loops to
 * exit. Used during graceful shutdown.
 */
func (m *Manager) StopAll() {
	m.mutex.RLock()
	pending := make([]*run, 0, len(m.runs))
	for _, r := range m.runs {
		if !r.state.Status().IsTerminal() {
			pending = append(pending, r)
		}
	}
	m.mutex.RUnlock()

	for _, r := range pending {
		r.cancel()
		<-r.done
	}
}

// Summary composes the end-of-run report for a simulation.
type Summary struct {
	Simulation Snapshot `json:"simulation"`
	FinalPrice float64  `json:"final_price"`
	PriceATH   float64  `json:"price_ath"`
	PriceATL   float64  `json:"price_atl"`
	MarketCap  float64  `json:"market_cap"`
	Holders    int      `json:"holders"`
	ChainValid bool     `json:"chain_valid"`
}

// Summarize builds the summary for a simulation from its state and the live
// instance components.
func (m *Manager) Summarize(simulationID string) (*Summary, error) {
	state, err := m.Get(simulationID)
	if err != nil {
		return nil, err
	}
	instance, err := m.registry.Get(state.CryptoID())
	if err != nil {
		return nil, err
	}

	snapshot := state.Snapshot()
	return &Summary{
		Simulation: snapshot,
		FinalPrice: instance.PriceSim.CurrentPrice(),
		PriceATH:   instance.PriceSim.AllTimeHigh(),
		PriceATL:   instance.PriceSim.AllTimeLow(),
		MarketCap:  instance.Engine.MarketCap(),
		Holders:    instance.Generator.HolderCount(),
		ChainValid: instance.Ledger.IsValid(),
	}, nil
}
