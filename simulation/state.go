package simulation

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cryptosimchain_go/market"
)

// Status is the lifecycle state of a simulation run. The order is strict:
// pending is the only initial state, and completed/paused/failed are terminal
// for a given run. Restarting requires a new simulation id.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusPaused || s == StatusFailed
}

// MinerAddress receives the SYSTEM block reward transactions.
const MinerAddress = "MINER"

// Config describes one simulation run.
type Config struct {
	DurationSeconds       int     `json:"duration_seconds"`
	Intensity             string  `json:"intensity"` // low, medium, high
	TransactionsPerSecond float64 `json:"transactions_per_second"`
	PriceVolatility       float64 `json:"price_volatility"`
}

// IntensityParams bundles the transaction rate and volatility of a named
// intensity preset.
type IntensityParams struct {
	TxPerSecond float64
	Volatility  float64
}

var intensityPresets = map[string]IntensityParams{
	"low":    {TxPerSecond: 2, Volatility: 0.02},
	"medium": {TxPerSecond: 5, Volatility: 0.05},
	"high":   {TxPerSecond: 10, Volatility: 0.10},
}

// ParamsForIntensity resolves a named preset, falling back to medium for
// unknown names.
func ParamsForIntensity(intensity string) IntensityParams {
	params, ok := intensityPresets[strings.ToLower(intensity)]
	if !ok {
		return intensityPresets["medium"]
	}
	return params
}

// NewConfig builds a run config from a duration and intensity preset.
func NewConfig(durationSeconds int, intensity string) Config {
	params := ParamsForIntensity(intensity)
	return Config{
		DurationSeconds:       durationSeconds,
		Intensity:             intensity,
		TransactionsPerSecond: params.TxPerSecond,
		PriceVolatility:       params.Volatility,
	}
}

// Snapshot is an immutable copy of a simulation's state for presentation.
type Snapshot struct {
	SimulationID          string              `json:"simulation_id"`
	CryptoID              string              `json:"crypto_id"`
	Status                Status              `json:"status"`
	StartedAt             *time.Time          `json:"started_at,omitempty"`
	EndedAt               *time.Time          `json:"ended_at,omitempty"`
	DurationSeconds       int                 `json:"duration_seconds"`
	ElapsedSeconds        float64             `json:"elapsed_seconds"`
	Progress              float64             `json:"progress"`
	TransactionsGenerated int                 `json:"transactions_generated"`
	BlocksCreated         int                 `json:"blocks_created"`
	CurrentPrice          float64             `json:"current_price"`
	HoldersCount          int                 `json:"holders_count"`
	PriceHistory          []market.PricePoint `json:"price_history,omitempty"`
}

/**
 * State is the mutable run state owned exclusively by the simulation loop.
 * Presentation layers read it concurrently through Snapshot(); the writer
 * mutates it under the state's own lock.
 */
type State struct {
	simulationID          string
	cryptoID              string
	status                Status
	startedAt             *time.Time
	endedAt               *time.Time
	durationSeconds       int
	elapsedSeconds        float64
	transactionsGenerated int
	blocksCreated         int
	currentPrice          float64
	holdersCount          int
	priceHistory          []market.PricePoint
	mutex                 sync.RWMutex
}

// NewState creates a pending simulation state with a fresh id.
func NewState(cryptoID string, durationSeconds int, currentPrice float64) *State {
	return &State{
		simulationID:    "sim_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8],
		cryptoID:        cryptoID,
		status:          StatusPending,
		durationSeconds: durationSeconds,
		currentPrice:    currentPrice,
	}
}

// ID returns the simulation id.
func (s *State) ID() string {
	return s.simulationID
}

// CryptoID returns the id of the target cryptocurrency.
func (s *State) CryptoID() string {
	return s.cryptoID
}

// Status returns the current lifecycle status.
func (s *State) Status() Status {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.status
}

func (s *State) markStarted() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := time.Now()
	s.startedAt = &now
	s.status = StatusRunning
}

func (s *State) markEnded(status Status) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.status.IsTerminal() {
		return
	}
	now := time.Now()
	s.endedAt = &now
	s.status = status
}

func (s *State) recordTick(elapsed, price float64, timestamp float64, holders int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.elapsedSeconds = elapsed
	s.currentPrice = price
	s.holdersCount = holders
	s.priceHistory = append(s.priceHistory, market.PricePoint{Timestamp: timestamp, Price: price})
}

func (s *State) incrementTransactions() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.transactionsGenerated++
}

func (s *State) incrementBlocks() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.blocksCreated++
}

// Progress returns run completion in [0, 1].
func (s *State) Progress() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.progressLocked()
}

func (s *State) progressLocked() float64 {
	if s.durationSeconds == 0 {
		return 1.0
	}
	return min(1.0, s.elapsedSeconds/float64(s.durationSeconds))
}

// Snapshot returns an immutable copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	history := make([]market.PricePoint, len(s.priceHistory))
	copy(history, s.priceHistory)

	return Snapshot{
		SimulationID:          s.simulationID,
		CryptoID:              s.cryptoID,
		Status:                s.status,
		StartedAt:             s.startedAt,
		EndedAt:               s.endedAt,
		DurationSeconds:       s.durationSeconds,
		ElapsedSeconds:        s.elapsedSeconds,
		Progress:              s.progressLocked(),
		TransactionsGenerated: s.transactionsGenerated,
		BlocksCreated:         s.blocksCreated,
		CurrentPrice:          s.currentPrice,
		HoldersCount:          s.holdersCount,
		PriceHistory:          history,
	}
}
