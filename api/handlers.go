package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"cryptosimchain_go/blockchain"
	"cryptosimchain_go/market"
	"cryptosimchain_go/registry"
	"cryptosimchain_go/simulation"
	"cryptosimchain_go/tokenomics"
	"cryptosimchain_go/txgen"
	"cryptosimchain_go/utils"
)

// InitializeCryptoRequest is the body for creating a cryptocurrency. When
// UseAI is set (or a theme is given) the designer produces the parameters;
// otherwise the explicit fields are used with defaults filling the gaps.
type InitializeCryptoRequest struct {
	Name       string             `json:"name"`
	Symbol     string             `json:"symbol"`
	Theme      string             `json:"theme,omitempty"`
	UseAI      bool               `json:"use_ai,omitempty"`
	Tokenomics *tokenomics.Config `json:"tokenomics,omitempty"`
}

// CryptoState is the live view of a cryptocurrency composed from its
// simulation components.
type CryptoState struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Symbol            string            `json:"symbol"`
	TotalSupply       float64           `json:"total_supply"`
	CirculatingSupply float64           `json:"circulating_supply"`
	CurrentPrice      float64           `json:"current_price"`
	MarketCap         float64           `json:"market_cap"`
	PriceChange24h    float64           `json:"price_change_24h"`
	AllTimeHigh       float64           `json:"all_time_high"`
	AllTimeLow        float64           `json:"all_time_low"`
	VolatilityIndex   float64           `json:"volatility_index"`
	Holders           int               `json:"holders"`
	CreatedAt         time.Time         `json:"created_at"`
	Tokenomics        tokenomics.Config `json:"tokenomics"`
}

// cryptoState composes the live view from an instance.
func cryptoState(instance *registry.Instance) CryptoState {
	crypto := instance.Crypto
	return CryptoState{
		ID:                crypto.ID,
		Name:              crypto.Name,
		Symbol:            crypto.Symbol,
		TotalSupply:       instance.Engine.TotalSupply(),
		CirculatingSupply: instance.Engine.CirculatingSupply(),
		CurrentPrice:      instance.PriceSim.CurrentPrice(),
		MarketCap:         instance.Engine.CirculatingSupply() * instance.PriceSim.CurrentPrice(),
		PriceChange24h:    instance.PriceSim.PriceChange24h(),
		AllTimeHigh:       instance.PriceSim.AllTimeHigh(),
		AllTimeLow:        instance.PriceSim.AllTimeLow(),
		VolatilityIndex:   instance.PriceSim.VolatilityIndex(),
		Holders:           instance.Generator.HolderCount(),
		CreatedAt:         crypto.CreatedAt,
		Tokenomics:        crypto.Tokenomics,
	}
}

/**
 * InitializeCryptoHandler creates a new cryptocurrency instance. The
 * parameter bundle comes either from the AI designer (theme given or use_ai
 * set) or from the request body merged over the defaults. A designer failure
 * falls back to the defaults rather than failing the request.
 */
func (s *Server) InitializeCryptoHandler(w http.ResponseWriter, r *http.Request) {
	var req InitializeCryptoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	name := req.Name
	symbol := req.Symbol
	config := tokenomics.DefaultConfig()

	if req.UseAI || req.Theme != "" {
		designed, err := s.Designer.Design(r.Context(), req.Theme)
		if err != nil {
			utils.LogError("Designer failed, using defaults: %v", err)
		} else {
			config = designed.TokenomicsConfig()
			if name == "" {
				name = designed.Name
			}
			if symbol == "" {
				symbol = designed.Symbol
			}
		}
	} else if req.Tokenomics != nil {
		config = mergeConfig(*req.Tokenomics)
	}

	if name == "" {
		name = "NeuraCoin"
	}
	if symbol == "" {
		symbol = "NURA"
	}

	instance := registry.NewInstance(name, symbol, config)
	if s.Archive != nil {
		instance.Ledger.SetArchive(s.Archive)
	}
	s.Registry.Add(instance)

	respondJSON(w, http.StatusCreated, cryptoState(instance))
}

// mergeConfig overlays the provided config on the defaults, ignoring
// non-positive fields.
func mergeConfig(provided tokenomics.Config) tokenomics.Config {
	config := tokenomics.DefaultConfig()
	if provided.TotalSupply > 0 {
		config.TotalSupply = provided.TotalSupply
	}
	if provided.InitialPrice > 0 {
		config.InitialPrice = provided.InitialPrice
	}
	if provided.InflationRate > 0 {
		config.InflationRate = provided.InflationRate
	}
	if provided.BlockReward > 0 {
		config.BlockReward = provided.BlockReward
	}
	if provided.StabilityFactor > 0 {
		config.StabilityFactor = provided.StabilityFactor
	}
	if provided.MinPrice > 0 {
		config.MinPrice = provided.MinPrice
	}
	if provided.MaxPrice > 0 {
		config.MaxPrice = provided.MaxPrice
	}
	return config
}

// ListCryptosHandler returns the live state of every cryptocurrency.
func (s *Server) ListCryptosHandler(w http.ResponseWriter, r *http.Request) {
	instances := s.Registry.List()
	states := make([]CryptoState, 0, len(instances))
	for _, instance := range instances {
		states = append(states, cryptoState(instance))
	}
	respondJSON(w, http.StatusOK, states)
}

// CryptoStateHandler returns the live state of one cryptocurrency.
func (s *Server) CryptoStateHandler(w http.ResponseWriter, r *http.Request) {
	instance, err := s.Registry.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cryptoState(instance))
}

// BlockchainResponse is the chain view with its pending queue.
type BlockchainResponse struct {
	Chain   []*blockchain.Block       `json:"chain"`
	Pending []*blockchain.Transaction `json:"pending"`
	Stats   blockchain.Stats          `json:"stats"`
}

// BlockchainHandler returns the sealed chain and pending queue.
func (s *Server) BlockchainHandler(w http.ResponseWriter, r *http.Request) {
	instance, err := s.Registry.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, BlockchainResponse{
		Chain:   instance.Ledger.Chain(),
		Pending: instance.Ledger.PendingTransactions(),
		Stats:   instance.Ledger.GetStats(),
	})
}

// PriceHistoryHandler returns recent price samples. The "limit" query
// parameter caps the sample count (default 100).
func (s *Server) PriceHistoryHandler(w http.ResponseWriter, r *http.Request) {
	instance, err := s.Registry.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"crypto_id": instance.Crypto.ID,
		"history":   instance.PriceSim.ChartData(limit),
	})
}

// CryptoStatsResponse aggregates statistics from every component.
type CryptoStatsResponse struct {
	Crypto       CryptoState             `json:"crypto"`
	Market       market.Stats            `json:"market"`
	Tokenomics   tokenomics.Stats        `json:"tokenomics"`
	Blockchain   blockchain.Stats        `json:"blockchain"`
	Distribution txgen.DistributionStats `json:"distribution"`
}

// CryptoStatsHandler returns the aggregated statistics snapshot.
func (s *Server) CryptoStatsHandler(w http.ResponseWriter, r *http.Request) {
	instance, err := s.Registry.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, CryptoStatsResponse{
		Crypto:       cryptoState(instance),
		Market:       instance.PriceSim.GetStats(),
		Tokenomics:   instance.Engine.GetStats(),
		Blockchain:   instance.Ledger.GetStats(),
		Distribution: instance.Generator.GetDistributionStats(),
	})
}

// DeleteCryptoHandler removes a cryptocurrency. Deletion is rejected while a
// simulation is still running against it.
func (s *Server) DeleteCryptoHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if active := s.Manager.ActiveForCrypto(id); active != nil {
		respondError(w, http.StatusConflict, "a simulation is still running for this cryptocurrency")
		return
	}

	if err := s.Registry.Delete(id); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.LogInfo("Cryptocurrency %s deleted", id)
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// StartSimulationRequest is the body for launching a simulation. Explicit
// rate and volatility override the intensity preset when positive.
type StartSimulationRequest struct {
	DurationSeconds       int     `json:"duration_seconds"`
	Intensity             string  `json:"intensity"`
	TransactionsPerSecond float64 `json:"transactions_per_second,omitempty"`
	PriceVolatility       float64 `json:"price_volatility,omitempty"`
}

// DefaultSimulationDuration applies when the request omits a duration.
const DefaultSimulationDuration = 60

// StartSimulationHandler launches a simulation for a cryptocurrency.
func (s *Server) StartSimulationHandler(w http.ResponseWriter, r *http.Request) {
	cryptoID := mux.Vars(r)["cryptoID"]

	// An empty body means all defaults.
	var req StartSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	if req.DurationSeconds <= 0 {
		req.DurationSeconds = DefaultSimulationDuration
	}
	config := simulation.NewConfig(req.DurationSeconds, req.Intensity)
	if req.TransactionsPerSecond > 0 {
		config.TransactionsPerSecond = req.TransactionsPerSecond
	}
	if req.PriceVolatility > 0 {
		config.PriceVolatility = req.PriceVolatility
	}

	state, err := s.Manager.Start(cryptoID, config)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, simulation.ErrSimulationConflict):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, state.Snapshot())
}

// GetSimulationHandler returns the current simulation state.
func (s *Server) GetSimulationHandler(w http.ResponseWriter, r *http.Request) {
	state, err := s.Manager.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, state.Snapshot())
}

// StopSimulationHandler cancels a running simulation.
func (s *Server) StopSimulationHandler(w http.ResponseWriter, r *http.Request) {
	state, err := s.Manager.Stop(mux.Vars(r)["id"])
	if err != nil {
		switch {
		case errors.Is(err, simulation.ErrSimulationNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, simulation.ErrNotRunning):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, state.Snapshot())
}

// SimulationSummaryHandler returns the end-of-run report.
func (s *Server) SimulationSummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Manager.Summarize(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GenerateCryptoRequest is the body for an AI design request.
type GenerateCryptoRequest struct {
	Theme string `json:"theme"`
}

// GenerateCryptoHandler asks the designer for a parameter bundle without
// creating an instance.
func (s *Server) GenerateCryptoHandler(w http.ResponseWriter, r *http.Request) {
	var req GenerateCryptoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	designed, err := s.Designer.Design(r.Context(), req.Theme)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, designed)
}

// OptimizeRequest is the body for an AI optimization request.
type OptimizeRequest struct {
	CryptoID string `json:"crypto_id"`
}

// OptimizeTokenomicsHandler feeds observed market statistics to the designer
// and returns its suggested parameters. The suggestions are advisory; nothing
// is applied to the running instance.
func (s *Server) OptimizeTokenomicsHandler(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	instance, err := s.Registry.Get(req.CryptoID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	stats, err := json.Marshal(instance.Engine.GetStats())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	suggested, err := s.Designer.Optimize(r.Context(), string(stats))
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"crypto_id": req.CryptoID,
		"current":   instance.Crypto.Tokenomics,
		"suggested": suggested,
	})
}

// AIStatusHandler reports which provider backend is active.
func (s *Server) AIStatusHandler(w http.ResponseWriter, r *http.Request) {
	name := s.Designer.ProviderName()
	respondJSON(w, http.StatusOK, map[string]any{
		"provider": name,
		"offline":  name == "offline",
	})
}

// LastInteractionHandler returns the most recent designer exchange.
func (s *Server) LastInteractionHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.Designer.LastInteraction())
}
