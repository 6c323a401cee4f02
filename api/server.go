package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptosimchain_go/blockchain"
	"cryptosimchain_go/llm"
	"cryptosimchain_go/registry"
	"cryptosimchain_go/simulation"
	"cryptosimchain_go/utils"
)

/**
 * Server is the HTTP and WebSocket presentation layer. It owns the router and
 * the underlying http.Server; all domain state lives in the registry, the
 * simulation manager and the designer, which are passed in at construction.
 */
type Server struct {
	Registry *registry.Registry
	Manager  *simulation.Manager
	Designer *llm.Designer
	Router   *mux.Router

	// Archive, when set, is attached to the ledger of every cryptocurrency
	// created through the API.
	Archive *blockchain.ChainArchive

	httpServer *http.Server
}

// NewServer creates the presentation layer and registers all routes.
func NewServer(reg *registry.Registry, manager *simulation.Manager, designer *llm.Designer) *Server {
	s := &Server{
		Registry: reg,
		Manager:  manager,
		Designer: designer,
		Router:   mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// Cryptocurrency lifecycle
	s.Router.HandleFunc("/api/crypto/initialize", s.InitializeCryptoHandler).Methods("POST")
	s.Router.HandleFunc("/api/crypto", s.ListCryptosHandler).Methods("GET")
	s.Router.HandleFunc("/api/crypto/{id}/state", s.CryptoStateHandler).Methods("GET")
	s.Router.HandleFunc("/api/crypto/{id}/blockchain", s.BlockchainHandler).Methods("GET")
	s.Router.HandleFunc("/api/crypto/{id}/price-history", s.PriceHistoryHandler).Methods("GET")
	s.Router.HandleFunc("/api/crypto/{id}/stats", s.CryptoStatsHandler).Methods("GET")
	s.Router.HandleFunc("/api/crypto/{id}", s.DeleteCryptoHandler).Methods("DELETE")

	// Simulation control
	s.Router.HandleFunc("/api/simulation/start/{cryptoID}", s.StartSimulationHandler).Methods("POST")
	s.Router.HandleFunc("/api/simulation/{id}", s.GetSimulationHandler).Methods("GET")
	s.Router.HandleFunc("/api/simulation/stop/{id}", s.StopSimulationHandler).Methods("POST")
	s.Router.HandleFunc("/api/simulation/{id}/summary", s.SimulationSummaryHandler).Methods("GET")

	// AI designer
	s.Router.HandleFunc("/api/ai/generate", s.GenerateCryptoHandler).Methods("POST")
	s.Router.HandleFunc("/api/ai/optimize", s.OptimizeTokenomicsHandler).Methods("POST")
	s.Router.HandleFunc("/api/ai/status", s.AIStatusHandler).Methods("GET")
	s.Router.HandleFunc("/api/ai/last-interaction", s.LastInteractionHandler).Methods("GET")

	// WebSocket streams
	s.Router.HandleFunc("/ws/crypto/{id}", s.CryptoStateStreamHandler)
	s.Router.HandleFunc("/ws/price/{id}", s.PriceStreamHandler)
	s.Router.HandleFunc("/ws/transactions/{id}", s.TransactionStreamHandler)

	// Operational endpoints
	s.Router.HandleFunc("/ping", s.PingHandler).Methods("GET")
	s.Router.HandleFunc("/health", s.HealthHandler).Methods("GET")
	s.Router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Start begins serving on the given port. Blocks until the server stops.
func (s *Server) Start(port int) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	utils.LogInfo("HTTP server listening on port %d", port)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	utils.LogInfo("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		utils.LogError("Error encoding response: %v", err)
	}
}

// respondError writes a JSON error body with the given status code.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// PingHandler responds to liveness probes.
func (s *Server) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
	utils.LogDebug("Received ping from %s", r.RemoteAddr)
}

// HealthHandler reports process health and basic counts.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"cryptocurrencies": s.Registry.Len(),
		"simulations":      len(s.Manager.List()),
		"ai_provider":      s.Designer.ProviderName(),
	})
}
