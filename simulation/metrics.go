package simulation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the simulation loop. Registered once on the default
// registry; the HTTP layer exposes them on /metrics.
var (
	txGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptosim",
		Subsystem: "engine",
		Name:      "transactions_generated_total",
		Help:      "Generated transactions accepted by the ledger, by type",
	}, []string{"type"})

	txRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cryptosim",
		Subsystem: "engine",
		Name:      "transactions_rejected_total",
		Help:      "Generated transactions rejected by ledger validation",
	})

	blocksSealedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cryptosim",
		Subsystem: "engine",
		Name:      "blocks_sealed_total",
		Help:      "Blocks sealed from the pending queue",
	})

	rewardsMintedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cryptosim",
		Subsystem: "engine",
		Name:      "rewards_minted_total",
		Help:      "Tokens minted as block rewards",
	})

	activeSimulations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cryptosim",
		Subsystem: "engine",
		Name:      "active_simulations",
		Help:      "Simulations currently in the running state",
	})

	simulationsFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cryptosim",
		Subsystem: "engine",
		Name:      "simulations_finished_total",
		Help:      "Finished simulations by terminal status",
	}, []string{"status"})

	currentPriceGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cryptosim",
		Subsystem: "market",
		Name:      "current_price",
		Help:      "Current simulated price per cryptocurrency",
	}, []string{"crypto_id"})
)
