package simulation

import (
	"context"
	"time"

	"cryptosimchain_go/blockchain"
	"cryptosimchain_go/registry"
	"cryptosimchain_go/txgen"
	"cryptosimchain_go/utils"
)

/**
 * Runner drives one simulation to completion. It is the single writer for the
 * instance it operates on: every tick generates a transaction, feeds the
 * tokenomics pressures, advances both price processes and seals blocks when
 * the block interval allows it. The loop exits on duration (completed),
 * context cancellation (paused) or a recovered panic (failed).
 */
type Runner struct {
	state    *State
	instance *registry.Instance
	config   Config
}

// NewRunner binds a pending state to its instance and run config.
func NewRunner(state *State, instance *registry.Instance, config Config) *Runner {
	return &Runner{
		state:    state,
		instance: instance,
		config:   config,
	}
}

/**
 * Run executes the tick loop until the configured duration elapses or the
 * context is canceled. It must be called at most once; the state's terminal
 * status is set exactly once on exit.
 */
func (r *Runner) Run(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			utils.LogError("Simulation %s panicked: %v", r.state.ID(), rec)
			r.state.markEnded(StatusFailed)
			simulationsFinishedTotal.WithLabelValues(string(StatusFailed)).Inc()
		}
		activeSimulations.Dec()
	}()

	r.instance.PriceSim.SetVolatility(r.config.PriceVolatility)

	r.state.markStarted()
	activeSimulations.Inc()
	utils.LogInfo("Simulation %s started for crypto %s (%s, %.1f tx/s, %ds)",
		r.state.ID(), r.state.CryptoID(), r.config.Intensity,
		r.config.TransactionsPerSecond, r.config.DurationSeconds)

	tps := r.config.TransactionsPerSecond
	if tps <= 0 {
		tps = ParamsForIntensity("medium").TxPerSecond
	}
	interval := time.Duration(float64(time.Second) / tps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	duration := time.Duration(r.config.DurationSeconds) * time.Second

	for {
		select {
		case <-ctx.Done():
			utils.LogInfo("Simulation %s stopped after %.1fs", r.state.ID(), time.Since(start).Seconds())
			r.state.markEnded(StatusPaused)
			simulationsFinishedTotal.WithLabelValues(string(StatusPaused)).Inc()
			return
		case <-ticker.C:
			r.tick(time.Since(start).Seconds())
			if time.Since(start) >= duration {
				utils.LogInfo("Simulation %s completed: %d transactions, %d blocks",
					r.state.ID(), r.state.Snapshot().TransactionsGenerated, r.state.Snapshot().BlocksCreated)
				r.state.markEnded(StatusCompleted)
				simulationsFinishedTotal.WithLabelValues(string(StatusCompleted)).Inc()
				return
			}
		}
	}
}

// tick performs one simulation step.
func (r *Runner) tick(elapsed float64) {
	inst := r.instance
	now := float64(time.Now().UnixNano()) / 1e9

	generated := inst.Generator.GenerateTransaction()
	if _, ok := inst.Ledger.AddTransaction(generated.From, generated.To, generated.Amount); ok {
		r.state.incrementTransactions()
		txGeneratedTotal.WithLabelValues(string(generated.Type)).Inc()

		inst.Generator.UpdateBalance(generated.From, generated.Amount, false)
		inst.Generator.UpdateBalance(generated.To, generated.Amount, true)

		switch generated.Type {
		case txgen.TxTypeBuy:
			inst.Engine.AddBuyPressure(generated.Amount)
		case txgen.TxTypeSell:
			inst.Engine.AddSellPressure(generated.Amount)
		}
	} else {
		txRejectedTotal.Inc()
		utils.LogDebug("Transaction rejected: %s -> %s amount %.2f", generated.From, generated.To, generated.Amount)
	}

	inst.Engine.CalculatePrice(now)

	buy, sell := inst.Engine.Pressures()
	inst.PriceSim.AddMarketImpact(buy, sell, inst.Engine.CirculatingSupply())
	price := inst.PriceSim.UpdatePrice(now)

	if inst.Ledger.ShouldCreateBlock() {
		block := inst.Ledger.CreateBlock()
		r.state.incrementBlocks()
		blocksSealedTotal.Inc()
		utils.LogDebug("Block %d sealed with %d transactions", block.Index, len(block.Transactions))

		if reward := inst.Engine.ApplyBlockReward(MinerAddress); reward > 0 {
			inst.Ledger.AddTransaction(blockchain.SystemAddress, MinerAddress, reward)
			rewardsMintedTotal.Add(reward)
		}
	}

	currentPriceGauge.WithLabelValues(inst.Crypto.ID).Set(price)

	r.state.recordTick(elapsed, price, now, inst.Generator.HolderCount())
}
