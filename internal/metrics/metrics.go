// Package metrics exposes prometheus gauges and counters for the staking
// engine and the block producer.
package metrics

import (
	"math/big"
	"net/http"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Klingon-tech/klingnet-staking/internal/chain"
	"github.com/Klingon-tech/klingnet-staking/internal/staking"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

const namespace = "klingstake"

// Metrics owns a private registry. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	height        prometheus.Gauge
	totalStaked   prometheus.Gauge
	rewardPerUnit prometheus.Gauge
	stakers       prometheus.Gauge
	lockedTotal   prometheus.Gauge
	lockedQueues  prometheus.Gauge
	mempoolSize   prometheus.Gauge
	messages      *prometheus.CounterVec
	blockDuration prometheus.Histogram
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "height",
			Help:      "Height of the latest executed block",
		}),
		totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "total_staked",
			Help:      "Sum of all staked positions in base units",
		}),
		rewardPerUnit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "reward_per_unit",
			Help:      "Reward accumulator divided by the reward scale",
		}),
		stakers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "positions",
			Help:      "Number of stored staking positions",
		}),
		lockedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "locked_total",
			Help:      "Sum of all pending unlocks in base units",
		}),
		lockedQueues: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "locked_queues",
			Help:      "Number of accounts with pending unlocks",
		}),
		mempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mempool",
			Name:      "size",
			Help:      "Messages waiting for inclusion",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "messages_total",
			Help:      "Executed messages by type and outcome",
		}, []string{"type", "kind"}),
		blockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "producer",
			Name:      "block_duration_seconds",
			Help:      "Time spent selecting and executing a block",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	m.registry.MustRegister(
		m.height, m.totalStaked, m.rewardPerUnit, m.stakers,
		m.lockedTotal, m.lockedQueues, m.mempoolSize,
		m.messages, m.blockDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBlock records a produced block and the outcome of its messages.
func (m *Metrics) ObserveBlock(blk *chain.Block, receipts []*chain.Receipt, took time.Duration) {
	if m == nil {
		return
	}
	m.height.Set(float64(blk.Height))
	m.blockDuration.Observe(took.Seconds())
	for _, r := range receipts {
		kind := r.Kind
		if r.Success {
			kind = "ok"
		}
		m.messages.WithLabelValues(string(r.Type), kind).Inc()
	}
}

// ObserveStaking records the accumulator and position statistics.
func (m *Metrics) ObserveStaking(acc *staking.Accumulator, stats *staking.Stats) {
	if m == nil {
		return
	}
	if acc != nil {
		m.totalStaked.Set(amountFloat(acc.TotalStaked))
		m.rewardPerUnit.Set(scaledFloat(&acc.RewardPerUnit))
	}
	if stats != nil {
		m.stakers.Set(float64(stats.Stakers))
		m.lockedQueues.Set(float64(stats.LockedQueues))
		m.lockedTotal.Set(amountFloat(stats.TotalLocked))
	}
}

// SetHeight records the chain height outside of block production.
func (m *Metrics) SetHeight(h uint64) {
	if m == nil {
		return
	}
	m.height.Set(float64(h))
}

// SetMempoolSize records the number of pending messages.
func (m *Metrics) SetMempoolSize(n int) {
	if m == nil {
		return
	}
	m.mempoolSize.Set(float64(n))
}

func amountFloat(a types.Amount) float64 {
	f, _ := new(big.Float).SetInt(a.Uint256().ToBig()).Float64()
	return f
}

func scaledFloat(x *uint256.Int) float64 {
	f := new(big.Float).SetInt(x.ToBig())
	f.Quo(f, new(big.Float).SetInt(staking.RewardScale.ToBig()))
	v, _ := f.Float64()
	return v
}
