// Package producer implements timed block production for the staking chain.
package producer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-staking/config"
	"github.com/Klingon-tech/klingnet-staking/internal/chain"
	"github.com/Klingon-tech/klingnet-staking/internal/log"
	"github.com/Klingon-tech/klingnet-staking/internal/metrics"
	"github.com/Klingon-tech/klingnet-staking/internal/staking"
	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Chain executes blocks and exposes the state the producer reports on.
type Chain interface {
	State() chain.State
	ExecuteBlock(msgs []*msg.Message, timestamp uint64) (*chain.Block, []*chain.Receipt, error)
	Accumulator() (*staking.Accumulator, error)
	StakingStats() (*staking.Stats, error)
}

// MempoolSelector selects messages for block inclusion.
type MempoolSelector interface {
	SelectForBlock(limit int) []*msg.Message
	RemoveIncluded(hashes []types.Hash)
	Prune() int
	Count() int
}

// Producer advances the chain one block per interval.
type Producer struct {
	chain    Chain
	pool     MempoolSelector
	interval time.Duration
	maxMsgs  int
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a block producer. pool and m may be nil.
func New(ch Chain, pool MempoolSelector, interval time.Duration, maxMsgs int, m *metrics.Metrics) *Producer {
	if maxMsgs <= 0 || maxMsgs > config.MaxBlockMessages {
		maxMsgs = config.MaxBlockMessages
	}
	return &Producer{
		chain:    ch,
		pool:     pool,
		interval: interval,
		maxMsgs:  maxMsgs,
		metrics:  m,
		now:      time.Now,
		logger:   log.WithComponent("producer"),
	}
}

// ProduceBlock executes the next block with up to maxMsgs pending messages
// and the current time. Blocks are produced even when the mempool is empty,
// since height drives reward accrual and unlock maturity.
func (p *Producer) ProduceBlock() (*chain.Block, []*chain.Receipt, error) {
	return p.produceBlock(uint64(p.now().Unix()))
}

// ProduceBlockAt is ProduceBlock with an explicit timestamp. The timestamp
// is bumped to at least the parent's timestamp plus one.
func (p *Producer) ProduceBlockAt(timestamp uint64) (*chain.Block, []*chain.Receipt, error) {
	return p.produceBlock(timestamp)
}

func (p *Producer) produceBlock(timestamp uint64) (*chain.Block, []*chain.Receipt, error) {
	start := time.Now()

	// Ensure monotonic: block timestamp must be strictly after parent.
	if parentTS := p.chain.State().TipTimestamp; timestamp <= parentTS {
		timestamp = parentTS + 1
	}

	var selected []*msg.Message
	if p.pool != nil {
		selected = p.pool.SelectForBlock(p.maxMsgs)
	}

	blk, receipts, err := p.chain.ExecuteBlock(selected, timestamp)
	if err != nil {
		return nil, nil, fmt.Errorf("execute block: %w", err)
	}

	if p.pool != nil {
		p.pool.RemoveIncluded(blk.Messages)
		if pruned := p.pool.Prune(); pruned > 0 {
			p.logger.Debug().Int("pruned", pruned).Msg("Dropped stale mempool messages")
		}
		p.metrics.SetMempoolSize(p.pool.Count())
	}

	p.metrics.ObserveBlock(blk, receipts, time.Since(start))
	p.observeStaking()

	failed := 0
	for _, r := range receipts {
		if !r.Success {
			failed++
		}
	}
	p.logger.Info().
		Uint64("height", blk.Height).
		Str("hash", blk.Hash.String()[:16]+"...").
		Int("msgs", len(receipts)).
		Int("failed", failed).
		Int("skipped", len(selected)-len(receipts)).
		Msg("Block produced")

	return blk, receipts, nil
}

func (p *Producer) observeStaking() {
	if p.metrics == nil {
		return
	}
	acc, err := p.chain.Accumulator()
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to read accumulator")
		return
	}
	stats, err := p.chain.StakingStats()
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to read staking stats")
		return
	}
	p.metrics.ObserveStaking(acc, stats)
}

// Run produces a block every interval until ctx is cancelled.
func (p *Producer) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().
		Dur("interval", p.interval).
		Int("max_msgs", p.maxMsgs).
		Msg("Block production started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Block production stopped")
			return
		case <-ticker.C:
			if _, _, err := p.ProduceBlock(); err != nil {
				p.logger.Error().Err(err).Msg("Failed to produce block")
			}
		}
	}
}
