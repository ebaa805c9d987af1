// Package node wires storage, the staking chain, the mempool, block
// production and the RPC server into one process.
package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-staking/config"
	"github.com/Klingon-tech/klingnet-staking/internal/chain"
	klog "github.com/Klingon-tech/klingnet-staking/internal/log"
	"github.com/Klingon-tech/klingnet-staking/internal/mempool"
	"github.com/Klingon-tech/klingnet-staking/internal/metrics"
	"github.com/Klingon-tech/klingnet-staking/internal/producer"
	"github.com/Klingon-tech/klingnet-staking/internal/rpc"
	"github.com/Klingon-tech/klingnet-staking/internal/storage"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// ErrChainMismatch is returned when the database holds a different chain
// than the configured genesis.
var ErrChainMismatch = errors.New("database chain id does not match genesis")

// Node is a fully wired staking node.
type Node struct {
	cfg     *config.Config
	genesis *config.Genesis
	logger  zerolog.Logger

	db       storage.DB
	ch       *chain.Chain
	pool     *mempool.Pool
	metrics  *metrics.Metrics
	producer *producer.Producer

	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New performs all setup (logger, genesis, storage, chain, mempool, RPC)
// without starting background work. Call Start for that.
func New(cfg *config.Config) (*Node, error) {
	if cfg.Network == config.Testnet {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		types.SetAddressHRP(types.MainnetHRP)
	}

	logFile, err := logFilePath(cfg)
	if err != nil {
		return nil, err
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	if cfg.Genesis != "" {
		cfg.Genesis = expandHome(cfg.Genesis)
	}
	genesis, err := cfg.LoadGenesisFor()
	if err != nil {
		return nil, fmt.Errorf("load genesis: %w", err)
	}
	if err := genesis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	logger.Info().
		Str("chain_id", genesis.ChainID).
		Str("network", string(cfg.Network)).
		Str("token", genesis.Token.Symbol).
		Dur("interval", cfg.Producer.Interval).
		Msg("Starting staking node")

	db, err := storage.NewBadger(cfg.StateDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.StateDir(), err)
	}
	logger.Info().Str("path", cfg.StateDir()).Msg("Database opened")

	ch, err := openChain(db, genesis, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	n := &Node{
		cfg:     cfg,
		genesis: genesis,
		logger:  logger,
		db:      db,
		ch:      ch,
		pool:    mempool.New(ch.ChainID(), ch, cfg.Mempool.MaxSize),
	}
	n.ctx, n.cancel = context.WithCancel(context.Background())

	if cfg.Metrics.Enabled {
		n.metrics = metrics.New()
		n.metrics.SetHeight(ch.Height())
	}

	if cfg.RPC.Enabled {
		addr := net.JoinHostPort(cfg.RPC.Addr, strconv.Itoa(cfg.RPC.Port))
		n.rpcServer = rpc.New(addr, ch, n.pool, genesis, cfg.RPC)
		if n.metrics != nil {
			n.rpcServer.SetMetrics(n.metrics)
		}
		if err := n.rpcServer.Start(); err != nil {
			db.Close()
			return nil, fmt.Errorf("start rpc: %w", err)
		}
		logger.Info().Str("addr", n.rpcServer.Addr()).Bool("metrics", n.metrics != nil).Msg("RPC server started")
	}

	if cfg.Producer.Enabled {
		n.producer = producer.New(ch, n.pool, cfg.Producer.Interval, cfg.Producer.MaxMessages, n.metrics)
	}

	return n, nil
}

// openChain recovers the chain from db, applying genesis on first start.
func openChain(db storage.DB, genesis *config.Genesis, logger zerolog.Logger) (*chain.Chain, error) {
	ch, err := chain.New(db)
	if err != nil {
		return nil, fmt.Errorf("open chain: %w", err)
	}

	switch id := ch.ChainID(); {
	case id == "":
		if err := ch.InitFromGenesis(genesis); err != nil {
			return nil, fmt.Errorf("init genesis: %w", err)
		}
	case id != genesis.ChainID:
		return nil, fmt.Errorf("%w: have %q, genesis %q", ErrChainMismatch, id, genesis.ChainID)
	default:
		st := ch.State()
		logger.Info().
			Uint64("height", st.Height).
			Str("tip", st.TipHash.String()).
			Uint64("messages", st.MessageCount).
			Msg("Chain state recovered")
	}

	// A violated invariant points at a corrupt database. Keep serving
	// reads so the operator can inspect it.
	if err := ch.CheckInvariants(); err != nil {
		logger.Error().Err(err).Msg("State invariant check failed")
	}
	return ch, nil
}

// Start launches block production.
func (n *Node) Start() error {
	if n.producer != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.producer.Run(n.ctx)
		}()
	}

	n.logger.Info().
		Uint64("height", n.ch.Height()).
		Bool("producing", n.producer != nil).
		Msg("Node started successfully")
	return nil
}

// Stop shuts down in reverse order of startup.
func (n *Node) Stop() {
	n.cancel()
	n.wg.Wait()

	if n.rpcServer != nil {
		if err := n.rpcServer.Stop(); err != nil {
			n.logger.Error().Err(err).Msg("RPC shutdown")
		}
	}
	if n.db != nil {
		if err := n.db.Close(); err != nil {
			n.logger.Error().Err(err).Msg("Database close")
		}
	}
	n.logger.Info().Msg("Goodbye!")
}

// RPCAddr returns the bound RPC address, or "" when RPC is disabled.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Height returns the current chain height.
func (n *Node) Height() uint64 {
	return n.ch.Height()
}

// Chain exposes the underlying chain.
func (n *Node) Chain() *chain.Chain {
	return n.ch
}

// Mempool exposes the pending message pool.
func (n *Node) Mempool() *mempool.Pool {
	return n.pool
}

// Producer returns the block producer, or nil when production is off.
func (n *Node) Producer() *producer.Producer {
	return n.producer
}

func logFilePath(cfg *config.Config) (string, error) {
	if cfg.Log.File != "" {
		return expandHome(cfg.Log.File), nil
	}
	dir := cfg.LogsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating logs dir: %w", err)
	}
	return filepath.Join(dir, "klingstake.log"), nil
}
