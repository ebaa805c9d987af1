// Package chain implements the state machine: genesis, block execution with
// per-message atomicity, receipts, account nonces and the read surface.
package chain

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-staking/config"
	"github.com/Klingon-tech/klingnet-staking/internal/ledger"
	"github.com/Klingon-tech/klingnet-staking/internal/log"
	"github.com/Klingon-tech/klingnet-staking/internal/staking"
	"github.com/Klingon-tech/klingnet-staking/internal/storage"
	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Chain owns the state database. ExecuteBlock is the only writer; queries
// take the read lock.
type Chain struct {
	mu      sync.RWMutex
	db      storage.DB
	store   *Store
	state   State
	chainID string

	// Read views over the committed state.
	ledger *ledger.Ledger
	keeper *staking.Keeper

	logger zerolog.Logger
}

// New opens a chain over db and recovers the tip, if any.
func New(db storage.DB) (*Chain, error) {
	if db == nil {
		return nil, fmt.Errorf("storage db is nil")
	}
	store := NewStore(storage.NewPrefixDB(db, prefixChain))

	st, err := store.GetTip()
	if err != nil {
		return nil, fmt.Errorf("recover tip: %w", err)
	}
	chainID, err := store.ChainID()
	if err != nil {
		return nil, fmt.Errorf("recover chain id: %w", err)
	}

	d := NewDispatcher(db)
	return &Chain{
		db:      db,
		store:   store,
		state:   st,
		chainID: chainID,
		ledger:  d.ledger,
		keeper:  d.keeper,
		logger:  log.Chain,
	}, nil
}

// InitFromGenesis initializes a fresh chain from genesis configuration.
// Returns ErrAlreadyInitialized if the database already holds a chain.
func (c *Chain) InitFromGenesis(gen *config.Genesis) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID != "" || !c.state.IsGenesis() {
		return fmt.Errorf("%w: chain %q at height %d", ErrAlreadyInitialized, c.chainID, c.state.Height)
	}

	blk, err := CreateGenesisBlock(gen)
	if err != nil {
		return fmt.Errorf("create genesis: %w", err)
	}

	ov := storage.NewOverlay(c.db)
	if err := applyGenesis(ov, gen); err != nil {
		return fmt.Errorf("apply genesis: %w", err)
	}

	st := State{Height: 0, TipHash: blk.Hash, TipTimestamp: blk.Timestamp}
	store := NewStore(storage.NewPrefixDB(ov, prefixChain))
	if err := store.PutBlock(blk); err != nil {
		return fmt.Errorf("store genesis: %w", err)
	}
	if err := store.SetChainID(gen.ChainID); err != nil {
		return fmt.Errorf("store chain id: %w", err)
	}
	if err := store.SetTip(st); err != nil {
		return fmt.Errorf("set genesis tip: %w", err)
	}
	if err := ov.Commit(); err != nil {
		return fmt.Errorf("commit genesis: %w", err)
	}

	c.state = st
	c.chainID = gen.ChainID
	c.logger.Info().Str("chain_id", gen.ChainID).Str("hash", blk.Hash.String()).
		Int("allocations", len(gen.Alloc)).Msg("Genesis applied")
	return nil
}

// ChainID returns the chain ID the database was initialized with.
func (c *Chain) ChainID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chainID
}

// State returns a copy of the current chain state.
func (c *Chain) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Height returns the current chain height.
func (c *Chain) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Height
}

// ExecuteBlock executes msgs as block height+1 and commits the result.
//
// Messages with a bad envelope (wrong chain, bad signature, unexpected
// nonce, already executed) are skipped and left out of the block. Every
// other message gets a receipt and consumes its nonce; its state changes
// are kept only if it succeeds.
func (c *Chain) ExecuteBlock(msgs []*msg.Message, timestamp uint64) (*Block, []*Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID == "" {
		return nil, nil, ErrNotInitialized
	}

	height := c.state.Height + 1
	blk := &Block{
		Height:    height,
		PrevHash:  c.state.TipHash,
		Timestamp: timestamp,
		Messages:  make([]types.Hash, 0, len(msgs)),
	}

	bo := storage.NewOverlay(c.db)
	store := NewStore(storage.NewPrefixDB(bo, prefixChain))
	receipts := make([]*Receipt, 0, len(msgs))
	seen := make(map[types.Hash]struct{}, len(msgs))

	for _, m := range msgs {
		hash := m.Hash()
		if _, dup := seen[hash]; dup {
			continue
		}
		if err := c.checkEnvelope(store, m, hash); err != nil {
			c.logger.Debug().Str("hash", hash.String()).Str("kind", Kind(err)).Err(err).Msg("Message skipped")
			continue
		}
		seen[hash] = struct{}{}

		r, err := c.executeMessage(bo, store, m, hash, height, uint32(len(receipts)))
		if err != nil {
			return nil, nil, fmt.Errorf("message %s: %w", hash, err)
		}
		receipts = append(receipts, r)
		blk.Messages = append(blk.Messages, hash)
	}

	blk.MessagesRoot = merkleRoot(blk.Messages)
	blk.ReceiptsRoot = receiptsRoot(receipts)
	blk.Hash = blk.computeHash()
	st := State{
		Height:       height,
		TipHash:      blk.Hash,
		MessageCount: c.state.MessageCount + uint64(len(receipts)),
		TipTimestamp: timestamp,
	}
	if err := store.PutBlock(blk); err != nil {
		return nil, nil, err
	}
	if err := store.SetTip(st); err != nil {
		return nil, nil, err
	}
	if err := bo.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit block %d: %w", height, err)
	}
	c.state = st

	c.logger.Info().Uint64("height", height).Str("hash", blk.Hash.String()).
		Int("messages", len(receipts)).Msg("Block executed")
	return blk, receipts, nil
}

// checkEnvelope validates everything about m that does not depend on
// executing it.
func (c *Chain) checkEnvelope(store *Store, m *msg.Message, hash types.Hash) error {
	if err := m.ValidateBasic(); err != nil {
		return err
	}
	if m.ChainID != c.chainID {
		return fmt.Errorf("%w: %q", ErrWrongChain, m.ChainID)
	}
	if err := m.Verify(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	done, err := store.HasReceipt(hash)
	if err != nil {
		return err
	}
	if done {
		return fmt.Errorf("%w: already executed", ErrBadNonce)
	}
	want, err := store.Nonce(m.Sender())
	if err != nil {
		return err
	}
	if m.Nonce != want {
		return fmt.Errorf("%w: got %d, want %d", ErrBadNonce, m.Nonce, want)
	}
	return nil
}

// executeMessage runs m in its own overlay on top of the block overlay.
// The returned error is reserved for storage failures that abort the block.
func (c *Chain) executeMessage(bo *storage.Overlay, store *Store, m *msg.Message, hash types.Hash, height uint64, index uint32) (*Receipt, error) {
	sender := m.Sender()
	r := &Receipt{
		Hash:   hash,
		Height: height,
		Index:  index,
		Type:   m.Type,
		Sender: sender,
		Nonce:  m.Nonce,
	}

	mo := storage.NewOverlay(bo)
	res, err := NewDispatcher(mo).Dispatch(m, sender, height)
	if err == nil {
		r.Result, err = json.Marshal(res)
	}
	if err != nil {
		mo.Discard()
		r.Kind = Kind(err)
		r.Error = err.Error()
		ev := c.logger.Debug()
		if r.Kind == "Internal" {
			ev = c.logger.Error()
		}
		ev.Str("hash", hash.String()).Str("type", string(m.Type)).Str("kind", r.Kind).Err(err).Msg("Message failed")
	} else {
		if err := mo.Commit(); err != nil {
			return nil, err
		}
		r.Success = true
		c.logger.Debug().Str("hash", hash.String()).Str("type", string(m.Type)).Msg("Message executed")
	}

	if err := store.SetNonce(sender, m.Nonce+1); err != nil {
		return nil, err
	}
	if err := store.PutReceipt(r); err != nil {
		return nil, err
	}
	return r, nil
}

// CheckInvariants runs the staking invariant sweep over committed state.
func (c *Chain) CheckInvariants() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keeper.CheckInvariants()
}
