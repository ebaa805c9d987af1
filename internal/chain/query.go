package chain

import (
	"github.com/Klingon-tech/klingnet-staking/internal/ledger"
	"github.com/Klingon-tech/klingnet-staking/internal/staking"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Read surface. Every query sees committed state at the current height.

// TokenInfo returns the token description and supply.
func (c *Chain) TokenInfo() (*ledger.TokenInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.TokenInfo()
}

// Balance returns addr's total ledger balance, staked and locked funds
// included.
func (c *Chain) Balance(addr types.Address) (types.Amount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.Balance(addr)
}

// Allowance returns the allowance owner granted spender.
func (c *Chain) Allowance(owner, spender types.Address) (ledger.Allowance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.Allowance(owner, spender)
}

// Allowances pages through owner's allowances.
func (c *Chain) Allowances(owner types.Address, startAfter *types.Address, limit uint32) ([]ledger.SpenderAllowance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.Allowances(owner, startAfter, limit)
}

// Accounts pages through accounts holding a balance.
func (c *Chain) Accounts(startAfter *types.Address, limit uint32) ([]ledger.AccountBalance, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.Accounts(startAfter, limit)
}

// StakedBalance returns addr's current stake.
func (c *Chain) StakedBalance(addr types.Address) (types.Amount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keeper.StakedBalance(addr)
}

// Reward returns addr's claimable reward as of the current height.
func (c *Chain) Reward(addr types.Address) (types.Amount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keeper.Reward(addr, c.state.Height)
}

// AvailableBalance returns what addr can transfer, burn or stake.
func (c *Chain) AvailableBalance(addr types.Address) (types.Amount, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keeper.AvailableBalance(addr)
}

// LockedEntries returns addr's pending unlocks, oldest first.
func (c *Chain) LockedEntries(addr types.Address) ([]staking.LockEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keeper.LockedEntries(addr)
}

// StakingParams returns the staking configuration written at genesis.
func (c *Chain) StakingParams() (*staking.Config, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keeper.Params()
}

// Accumulator returns the stored reward accumulator.
func (c *Chain) Accumulator() (*staking.Accumulator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keeper.Accumulator()
}

// StakingStats summarizes positions and lock queues.
func (c *Chain) StakingStats() (*staking.Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keeper.Stats()
}

// Nonce returns the next nonce addr must use.
func (c *Chain) Nonce(addr types.Address) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Nonce(addr)
}

// Receipt returns the outcome of an executed message.
func (c *Chain) Receipt(hash types.Hash) (*Receipt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.GetReceipt(hash)
}

// GetBlockByHeight returns the block record at height.
func (c *Chain) GetBlockByHeight(height uint64) (*Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.GetBlockByHeight(height)
}

// GetBlock returns the block record with the given hash.
func (c *Chain) GetBlock(hash types.Hash) (*Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.GetBlock(hash)
}
