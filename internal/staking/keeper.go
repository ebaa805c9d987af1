// Package staking implements the staking engine: a reward-per-unit
// accumulator, per-account staked positions, FIFO unlock queues and the
// available-balance guard that keeps encumbered funds from being spent.
package staking

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-staking/internal/log"
	"github.com/Klingon-tech/klingnet-staking/internal/storage"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Ledger is the token ledger the engine reads balances from and mints
// rewards into.
type Ledger interface {
	Balance(addr types.Address) (types.Amount, error)
	Credit(addr types.Address, amt types.Amount) error
}

// Key layout.
var (
	keyConfig      = []byte("cfg")
	keyAccumulator = []byte("acc")
	prefixPosition = []byte("p/") // p/<addr(20)> -> Position
	prefixLocked   = []byte("l/") // l/<addr(20)> -> []LockEntry
)

// Keeper owns staking state in db and mints rewards through ledger.
// It does no locking; callers serialize access.
type Keeper struct {
	db     storage.DB
	ledger Ledger
	logger zerolog.Logger
}

// NewKeeper creates a keeper over db.
func NewKeeper(db storage.DB, ledger Ledger) *Keeper {
	return &Keeper{db: db, ledger: ledger, logger: log.Staking}
}

// Init writes cfg and a zero accumulator anchored at height. It fails if
// staking was already initialized.
func (k *Keeper) Init(cfg Config, height uint64) error {
	mode, err := ParseAccrualMode(string(cfg.AccrualMode))
	if err != nil {
		return err
	}
	cfg.AccrualMode = mode
	ok, err := k.db.Has(keyConfig)
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyInitialized
	}
	data, err := json.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("config marshal: %w", err)
	}
	if err := k.db.Put(keyConfig, data); err != nil {
		return err
	}
	return k.putAccumulator(&Accumulator{LastUpdateHeight: height})
}

// StakeResult is the effect of a successful Stake.
type StakeResult struct {
	Staked types.Amount `json:"staked"`
}

// Stake encumbers amt of addr's available balance.
func (k *Keeper) Stake(addr types.Address, amt types.Amount, now uint64) (*StakeResult, error) {
	if amt.IsZero() {
		return nil, ErrInvalidAmount
	}
	cfg, acc, err := k.singletons()
	if err != nil {
		return nil, err
	}
	if err := k.CheckAvailable(addr, amt); err != nil {
		return nil, err
	}
	pos, err := k.position(addr)
	if err != nil {
		return nil, err
	}
	if _, err := settle(cfg, acc, pos, now); err != nil {
		return nil, err
	}

	if pos.Amount, err = pos.Amount.Add(amt); err != nil {
		return nil, fmt.Errorf("%w: staked amount", ErrArithmeticOverflow)
	}
	if acc.TotalStaked, err = acc.TotalStaked.Add(amt); err != nil {
		return nil, fmt.Errorf("%w: total staked", ErrArithmeticOverflow)
	}
	debt, err := checkpoint(acc, pos.Amount)
	if err != nil {
		return nil, err
	}
	pos.RewardDebt.Set(debt)

	if err := k.putAccumulator(acc); err != nil {
		return nil, err
	}
	if err := k.putPosition(addr, pos); err != nil {
		return nil, err
	}
	k.logger.Debug().Str("account", addr.String()).Str("amount", amt.String()).
		Uint64("height", now).Msg("Staked")
	return &StakeResult{Staked: pos.Amount}, nil
}

// UnstakeResult is the effect of a successful Unstake.
type UnstakeResult struct {
	Staked types.Amount `json:"staked"`
	Locked LockEntry    `json:"locked"`
}

// Unstake moves amt from addr's stake into a lock entry maturing after
// the unlock delay.
func (k *Keeper) Unstake(addr types.Address, amt types.Amount, now uint64) (*UnstakeResult, error) {
	if amt.IsZero() {
		return nil, ErrInvalidAmount
	}
	cfg, acc, err := k.singletons()
	if err != nil {
		return nil, err
	}
	pos, err := k.position(addr)
	if err != nil {
		return nil, err
	}
	if pos.Amount.Lt(amt) {
		return nil, fmt.Errorf("%w: staked %s, requested %s", ErrInsufficientStaked, pos.Amount, amt)
	}
	if _, err := settle(cfg, acc, pos, now); err != nil {
		return nil, err
	}

	if pos.Amount, err = pos.Amount.Sub(amt); err != nil {
		return nil, fmt.Errorf("%w: staked %s", ErrInsufficientStaked, pos.Amount)
	}
	if acc.TotalStaked, err = acc.TotalStaked.Sub(amt); err != nil {
		return nil, fmt.Errorf("%w: total staked below position", ErrInvariant)
	}
	debt, err := checkpoint(acc, pos.Amount)
	if err != nil {
		return nil, err
	}
	pos.RewardDebt.Set(debt)

	if now > ^uint64(0)-cfg.UnlockDelay {
		return nil, fmt.Errorf("%w: maturity height", ErrArithmeticOverflow)
	}
	entry := LockEntry{Amount: amt, MaturityHeight: now + cfg.UnlockDelay}
	queue, err := k.queue(addr)
	if err != nil {
		return nil, err
	}
	queue = append(queue, entry)

	if err := k.putAccumulator(acc); err != nil {
		return nil, err
	}
	if err := k.putPosition(addr, pos); err != nil {
		return nil, err
	}
	if err := k.putQueue(addr, queue); err != nil {
		return nil, err
	}
	k.logger.Debug().Str("account", addr.String()).Str("amount", amt.String()).
		Uint64("maturity", entry.MaturityHeight).Msg("Unstaked")
	return &UnstakeResult{Staked: pos.Amount, Locked: entry}, nil
}

// ClaimResult is the effect of a successful ClaimRewards.
type ClaimResult struct {
	Claimed   types.Amount `json:"claimed"`
	Remaining types.Amount `json:"remaining"`
}

// ClaimRewards mints amt of addr's pending reward into its balance. A zero
// amt claims everything pending.
func (k *Keeper) ClaimRewards(addr types.Address, amt types.Amount, now uint64) (*ClaimResult, error) {
	cfg, acc, err := k.singletons()
	if err != nil {
		return nil, err
	}
	pos, err := k.position(addr)
	if err != nil {
		return nil, err
	}
	if _, err := settle(cfg, acc, pos, now); err != nil {
		return nil, err
	}

	payable := pos.PendingReward
	if amt.IsZero() {
		amt = payable
	}
	if payable.Lt(amt) {
		return nil, fmt.Errorf("%w: pending %s, requested %s", ErrInsufficientReward, payable, amt)
	}
	pos.PendingReward, _ = payable.Sub(amt)

	if !amt.IsZero() {
		if err := k.ledger.Credit(addr, amt); err != nil {
			return nil, fmt.Errorf("credit reward: %w", err)
		}
	}
	if err := k.putAccumulator(acc); err != nil {
		return nil, err
	}
	if err := k.putPosition(addr, pos); err != nil {
		return nil, err
	}
	k.logger.Debug().Str("account", addr.String()).Str("amount", amt.String()).
		Uint64("height", now).Msg("Rewards claimed")
	return &ClaimResult{Claimed: amt, Remaining: pos.PendingReward}, nil
}

// UnlockResult is the effect of Unlock.
type UnlockResult struct {
	Released types.Amount `json:"released"`
	Entries  int          `json:"entries"`
}

// Unlock drops every lock entry of addr that has matured at now. Nothing
// matured is not an error.
func (k *Keeper) Unlock(addr types.Address, now uint64) (*UnlockResult, error) {
	queue, err := k.queue(addr)
	if err != nil {
		return nil, err
	}
	var released types.Amount
	n := 0
	for n < len(queue) && queue[n].MaturityHeight <= now {
		if released, err = released.Add(queue[n].Amount); err != nil {
			return nil, fmt.Errorf("%w: released amount", ErrArithmeticOverflow)
		}
		n++
	}
	if n == 0 {
		return &UnlockResult{}, nil
	}
	if err := k.putQueue(addr, queue[n:]); err != nil {
		return nil, err
	}
	k.logger.Debug().Str("account", addr.String()).Str("released", released.String()).
		Int("entries", n).Msg("Unlocked")
	return &UnlockResult{Released: released, Entries: n}, nil
}

// AvailableBalance returns addr's total balance minus its stake and every
// lock entry, matured or not.
func (k *Keeper) AvailableBalance(addr types.Address) (types.Amount, error) {
	total, err := k.ledger.Balance(addr)
	if err != nil {
		return types.Amount{}, err
	}
	enc, err := k.encumbered(addr)
	if err != nil {
		return types.Amount{}, err
	}
	if total.Lt(enc) {
		k.logger.Error().Str("account", addr.String()).Str("balance", total.String()).
			Str("encumbered", enc.String()).Msg("Balance below encumbrances")
		return types.Amount{}, nil
	}
	avail, _ := total.Sub(enc)
	return avail, nil
}

// CheckAvailable fails with ErrInsufficientAvailableBalance if addr cannot
// spend amt. Called before every balance-reducing token operation.
func (k *Keeper) CheckAvailable(addr types.Address, amt types.Amount) error {
	avail, err := k.AvailableBalance(addr)
	if err != nil {
		return err
	}
	if avail.Lt(amt) {
		return fmt.Errorf("%w: available %s, need %s", ErrInsufficientAvailableBalance, avail, amt)
	}
	return nil
}

func (k *Keeper) encumbered(addr types.Address) (types.Amount, error) {
	pos, err := k.position(addr)
	if err != nil {
		return types.Amount{}, err
	}
	locked, err := k.LockedTotal(addr)
	if err != nil {
		return types.Amount{}, err
	}
	enc, err := pos.Amount.Add(locked)
	if err != nil {
		return types.Amount{}, fmt.Errorf("%w: encumbered amount", ErrArithmeticOverflow)
	}
	return enc, nil
}

func (k *Keeper) singletons() (*Config, *Accumulator, error) {
	cfg, err := k.Params()
	if err != nil {
		return nil, nil, err
	}
	acc, err := k.Accumulator()
	if err != nil {
		return nil, nil, err
	}
	return cfg, acc, nil
}

// Params returns the staking configuration.
func (k *Keeper) Params() (*Config, error) {
	data, err := k.db.Get(keyConfig)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUninitialized
	}
	if err != nil {
		return nil, fmt.Errorf("config get: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	return &cfg, nil
}

// Accumulator returns the stored accumulator without advancing it.
func (k *Keeper) Accumulator() (*Accumulator, error) {
	data, err := k.db.Get(keyAccumulator)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUninitialized
	}
	if err != nil {
		return nil, fmt.Errorf("accumulator get: %w", err)
	}
	return decodeAccumulator(data)
}

func (k *Keeper) putAccumulator(acc *Accumulator) error {
	return k.db.Put(keyAccumulator, acc.encode())
}

func (k *Keeper) position(addr types.Address) (*Position, error) {
	data, err := k.db.Get(accountKey(prefixPosition, addr))
	if errors.Is(err, storage.ErrNotFound) {
		return &Position{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("position get: %w", err)
	}
	return decodePosition(data)
}

func (k *Keeper) putPosition(addr types.Address, pos *Position) error {
	if pos.Empty() {
		return k.db.Delete(accountKey(prefixPosition, addr))
	}
	return k.db.Put(accountKey(prefixPosition, addr), pos.encode())
}

func (k *Keeper) queue(addr types.Address) ([]LockEntry, error) {
	data, err := k.db.Get(accountKey(prefixLocked, addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock queue get: %w", err)
	}
	return decodeQueue(data)
}

func (k *Keeper) putQueue(addr types.Address, q []LockEntry) error {
	if len(q) == 0 {
		return k.db.Delete(accountKey(prefixLocked, addr))
	}
	return k.db.Put(accountKey(prefixLocked, addr), encodeQueue(q))
}

func accountKey(prefix []byte, addr types.Address) []byte {
	key := make([]byte, len(prefix)+types.AddressSize)
	copy(key, prefix)
	copy(key[len(prefix):], addr[:])
	return key
}
