package staking

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// RewardScale is the fixed-point scale F of the reward-per-unit accumulator.
var RewardScale = uint256.NewInt(1_000_000_000_000_000_000)

// AccrualMode selects how RewardRate feeds the accumulator.
type AccrualMode string

const (
	// AccrualPool emits RewardRate units per block, shared pro rata by stake.
	AccrualPool AccrualMode = "pool"
	// AccrualPerUnit pays RewardRate/RewardScale units per staked unit per block.
	AccrualPerUnit AccrualMode = "per_unit"
)

// ParseAccrualMode validates s. The empty string selects AccrualPool.
func ParseAccrualMode(s string) (AccrualMode, error) {
	switch AccrualMode(s) {
	case "", AccrualPool:
		return AccrualPool, nil
	case AccrualPerUnit:
		return AccrualPerUnit, nil
	}
	return "", fmt.Errorf("%w: unknown accrual mode %q", ErrInvalidConfig, s)
}

// Config is the immutable staking configuration written at chain init.
type Config struct {
	RewardRate  types.Amount `json:"reward_rate"`
	UnlockDelay uint64       `json:"unlock_delay"`
	AccrualMode AccrualMode  `json:"accrual_mode"`
}

// Validate checks the accrual mode.
func (c *Config) Validate() error {
	_, err := ParseAccrualMode(string(c.AccrualMode))
	return err
}

// Accumulator is the global reward-per-unit record. Remainder is scaled
// pool emission not yet folded into RewardPerUnit; it stays below
// TotalStaked whenever something is staked.
type Accumulator struct {
	RewardPerUnit    uint256.Int
	Remainder        uint256.Int
	LastUpdateHeight uint64
	TotalStaked      types.Amount
}

// Position is one account's stake and reward checkpoint. Carry is scaled
// reward below one unit, always less than RewardScale.
type Position struct {
	Amount        types.Amount
	RewardDebt    uint256.Int
	Carry         uint256.Int
	PendingReward types.Amount
}

// Empty reports whether the position can be purged. A leftover Carry is
// forfeited with it since nothing staked can ever top it up.
func (p *Position) Empty() bool {
	return p.Amount.IsZero() && p.PendingReward.IsZero()
}

// LockEntry is a pending unlock created by Unstake.
type LockEntry struct {
	Amount         types.Amount `json:"amount"`
	MaturityHeight uint64       `json:"maturity_height"`
}

const (
	accumulatorSize = 32 + 8 + types.AmountSize + 32
	positionSize    = types.AmountSize + 32 + types.AmountSize + 32
	lockEntrySize   = types.AmountSize + 8
)

func (a *Accumulator) encode() []byte {
	buf := make([]byte, accumulatorSize)
	acc := a.RewardPerUnit.Bytes32()
	copy(buf[:32], acc[:])
	binary.BigEndian.PutUint64(buf[32:40], a.LastUpdateHeight)
	copy(buf[40:40+types.AmountSize], a.TotalStaked.Bytes())
	rem := a.Remainder.Bytes32()
	copy(buf[40+types.AmountSize:], rem[:])
	return buf
}

func decodeAccumulator(b []byte) (*Accumulator, error) {
	if len(b) != accumulatorSize {
		return nil, fmt.Errorf("accumulator record must be %d bytes, got %d", accumulatorSize, len(b))
	}
	var a Accumulator
	a.RewardPerUnit.SetBytes(b[:32])
	a.LastUpdateHeight = binary.BigEndian.Uint64(b[32:40])
	total, err := types.AmountFromBytes(b[40 : 40+types.AmountSize])
	if err != nil {
		return nil, err
	}
	a.TotalStaked = total
	a.Remainder.SetBytes(b[40+types.AmountSize:])
	return &a, nil
}

func (p *Position) encode() []byte {
	buf := make([]byte, positionSize)
	copy(buf[:types.AmountSize], p.Amount.Bytes())
	debt := p.RewardDebt.Bytes32()
	copy(buf[types.AmountSize:types.AmountSize+32], debt[:])
	copy(buf[types.AmountSize+32:2*types.AmountSize+32], p.PendingReward.Bytes())
	carry := p.Carry.Bytes32()
	copy(buf[2*types.AmountSize+32:], carry[:])
	return buf
}

func decodePosition(b []byte) (*Position, error) {
	if len(b) != positionSize {
		return nil, fmt.Errorf("position record must be %d bytes, got %d", positionSize, len(b))
	}
	var p Position
	var err error
	if p.Amount, err = types.AmountFromBytes(b[:types.AmountSize]); err != nil {
		return nil, err
	}
	p.RewardDebt.SetBytes(b[types.AmountSize : types.AmountSize+32])
	if p.PendingReward, err = types.AmountFromBytes(b[types.AmountSize+32 : 2*types.AmountSize+32]); err != nil {
		return nil, err
	}
	p.Carry.SetBytes(b[2*types.AmountSize+32:])
	return &p, nil
}

func encodeQueue(q []LockEntry) []byte {
	buf := make([]byte, 4+len(q)*lockEntrySize)
	binary.BigEndian.PutUint32(buf, uint32(len(q)))
	off := 4
	for _, e := range q {
		copy(buf[off:], e.Amount.Bytes())
		binary.BigEndian.PutUint64(buf[off+types.AmountSize:], e.MaturityHeight)
		off += lockEntrySize
	}
	return buf
}

func decodeQueue(b []byte) ([]LockEntry, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("lock queue record too short: %d bytes", len(b))
	}
	n := int(binary.BigEndian.Uint32(b))
	if len(b) != 4+n*lockEntrySize {
		return nil, fmt.Errorf("lock queue record length %d does not match %d entries", len(b), n)
	}
	q := make([]LockEntry, n)
	off := 4
	for i := range q {
		amt, err := types.AmountFromBytes(b[off : off+types.AmountSize])
		if err != nil {
			return nil, err
		}
		q[i] = LockEntry{
			Amount:         amt,
			MaturityHeight: binary.BigEndian.Uint64(b[off+types.AmountSize:]),
		}
		off += lockEntrySize
	}
	return q, nil
}
