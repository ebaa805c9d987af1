package staking

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// StakedBalance returns addr's current stake.
func (k *Keeper) StakedBalance(addr types.Address) (types.Amount, error) {
	pos, err := k.position(addr)
	if err != nil {
		return types.Amount{}, err
	}
	return pos.Amount, nil
}

// Reward returns addr's pending reward plus what it has accrued but not yet
// settled at height now. Nothing is written.
func (k *Keeper) Reward(addr types.Address, now uint64) (types.Amount, error) {
	cfg, acc, err := k.singletons()
	if err != nil {
		return types.Amount{}, err
	}
	pos, err := k.position(addr)
	if err != nil {
		return types.Amount{}, err
	}
	if _, err := settle(cfg, acc, pos, now); err != nil {
		return types.Amount{}, err
	}
	return pos.PendingReward, nil
}

// LockedEntries returns addr's lock queue, oldest first.
func (k *Keeper) LockedEntries(addr types.Address) ([]LockEntry, error) {
	q, err := k.queue(addr)
	if err != nil {
		return nil, err
	}
	if q == nil {
		q = []LockEntry{}
	}
	return q, nil
}

// LockedTotal sums every lock entry of addr, matured or not.
func (k *Keeper) LockedTotal(addr types.Address) (types.Amount, error) {
	q, err := k.queue(addr)
	if err != nil {
		return types.Amount{}, err
	}
	var total types.Amount
	for _, e := range q {
		if total, err = total.Add(e.Amount); err != nil {
			return types.Amount{}, fmt.Errorf("%w: locked total", ErrArithmeticOverflow)
		}
	}
	return total, nil
}

// Stats summarizes staking state for metrics.
type Stats struct {
	Stakers      int
	LockedQueues int
	TotalLocked  types.Amount
}

// Stats walks every position and lock queue.
func (k *Keeper) Stats() (*Stats, error) {
	var s Stats
	err := k.db.ForEach(prefixPosition, func(_, _ []byte) error {
		s.Stakers++
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = k.db.ForEach(prefixLocked, func(_, value []byte) error {
		q, err := decodeQueue(value)
		if err != nil {
			return err
		}
		s.LockedQueues++
		for _, e := range q {
			s.TotalLocked = s.TotalLocked.SaturatingAdd(e.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CheckInvariants verifies that every encumbered account holds at least its
// stake plus locks, that positions sum to the total staked, and that every
// lock queue is ordered by maturity. Reward carries must stay below one unit. All violations are reported together.
func (k *Keeper) CheckInvariants() error {
	acc, err := k.Accumulator()
	if err != nil {
		return err
	}

	var errs []error
	accounts := make(map[types.Address]struct{})
	var sum types.Amount

	err = k.db.ForEach(prefixPosition, func(key, value []byte) error {
		addr, ok := keyAddress(prefixPosition, key)
		if !ok {
			return nil
		}
		pos, err := decodePosition(value)
		if err != nil {
			return err
		}
		accounts[addr] = struct{}{}
		sum = sum.SaturatingAdd(pos.Amount)
		if !pos.Carry.Lt(RewardScale) {
			errs = append(errs, fmt.Errorf("%w: reward carry of %s not below scale", ErrInvariant, addr))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if sum.Cmp(acc.TotalStaked) != 0 {
		errs = append(errs, fmt.Errorf("%w: positions sum to %s, total staked %s", ErrInvariant, sum, acc.TotalStaked))
	}

	err = k.db.ForEach(prefixLocked, func(key, value []byte) error {
		addr, ok := keyAddress(prefixLocked, key)
		if !ok {
			return nil
		}
		q, err := decodeQueue(value)
		if err != nil {
			return err
		}
		accounts[addr] = struct{}{}
		for i := 1; i < len(q); i++ {
			if q[i].MaturityHeight < q[i-1].MaturityHeight {
				errs = append(errs, fmt.Errorf("%w: lock queue of %s out of order at %d", ErrInvariant, addr, i))
				break
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for addr := range accounts {
		total, err := k.ledger.Balance(addr)
		if err != nil {
			return err
		}
		enc, err := k.encumbered(addr)
		if err != nil {
			return err
		}
		if total.Lt(enc) {
			errs = append(errs, fmt.Errorf("%w: %s holds %s, encumbered %s", ErrInvariant, addr, total, enc))
		}
	}
	return errors.Join(errs...)
}

func keyAddress(prefix, key []byte) (types.Address, bool) {
	var addr types.Address
	if len(key) != len(prefix)+types.AddressSize {
		return addr, false
	}
	copy(addr[:], key[len(prefix):])
	return addr, true
}
