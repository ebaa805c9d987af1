package staking

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// updateAccumulator advances acc to height now. Reward accrues only while
// something is staked; otherwise just the height moves. In pool mode the
// part of the scaled emission that does not divide evenly by the total
// stake is kept in acc.Remainder and added to the next update.
func updateAccumulator(cfg *Config, acc *Accumulator, now uint64) error {
	if now <= acc.LastUpdateHeight {
		return nil
	}
	delta := now - acc.LastUpdateHeight
	if !acc.TotalStaked.IsZero() && !cfg.RewardRate.IsZero() {
		inc, overflow := new(uint256.Int).MulOverflow(cfg.RewardRate.Uint256(), uint256.NewInt(delta))
		if overflow {
			return fmt.Errorf("%w: reward rate times %d blocks", ErrArithmeticOverflow, delta)
		}
		if cfg.AccrualMode != AccrualPerUnit {
			if _, overflow = inc.MulOverflow(inc, RewardScale); overflow {
				return fmt.Errorf("%w: scaled block reward", ErrArithmeticOverflow)
			}
			if _, overflow = inc.AddOverflow(inc, &acc.Remainder); overflow {
				return fmt.Errorf("%w: scaled block reward", ErrArithmeticOverflow)
			}
			inc.DivMod(inc, acc.TotalStaked.Uint256(), &acc.Remainder)
		}
		if _, overflow = acc.RewardPerUnit.AddOverflow(&acc.RewardPerUnit, inc); overflow {
			return fmt.Errorf("%w: reward per unit accumulator", ErrArithmeticOverflow)
		}
	}
	acc.LastUpdateHeight = now
	return nil
}

// checkpoint returns acc * amount, the reward debt of a position holding
// amount at the current accumulator value.
func checkpoint(acc *Accumulator, amount types.Amount) (*uint256.Int, error) {
	debt, overflow := new(uint256.Int).MulOverflow(&acc.RewardPerUnit, amount.Uint256())
	if overflow {
		return nil, fmt.Errorf("%w: reward checkpoint", ErrArithmeticOverflow)
	}
	return debt, nil
}

// settle brings acc to now and moves reward earned by pos since its last
// checkpoint into PendingReward. The sub-unit part stays in pos.Carry and
// is paid by a later settlement. A second call at the same height earns 0.
func settle(cfg *Config, acc *Accumulator, pos *Position, now uint64) (types.Amount, error) {
	if err := updateAccumulator(cfg, acc, now); err != nil {
		return types.Amount{}, err
	}
	debt, err := checkpoint(acc, pos.Amount)
	if err != nil {
		return types.Amount{}, err
	}
	if debt.Lt(&pos.RewardDebt) {
		return types.Amount{}, fmt.Errorf("%w: reward debt above checkpoint", ErrInvariant)
	}
	earnedScaled := new(uint256.Int).Sub(debt, &pos.RewardDebt)
	if _, overflow := earnedScaled.AddOverflow(earnedScaled, &pos.Carry); overflow {
		return types.Amount{}, fmt.Errorf("%w: earned reward", ErrArithmeticOverflow)
	}
	var carry uint256.Int
	earnedScaled.DivMod(earnedScaled, RewardScale, &carry)
	earned, err := types.AmountFromUint256(earnedScaled)
	if err != nil {
		return types.Amount{}, fmt.Errorf("%w: earned reward", ErrArithmeticOverflow)
	}
	pending, err := pos.PendingReward.Add(earned)
	if err != nil {
		return types.Amount{}, fmt.Errorf("%w: pending reward", ErrArithmeticOverflow)
	}
	pos.PendingReward = pending
	pos.RewardDebt.Set(debt)
	pos.Carry.Set(&carry)
	return earned, nil
}
