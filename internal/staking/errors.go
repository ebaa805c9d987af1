package staking

import (
	"errors"

	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Staking errors. Every failed message reports one of these kinds.
var (
	ErrInvalidAmount                = errors.New("invalid amount")
	ErrInsufficientAvailableBalance = errors.New("insufficient available balance")
	ErrInsufficientStaked           = errors.New("insufficient staked amount")
	ErrInsufficientReward           = errors.New("insufficient pending reward")
	ErrArithmeticOverflow           = types.ErrAmountOverflow
	ErrUninitialized                = errors.New("staking not initialized")
)

// Errors outside the message taxonomy.
var (
	ErrAlreadyInitialized = errors.New("staking already initialized")
	ErrInvalidConfig      = errors.New("invalid staking config")
	ErrInvariant          = errors.New("staking invariant violated")
)

// Kind returns the taxonomy name of err, or "" if err is not a staking error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, ErrInsufficientAvailableBalance):
		return "InsufficientAvailableBalance"
	case errors.Is(err, ErrInsufficientStaked):
		return "InsufficientStaked"
	case errors.Is(err, ErrInsufficientReward):
		return "InsufficientReward"
	case errors.Is(err, ErrArithmeticOverflow):
		return "ArithmeticOverflow"
	case errors.Is(err, ErrUninitialized):
		return "Uninitialized"
	}
	return ""
}
