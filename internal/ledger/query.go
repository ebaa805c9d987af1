package ledger

import (
	"errors"

	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

var errStop = errors.New("stop")

// AccountBalance pairs an account with its balance.
type AccountBalance struct {
	Address types.Address `json:"address"`
	Balance types.Amount  `json:"balance"`
}

// SpenderAllowance is one entry of an owner's allowance listing.
type SpenderAllowance struct {
	Spender types.Address `json:"spender"`
	Allowance
}

func clampLimit(limit uint32) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return int(limit)
	}
}

// Accounts lists accounts with a non-zero balance in address order,
// starting after startAfter when it is non-nil.
func (l *Ledger) Accounts(startAfter *types.Address, limit uint32) ([]AccountBalance, error) {
	n := clampLimit(limit)
	out := make([]AccountBalance, 0, n)
	err := l.db.ForEach(prefixBalance, func(key, value []byte) error {
		if len(key) != len(prefixBalance)+types.AddressSize {
			return nil
		}
		var addr types.Address
		copy(addr[:], key[len(prefixBalance):])
		if startAfter != nil && addr.Compare(*startAfter) <= 0 {
			return nil
		}
		bal, err := types.AmountFromBytes(value)
		if err != nil {
			return err
		}
		out = append(out, AccountBalance{Address: addr, Balance: bal})
		if len(out) >= n {
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return out, nil
}

// Allowances lists owner's allowances in spender order, starting after
// startAfter when it is non-nil.
func (l *Ledger) Allowances(owner types.Address, startAfter *types.Address, limit uint32) ([]SpenderAllowance, error) {
	n := clampLimit(limit)
	prefix := make([]byte, len(prefixAllowance)+types.AddressSize)
	copy(prefix, prefixAllowance)
	copy(prefix[len(prefixAllowance):], owner[:])

	out := make([]SpenderAllowance, 0, n)
	err := l.db.ForEach(prefix, func(key, value []byte) error {
		if len(key) != len(prefix)+types.AddressSize {
			return nil
		}
		var spender types.Address
		copy(spender[:], key[len(prefix):])
		if startAfter != nil && spender.Compare(*startAfter) <= 0 {
			return nil
		}
		a, err := decodeAllowance(value)
		if err != nil {
			return err
		}
		out = append(out, SpenderAllowance{Spender: spender, Allowance: a})
		if len(out) >= n {
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return out, nil
}
