package ledger

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/internal/storage"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Allowance returns what spender may draw from owner. A missing entry is
// the zero allowance.
func (l *Ledger) Allowance(owner, spender types.Address) (Allowance, error) {
	data, err := l.db.Get(allowanceKey(owner, spender))
	if errors.Is(err, storage.ErrNotFound) {
		return Allowance{}, nil
	}
	if err != nil {
		return Allowance{}, fmt.Errorf("allowance get: %w", err)
	}
	return decodeAllowance(data)
}

func (l *Ledger) putAllowance(owner, spender types.Address, a Allowance) error {
	if a.Amount.IsZero() {
		return l.db.Delete(allowanceKey(owner, spender))
	}
	return l.db.Put(allowanceKey(owner, spender), encodeAllowance(a))
}

// IncreaseAllowance raises spender's allowance on owner by amt. A non-zero
// expires replaces the stored expiry and must lie after now.
func (l *Ledger) IncreaseAllowance(owner, spender types.Address, amt types.Amount, expires, now uint64) (Allowance, error) {
	if owner == spender {
		return Allowance{}, ErrSelfAllowance
	}
	a, err := l.Allowance(owner, spender)
	if err != nil {
		return Allowance{}, err
	}
	if expires != 0 {
		if now >= expires {
			return Allowance{}, ErrInvalidExpiration
		}
		a.Expires = expires
	}
	a.Amount = a.Amount.SaturatingAdd(amt)
	return a, l.putAllowance(owner, spender, a)
}

// DecreaseAllowance lowers spender's allowance on owner by amt, saturating
// at zero. A zero result removes the entry.
func (l *Ledger) DecreaseAllowance(owner, spender types.Address, amt types.Amount, expires, now uint64) (Allowance, error) {
	if owner == spender {
		return Allowance{}, ErrSelfAllowance
	}
	a, err := l.Allowance(owner, spender)
	if err != nil {
		return Allowance{}, err
	}
	if expires != 0 {
		if now >= expires {
			return Allowance{}, ErrInvalidExpiration
		}
		a.Expires = expires
	}
	a.Amount = a.Amount.SaturatingSub(amt)
	if a.Amount.IsZero() {
		a = Allowance{}
	}
	return a, l.putAllowance(owner, spender, a)
}

// SpendAllowance deducts amt from spender's allowance on owner at height now.
func (l *Ledger) SpendAllowance(owner, spender types.Address, amt types.Amount, now uint64) error {
	if amt.IsZero() {
		return ErrInvalidAmount
	}
	a, err := l.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if a.Expired(now) {
		return ErrAllowanceExpired
	}
	left, err := a.Amount.Sub(amt)
	if err != nil {
		return fmt.Errorf("%w: allowance %s, need %s", ErrInsufficientAllowance, a.Amount, amt)
	}
	a.Amount = left
	return l.putAllowance(owner, spender, a)
}

// TransferFrom moves amt from owner to recipient using spender's allowance.
func (l *Ledger) TransferFrom(spender, owner, to types.Address, amt types.Amount, now uint64) error {
	if err := l.SpendAllowance(owner, spender, amt, now); err != nil {
		return err
	}
	return l.Transfer(owner, to, amt)
}

// BurnFrom burns amt from owner using spender's allowance.
func (l *Ledger) BurnFrom(spender, owner types.Address, amt types.Amount, now uint64) error {
	if err := l.SpendAllowance(owner, spender, amt, now); err != nil {
		return err
	}
	return l.Burn(owner, amt)
}

// SendFrom is TransferFrom carrying an opaque payload.
func (l *Ledger) SendFrom(spender, owner, to types.Address, amt types.Amount, payload []byte, now uint64) (*Delivery, error) {
	if err := l.SpendAllowance(owner, spender, amt, now); err != nil {
		return nil, err
	}
	return l.Send(owner, to, amt, payload)
}
