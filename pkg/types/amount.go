package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// AmountSize is the length of a binary-encoded amount.
const AmountSize = 16

// Amount errors.
var (
	ErrAmountOverflow  = errors.New("amount overflows 128 bits")
	ErrAmountUnderflow = errors.New("amount underflow")
	ErrAmountFormat    = errors.New("invalid amount")
)

// MaxAmount is the largest representable amount (2^128 - 1).
var MaxAmount = func() Amount {
	var a Amount
	a.v.Lsh(uint256.NewInt(1), 128)
	a.v.SubUint64(&a.v, 1)
	return a
}()

// Amount is an unsigned 128-bit token quantity.
type Amount struct {
	v uint256.Int
}

// NewAmount returns an amount holding n.
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ParseAmount parses a base-10 string.
func ParseAmount(s string) (Amount, error) {
	var a Amount
	if s == "" {
		return a, ErrAmountFormat
	}
	if err := a.v.SetFromDecimal(s); err != nil {
		if errors.Is(err, uint256.ErrBig256Range) {
			return Amount{}, ErrAmountOverflow
		}
		return Amount{}, fmt.Errorf("%w %q: %v", ErrAmountFormat, s, err)
	}
	if a.v.BitLen() > 128 {
		return Amount{}, ErrAmountOverflow
	}
	return a, nil
}

// AmountFromUint256 narrows x to an amount, failing if it needs more than 128 bits.
func AmountFromUint256(x *uint256.Int) (Amount, error) {
	if x.BitLen() > 128 {
		return Amount{}, ErrAmountOverflow
	}
	var a Amount
	a.v.Set(x)
	return a, nil
}

// Uint256 returns a fresh 256-bit copy of a.
func (a Amount) Uint256() *uint256.Int {
	return new(uint256.Int).Set(&a.v)
}

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// Cmp returns -1, 0 or 1.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

// Lt reports whether a < b.
func (a Amount) Lt(b Amount) bool { return a.v.Lt(&b.v) }

// Add returns a+b or ErrAmountOverflow.
func (a Amount) Add(b Amount) (Amount, error) {
	var r Amount
	r.v.Add(&a.v, &b.v)
	if r.v.BitLen() > 128 {
		return Amount{}, ErrAmountOverflow
	}
	return r, nil
}

// Sub returns a-b or ErrAmountUnderflow.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.v.Lt(&b.v) {
		return Amount{}, ErrAmountUnderflow
	}
	var r Amount
	r.v.Sub(&a.v, &b.v)
	return r, nil
}

// SaturatingAdd returns a+b clamped to MaxAmount.
func (a Amount) SaturatingAdd(b Amount) Amount {
	r, err := a.Add(b)
	if err != nil {
		return MaxAmount
	}
	return r
}

// SaturatingSub returns a-b clamped to zero.
func (a Amount) SaturatingSub(b Amount) Amount {
	r, err := a.Sub(b)
	if err != nil {
		return Amount{}
	}
	return r
}

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if b.Lt(a) {
		return b
	}
	return a
}

// IsUint64 reports whether a fits in a uint64.
func (a Amount) IsUint64() bool { return a.v.IsUint64() }

// Uint64 returns the low 64 bits of a.
func (a Amount) Uint64() uint64 { return a.v.Uint64() }

// String returns the base-10 representation.
func (a Amount) String() string { return a.v.Dec() }

// Bytes returns the 16-byte big-endian encoding.
func (a Amount) Bytes() []byte {
	b32 := a.v.Bytes32()
	out := make([]byte, AmountSize)
	copy(out, b32[32-AmountSize:])
	return out
}

// AmountFromBytes decodes a 16-byte big-endian amount.
func AmountFromBytes(b []byte) (Amount, error) {
	if len(b) != AmountSize {
		return Amount{}, fmt.Errorf("amount must be %d bytes, got %d", AmountSize, len(b))
	}
	var a Amount
	a.v.SetBytes(b)
	return a, nil
}

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON integer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	if s == "" || s == "null" {
		*a = Amount{}
		return nil
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
