// Package ledger implements the fungible-token balance ledger: balances,
// total supply, allowances and the transfer, burn and send operations.
package ledger

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/internal/storage"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Ledger errors.
var (
	ErrInvalidAmount          = errors.New("invalid zero amount")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInsufficientAllowance  = errors.New("insufficient allowance")
	ErrAllowanceExpired       = errors.New("allowance expired")
	ErrInvalidExpiration      = errors.New("expiration already passed")
	ErrSelfAllowance          = errors.New("cannot set allowance to own account")
	ErrNoTokenInfo            = errors.New("token info not set")
	ErrTokenInfoAlreadyExists = errors.New("token info already set")
)

// Key layout.
var (
	keyTokenInfo    = []byte("info")
	prefixBalance   = []byte("b/") // b/<addr(20)> -> amount(16)
	prefixAllowance = []byte("a/") // a/<owner(20)><spender(20)> -> amount(16) expires(8)
)

// Pagination bounds for Accounts and Allowances.
const (
	DefaultLimit = 10
	MaxLimit     = 30
)

// TokenInfo describes the token and tracks its total supply.
type TokenInfo struct {
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	Decimals    uint8        `json:"decimals"`
	TotalSupply types.Amount `json:"total_supply"`
}

// Allowance is the amount a spender may draw from an owner.
// Expires is a block height; zero means it never expires.
type Allowance struct {
	Amount  types.Amount `json:"allowance"`
	Expires uint64       `json:"expires"`
}

// Expired reports whether the allowance is unusable at height now.
func (a Allowance) Expired(now uint64) bool {
	return a.Expires != 0 && now >= a.Expires
}

// Ledger is a token ledger over a key-value store.
type Ledger struct {
	db storage.DB
}

// New creates a ledger on db. The ledger owns the whole keyspace of db;
// callers pass a storage.PrefixDB to share a database.
func New(db storage.DB) *Ledger {
	return &Ledger{db: db}
}

// InitTokenInfo stores the token description with zero supply.
func (l *Ledger) InitTokenInfo(name, symbol string, decimals uint8) error {
	ok, err := l.db.Has(keyTokenInfo)
	if err != nil {
		return err
	}
	if ok {
		return ErrTokenInfoAlreadyExists
	}
	return l.putTokenInfo(&TokenInfo{Name: name, Symbol: symbol, Decimals: decimals})
}

// TokenInfo returns the token description and current supply.
func (l *Ledger) TokenInfo() (*TokenInfo, error) {
	data, err := l.db.Get(keyTokenInfo)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoTokenInfo
	}
	if err != nil {
		return nil, fmt.Errorf("token info get: %w", err)
	}
	var info TokenInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("token info unmarshal: %w", err)
	}
	return &info, nil
}

func (l *Ledger) putTokenInfo(info *TokenInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("token info marshal: %w", err)
	}
	return l.db.Put(keyTokenInfo, data)
}

// Balance returns the total balance of addr. Unknown accounts hold zero.
func (l *Ledger) Balance(addr types.Address) (types.Amount, error) {
	data, err := l.db.Get(balanceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return types.Amount{}, nil
	}
	if err != nil {
		return types.Amount{}, fmt.Errorf("balance get: %w", err)
	}
	return types.AmountFromBytes(data)
}

func (l *Ledger) setBalance(addr types.Address, amt types.Amount) error {
	if amt.IsZero() {
		return l.db.Delete(balanceKey(addr))
	}
	return l.db.Put(balanceKey(addr), amt.Bytes())
}

// Credit mints amt to addr, increasing total supply.
func (l *Ledger) Credit(addr types.Address, amt types.Amount) error {
	if amt.IsZero() {
		return ErrInvalidAmount
	}
	info, err := l.TokenInfo()
	if err != nil {
		return err
	}
	supply, err := info.TotalSupply.Add(amt)
	if err != nil {
		return fmt.Errorf("total supply: %w", err)
	}
	bal, err := l.Balance(addr)
	if err != nil {
		return err
	}
	newBal, err := bal.Add(amt)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	if err := l.setBalance(addr, newBal); err != nil {
		return err
	}
	info.TotalSupply = supply
	return l.putTokenInfo(info)
}

// Debit removes amt from addr without touching supply. The caller moves
// or burns the funds.
func (l *Ledger) Debit(addr types.Address, amt types.Amount) error {
	if amt.IsZero() {
		return ErrInvalidAmount
	}
	bal, err := l.Balance(addr)
	if err != nil {
		return err
	}
	newBal, err := bal.Sub(amt)
	if err != nil {
		return fmt.Errorf("%w: balance %s, need %s", ErrInsufficientFunds, bal, amt)
	}
	return l.setBalance(addr, newBal)
}

func (l *Ledger) deposit(addr types.Address, amt types.Amount) error {
	bal, err := l.Balance(addr)
	if err != nil {
		return err
	}
	newBal, err := bal.Add(amt)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	return l.setBalance(addr, newBal)
}

// Transfer moves amt from one account to another.
func (l *Ledger) Transfer(from, to types.Address, amt types.Amount) error {
	if err := l.Debit(from, amt); err != nil {
		return err
	}
	return l.deposit(to, amt)
}

// Burn destroys amt from addr, reducing total supply.
func (l *Ledger) Burn(from types.Address, amt types.Amount) error {
	if err := l.Debit(from, amt); err != nil {
		return err
	}
	info, err := l.TokenInfo()
	if err != nil {
		return err
	}
	supply, err := info.TotalSupply.Sub(amt)
	if err != nil {
		return fmt.Errorf("total supply: %w", err)
	}
	info.TotalSupply = supply
	return l.putTokenInfo(info)
}

// Delivery is the record of a completed send. Payload is a copy of what
// the sender attached.
type Delivery struct {
	From    types.Address
	To      types.Address
	Amount  types.Amount
	Payload []byte
}

// Send is a transfer that carries an opaque payload for the recipient. No
// receiver code runs; the payload is returned in the Delivery.
func (l *Ledger) Send(from, to types.Address, amt types.Amount, payload []byte) (*Delivery, error) {
	if err := l.Transfer(from, to, amt); err != nil {
		return nil, err
	}
	return &Delivery{
		From:    from,
		To:      to,
		Amount:  amt,
		Payload: append([]byte(nil), payload...),
	}, nil
}

func balanceKey(addr types.Address) []byte {
	key := make([]byte, len(prefixBalance)+types.AddressSize)
	copy(key, prefixBalance)
	copy(key[len(prefixBalance):], addr[:])
	return key
}

func allowanceKey(owner, spender types.Address) []byte {
	key := make([]byte, len(prefixAllowance)+2*types.AddressSize)
	copy(key, prefixAllowance)
	copy(key[len(prefixAllowance):], owner[:])
	copy(key[len(prefixAllowance)+types.AddressSize:], spender[:])
	return key
}

func encodeAllowance(a Allowance) []byte {
	buf := make([]byte, types.AmountSize+8)
	copy(buf, a.Amount.Bytes())
	binary.BigEndian.PutUint64(buf[types.AmountSize:], a.Expires)
	return buf
}

func decodeAllowance(b []byte) (Allowance, error) {
	if len(b) != types.AmountSize+8 {
		return Allowance{}, fmt.Errorf("allowance record must be %d bytes, got %d", types.AmountSize+8, len(b))
	}
	amt, err := types.AmountFromBytes(b[:types.AmountSize])
	if err != nil {
		return Allowance{}, err
	}
	return Allowance{Amount: amt, Expires: binary.BigEndian.Uint64(b[types.AmountSize:])}, nil
}

// Kind returns the error kind reported in receipts for ledger errors, or ""
// when err is not a ledger error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return "InvalidAmount"
	case errors.Is(err, ErrInsufficientFunds):
		return "InsufficientFunds"
	case errors.Is(err, ErrInsufficientAllowance):
		return "InsufficientAllowance"
	case errors.Is(err, ErrAllowanceExpired):
		return "Expired"
	case errors.Is(err, ErrInvalidExpiration):
		return "InvalidExpiration"
	case errors.Is(err, ErrSelfAllowance):
		return "CannotSetOwnAccount"
	case errors.Is(err, types.ErrAmountOverflow):
		return "ArithmeticOverflow"
	}
	return ""
}
