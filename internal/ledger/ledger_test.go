package ledger

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-staking/internal/storage"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New(storage.NewMemory())
	if err := l.InitTokenInfo("Kling Stake", "KSTK", 6); err != nil {
		t.Fatalf("InitTokenInfo: %v", err)
	}
	return l
}

func amt(n uint64) types.Amount { return types.NewAmount(n) }

func addr(b byte) types.Address { return types.Address{b} }

func mustBalance(t *testing.T, l *Ledger, a types.Address) uint64 {
	t.Helper()
	bal, err := l.Balance(a)
	if err != nil {
		t.Fatalf("Balance(%x): %v", a, err)
	}
	return bal.Uint64()
}

func mustSupply(t *testing.T, l *Ledger) uint64 {
	t.Helper()
	info, err := l.TokenInfo()
	if err != nil {
		t.Fatalf("TokenInfo: %v", err)
	}
	return info.TotalSupply.Uint64()
}

func TestLedger_TokenInfo(t *testing.T) {
	l := New(storage.NewMemory())
	if _, err := l.TokenInfo(); !errors.Is(err, ErrNoTokenInfo) {
		t.Fatalf("TokenInfo before init error = %v, want %v", err, ErrNoTokenInfo)
	}
	if err := l.InitTokenInfo("Kling Stake", "KSTK", 6); err != nil {
		t.Fatalf("InitTokenInfo: %v", err)
	}
	if err := l.InitTokenInfo("Other", "OTH", 0); !errors.Is(err, ErrTokenInfoAlreadyExists) {
		t.Errorf("second InitTokenInfo error = %v, want %v", err, ErrTokenInfoAlreadyExists)
	}
	info, err := l.TokenInfo()
	if err != nil {
		t.Fatalf("TokenInfo: %v", err)
	}
	if info.Symbol != "KSTK" || info.Decimals != 6 || !info.TotalSupply.IsZero() {
		t.Errorf("TokenInfo = %+v", info)
	}
}

func TestLedger_CreditDebit(t *testing.T) {
	l := newTestLedger(t)
	a := addr(1)

	if got := mustBalance(t, l, a); got != 0 {
		t.Fatalf("Balance(unknown) = %d, want 0", got)
	}
	if err := l.Credit(a, amt(100)); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if got := mustSupply(t, l); got != 100 {
		t.Errorf("supply = %d, want 100", got)
	}
	if err := l.Debit(a, amt(101)); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Debit(101) error = %v, want %v", err, ErrInsufficientFunds)
	}
	if err := l.Debit(a, amt(30)); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if got := mustBalance(t, l, a); got != 70 {
		t.Errorf("Balance = %d, want 70", got)
	}
	if err := l.Credit(a, types.Amount{}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Credit(0) error = %v, want %v", err, ErrInvalidAmount)
	}
}

func TestLedger_CreditOverflow(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Credit(addr(1), types.MaxAmount); err != nil {
		t.Fatalf("Credit(max): %v", err)
	}
	if err := l.Credit(addr(2), amt(1)); !errors.Is(err, types.ErrAmountOverflow) {
		t.Errorf("Credit over max supply error = %v, want %v", err, types.ErrAmountOverflow)
	}
	if got := mustBalance(t, l, addr(2)); got != 0 {
		t.Errorf("Balance after failed credit = %d, want 0", got)
	}
}

func TestLedger_TransferBurnSend(t *testing.T) {
	l := newTestLedger(t)
	a, b := addr(1), addr(2)
	l.Credit(a, amt(100))

	if err := l.Transfer(a, b, amt(40)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	memo := []byte("memo")
	dl, err := l.Send(a, b, amt(10), memo)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	memo[0] = 'M'
	if dl.From != a || dl.To != b || dl.Amount.Uint64() != 10 || string(dl.Payload) != "memo" {
		t.Errorf("delivery = %+v, want 10 from a to b with payload memo", dl)
	}
	if err := l.Burn(a, amt(5)); err != nil {
		t.Fatalf("Burn: %v", err)
	}
	if got := mustBalance(t, l, a); got != 45 {
		t.Errorf("Balance(a) = %d, want 45", got)
	}
	if got := mustBalance(t, l, b); got != 50 {
		t.Errorf("Balance(b) = %d, want 50", got)
	}
	if got := mustSupply(t, l); got != 95 {
		t.Errorf("supply = %d, want 95", got)
	}
	if err := l.Transfer(a, b, amt(46)); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Transfer(46) error = %v, want %v", err, ErrInsufficientFunds)
	}
	if err := l.Transfer(a, b, types.Amount{}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Transfer(0) error = %v, want %v", err, ErrInvalidAmount)
	}
}

func TestLedger_Allowances(t *testing.T) {
	l := newTestLedger(t)
	owner, spender, to := addr(1), addr(2), addr(3)
	l.Credit(owner, amt(100))

	if _, err := l.IncreaseAllowance(owner, owner, amt(1), 0, 1); !errors.Is(err, ErrSelfAllowance) {
		t.Errorf("self allowance error = %v, want %v", err, ErrSelfAllowance)
	}
	if _, err := l.IncreaseAllowance(owner, spender, amt(1), 5, 5); !errors.Is(err, ErrInvalidExpiration) {
		t.Errorf("past expiry error = %v, want %v", err, ErrInvalidExpiration)
	}

	a, err := l.IncreaseAllowance(owner, spender, amt(50), 0, 1)
	if err != nil {
		t.Fatalf("IncreaseAllowance: %v", err)
	}
	if a.Amount.Uint64() != 50 {
		t.Errorf("allowance = %s, want 50", a.Amount)
	}

	if err := l.TransferFrom(spender, owner, to, amt(60), 1); !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("TransferFrom(60) error = %v, want %v", err, ErrInsufficientAllowance)
	}
	if err := l.TransferFrom(spender, owner, to, amt(20), 1); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	if err := l.BurnFrom(spender, owner, amt(10), 1); err != nil {
		t.Fatalf("BurnFrom: %v", err)
	}
	dl, err := l.SendFrom(spender, owner, to, amt(5), []byte{0x01}, 1)
	if err != nil {
		t.Fatalf("SendFrom: %v", err)
	}
	if dl.From != owner || dl.To != to || len(dl.Payload) != 1 {
		t.Errorf("delivery = %+v, want owner to recipient with 1-byte payload", dl)
	}

	got, _ := l.Allowance(owner, spender)
	if got.Amount.Uint64() != 15 {
		t.Errorf("allowance after spends = %s, want 15", got.Amount)
	}
	if b := mustBalance(t, l, owner); b != 65 {
		t.Errorf("owner balance = %d, want 65", b)
	}
	if b := mustBalance(t, l, to); b != 25 {
		t.Errorf("recipient balance = %d, want 25", b)
	}
	if s := mustSupply(t, l); s != 90 {
		t.Errorf("supply = %d, want 90", s)
	}

	a, err = l.DecreaseAllowance(owner, spender, amt(100), 0, 1)
	if err != nil {
		t.Fatalf("DecreaseAllowance: %v", err)
	}
	if !a.Amount.IsZero() {
		t.Errorf("allowance after saturating decrease = %s, want 0", a.Amount)
	}
	list, _ := l.Allowances(owner, nil, 0)
	if len(list) != 0 {
		t.Errorf("Allowances after removal = %d entries, want 0", len(list))
	}
}

func TestLedger_AllowanceExpiry(t *testing.T) {
	l := newTestLedger(t)
	owner, spender := addr(1), addr(2)
	l.Credit(owner, amt(100))
	if _, err := l.IncreaseAllowance(owner, spender, amt(10), 10, 1); err != nil {
		t.Fatalf("IncreaseAllowance: %v", err)
	}
	if err := l.TransferFrom(spender, owner, spender, amt(1), 9); err != nil {
		t.Fatalf("TransferFrom before expiry: %v", err)
	}
	if err := l.TransferFrom(spender, owner, spender, amt(1), 10); !errors.Is(err, ErrAllowanceExpired) {
		t.Errorf("TransferFrom at expiry error = %v, want %v", err, ErrAllowanceExpired)
	}
}

func TestLedger_Accounts_Pagination(t *testing.T) {
	l := newTestLedger(t)
	for i := 1; i <= 35; i++ {
		if err := l.Credit(addr(byte(i)), amt(uint64(i))); err != nil {
			t.Fatalf("Credit: %v", err)
		}
	}

	page, err := l.Accounts(nil, 0)
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(page) != DefaultLimit {
		t.Fatalf("default page = %d entries, want %d", len(page), DefaultLimit)
	}
	if page[0].Address != addr(1) {
		t.Errorf("first account = %x, want %x", page[0].Address, addr(1))
	}

	big, _ := l.Accounts(nil, 100)
	if len(big) != MaxLimit {
		t.Errorf("clamped page = %d entries, want %d", len(big), MaxLimit)
	}

	last := page[len(page)-1].Address
	next, _ := l.Accounts(&last, 5)
	if len(next) != 5 || next[0].Address != addr(11) {
		t.Errorf("next page = %+v, want 5 entries from %x", next, addr(11))
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrInsufficientFunds, "InsufficientFunds"},
		{ErrAllowanceExpired, "Expired"},
		{ErrSelfAllowance, "CannotSetOwnAccount"},
		{types.ErrAmountOverflow, "ArithmeticOverflow"},
		{errors.New("other"), ""},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
