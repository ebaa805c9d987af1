package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

const maxAmountDec = "340282366920938463463374607431768211455"

func TestMaxAmount(t *testing.T) {
	if MaxAmount.String() != maxAmountDec {
		t.Errorf("MaxAmount = %s, want %s", MaxAmount, maxAmountDec)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"zero", "0", "0", nil},
		{"small", "12345", "12345", nil},
		{"max", maxAmountDec, maxAmountDec, nil},
		{"max plus one", "340282366920938463463374607431768211456", "", ErrAmountOverflow},
		{"empty", "", "", ErrAmountFormat},
		{"garbage", "12a", "", ErrAmountFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseAmount(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestAmount_AddOverflow(t *testing.T) {
	if _, err := MaxAmount.Add(NewAmount(1)); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("MaxAmount+1 error = %v, want %v", err, ErrAmountOverflow)
	}
	sum, err := NewAmount(40).Add(NewAmount(2))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.Uint64() != 42 {
		t.Errorf("40+2 = %s", sum)
	}
}

func TestAmount_Sub(t *testing.T) {
	if _, err := NewAmount(1).Sub(NewAmount(2)); !errors.Is(err, ErrAmountUnderflow) {
		t.Errorf("1-2 error = %v, want %v", err, ErrAmountUnderflow)
	}
	diff, err := NewAmount(10).Sub(NewAmount(3))
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if diff.Uint64() != 7 {
		t.Errorf("10-3 = %s", diff)
	}
}

func TestAmount_Saturating(t *testing.T) {
	if got := MaxAmount.SaturatingAdd(NewAmount(5)); got.Cmp(MaxAmount) != 0 {
		t.Errorf("SaturatingAdd = %s, want max", got)
	}
	if got := NewAmount(3).SaturatingSub(NewAmount(5)); !got.IsZero() {
		t.Errorf("SaturatingSub = %s, want 0", got)
	}
}

func TestAmount_Compare(t *testing.T) {
	a, b := NewAmount(1), NewAmount(2)
	if !a.Lt(b) || b.Lt(a) {
		t.Error("Lt ordering wrong")
	}
	if a.Cmp(a) != 0 {
		t.Error("Cmp(a, a) != 0")
	}
	if a.Min(b).Cmp(a) != 0 || b.Min(a).Cmp(a) != 0 {
		t.Error("Min wrong")
	}
}

func TestAmount_Bytes(t *testing.T) {
	for _, a := range []Amount{{}, NewAmount(1), MaxAmount} {
		b := a.Bytes()
		if len(b) != AmountSize {
			t.Fatalf("Bytes() length = %d, want %d", len(b), AmountSize)
		}
		got, err := AmountFromBytes(b)
		if err != nil {
			t.Fatalf("AmountFromBytes: %v", err)
		}
		if got.Cmp(a) != 0 {
			t.Errorf("roundtrip = %s, want %s", got, a)
		}
	}
	if _, err := AmountFromBytes([]byte{1, 2}); err == nil {
		t.Error("expected error for short encoding")
	}
}

func TestAmountFromUint256(t *testing.T) {
	big := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	if _, err := AmountFromUint256(big); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("2^128 error = %v, want %v", err, ErrAmountOverflow)
	}
	a, err := AmountFromUint256(uint256.NewInt(99))
	if err != nil {
		t.Fatalf("AmountFromUint256: %v", err)
	}
	if a.Uint64() != 99 {
		t.Errorf("got %s, want 99", a)
	}
}

func TestAmount_JSON(t *testing.T) {
	a, _ := ParseAmount(maxAmountDec)
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"`+maxAmountDec+`"` {
		t.Errorf("Marshal = %s", data)
	}

	var decoded Amount
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Cmp(a) != 0 {
		t.Errorf("decoded = %s, want %s", decoded, a)
	}

	var bare Amount
	if err := json.Unmarshal([]byte("150"), &bare); err != nil {
		t.Fatalf("Unmarshal bare number: %v", err)
	}
	if bare.Uint64() != 150 {
		t.Errorf("bare = %s, want 150", bare)
	}
}
