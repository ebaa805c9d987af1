package types

import (
	"encoding/json"
	"testing"
)

// The testnet genesis account, in both encodings.
const (
	vectorHex     = "8f3a44b8056cafec368dea0cbe0ad1d9bc3f4305"
	vectorMainnet = "kstk13uayfwq9djh7cd5dagxtuzk3mx7r7sc92tqt0g"
	vectorTestnet = "tkstk13uayfwq9djh7cd5dagxtuzk3mx7r7sc9wu3mkd"
)

func withHRP(t *testing.T, hrp string) {
	t.Helper()
	prev := GetAddressHRP()
	SetAddressHRP(hrp)
	t.Cleanup(func() { SetAddressHRP(prev) })
}

func vectorAddress(t *testing.T) Address {
	t.Helper()
	a, err := HexToAddress(vectorHex)
	if err != nil {
		t.Fatalf("HexToAddress: %v", err)
	}
	return a
}

func TestAddress_StringPerNetwork(t *testing.T) {
	a := vectorAddress(t)
	for _, tc := range []struct {
		hrp, want string
	}{
		{MainnetHRP, vectorMainnet},
		{TestnetHRP, vectorTestnet},
	} {
		t.Run(tc.hrp, func(t *testing.T) {
			withHRP(t, tc.hrp)
			if got := a.String(); got != tc.want {
				t.Errorf("String() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	want := vectorAddress(t)
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"mainnet", vectorMainnet, false},
		{"testnet", vectorTestnet, false},
		{"raw hex", vectorHex, false},
		{"empty", "", true},
		{"bad checksum", vectorMainnet[:len(vectorMainnet)-1] + "q", true},
		{"no separator", "kstkqqqq", true},
		{"short hex", vectorHex[:38], true},
		{"short payload", "a12uel5l", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAddress(%q) = %s, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", tt.in, err)
			}
			if got != want {
				t.Errorf("ParseAddress(%q) = %x, want %s", tt.in, got[:], vectorHex)
			}
		})
	}
}

// A genesis written for testnet stays readable by a node running with the
// mainnet prefix and the other way around.
func TestAddress_JSONAcrossNetworks(t *testing.T) {
	withHRP(t, TestnetHRP)
	a := vectorAddress(t)
	data, err := json.Marshal(map[string]Address{"staker": a})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"staker":"`+vectorTestnet+`"}` {
		t.Fatalf("Marshal = %s", data)
	}

	SetAddressHRP(MainnetHRP)
	var back map[string]Address
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back["staker"] != a {
		t.Errorf("decoded %x, want %s", back["staker"], vectorHex)
	}

	var empty Address
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil || !empty.IsZero() {
		t.Errorf("empty string decoded to %x, err %v", empty[:], err)
	}
	if err := json.Unmarshal([]byte(`"kstk1nope"`), &empty); err == nil {
		t.Error("Unmarshal accepted an invalid address")
	}
}

func TestAddress_CompareOrdersPages(t *testing.T) {
	lo := Address{0x01}
	hi := Address{0x01, 0x02}
	if lo.Compare(hi) >= 0 || hi.Compare(lo) <= 0 || lo.Compare(lo) != 0 {
		t.Errorf("Compare does not order %x < %x", lo[:], hi[:])
	}
	if !(Address{}).IsZero() || lo.IsZero() {
		t.Error("IsZero mismatch")
	}
	b := lo.Bytes()
	b[0] = 0xff
	if lo[0] != 0x01 {
		t.Error("Bytes() must return a copy")
	}
	if lo.Hex() != "01"+"00000000000000000000000000000000000000" {
		t.Errorf("Hex() = %s", lo.Hex())
	}
}
