package types

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestBech32_Roundtrip(t *testing.T) {
	data := []byte{0x8f, 0x3a, 0x44, 0xb8, 0x05, 0x6c, 0xaf, 0xec, 0x36, 0x8d,
		0xea, 0x0c, 0xbe, 0x0a, 0xd1, 0xd9, 0xbc, 0x3f, 0x43, 0x05}

	encoded, err := Bech32Encode(MainnetHRP, data)
	if err != nil {
		t.Fatalf("Bech32Encode: %v", err)
	}
	if !strings.HasPrefix(encoded, MainnetHRP+"1") {
		t.Errorf("encoded = %q, want %s1 prefix", encoded, MainnetHRP)
	}

	hrp, decoded, err := Bech32Decode(encoded)
	if err != nil {
		t.Fatalf("Bech32Decode: %v", err)
	}
	if hrp != MainnetHRP {
		t.Errorf("HRP = %q, want %q", hrp, MainnetHRP)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("decoded = %x, want %x", decoded, data)
	}
}

// BIP-173 test vector.
func TestBech32Decode_BIP173Vector(t *testing.T) {
	hrp, data, err := Bech32Decode("A12UEL5L")
	if err != nil {
		t.Fatalf("Bech32Decode: %v", err)
	}
	if hrp != "a" {
		t.Errorf("HRP = %q, want %q", hrp, "a")
	}
	if len(data) != 0 {
		t.Errorf("data = %x, want empty", data)
	}
}

func TestBech32Decode_Errors(t *testing.T) {
	valid, err := Bech32Encode(MainnetHRP, make([]byte, AddressSize))
	if err != nil {
		t.Fatalf("Bech32Encode: %v", err)
	}
	corrupted := valid[:len(valid)-1] + "q"
	if corrupted == valid {
		corrupted = valid[:len(valid)-1] + "p"
	}

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrBech32Empty},
		{"mixed case", "kStK1qqqqqqqqqq", ErrBech32Case},
		{"no separator", "kstkqqqqqqqq", ErrBech32Separator},
		{"checksum", corrupted, ErrBech32Checksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Bech32Decode(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Bech32Decode(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestBech32Decode_InvalidChars(t *testing.T) {
	_, _, err := Bech32Decode("kstk1b!!invalid")
	if err == nil {
		t.Error("expected error for invalid characters")
	}
}

func TestBech32Encode_EmptyHRP(t *testing.T) {
	if _, err := Bech32Encode("", []byte{1}); !errors.Is(err, ErrBech32Empty) {
		t.Errorf("Bech32Encode(\"\") error = %v, want %v", err, ErrBech32Empty)
	}
}

func TestBech32_DifferentHRPs(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	a, _ := Bech32Encode(MainnetHRP, data)
	b, _ := Bech32Encode(TestnetHRP, data)
	if a == b {
		t.Error("different HRPs produced identical encodings")
	}
}
