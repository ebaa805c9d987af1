package wallet

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerateMnemonic(t *testing.T) {
	a, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	if n := len(strings.Fields(a)); n != 24 {
		t.Fatalf("word count = %d, want 24", n)
	}
	if !ValidateMnemonic(a) {
		t.Fatal("generated phrase does not validate")
	}
	b, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}
	if a == b {
		t.Fatal("two phrases are identical")
	}
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		valid  bool
	}{
		{"12 words", testPhrase, true},
		{"mixed case and spacing", "  Abandon abandon ABANDON abandon abandon abandon\tabandon abandon abandon abandon abandon about ", true},
		{"empty", "", false},
		{"not words", "staking is not a valid phrase", false},
		{"bad checksum", strings.Repeat("abandon ", 23) + "abandon", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateMnemonic(tt.phrase); got != tt.valid {
				t.Errorf("ValidateMnemonic = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestSeedFromMnemonic_Vector(t *testing.T) {
	seed, err := SeedFromMnemonic(testPhrase, "TREZOR")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	want, _ := hex.DecodeString("c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04")
	if !bytes.Equal(seed, want) {
		t.Fatalf("seed = %x", seed)
	}

	// Normalization must not change the result.
	again, err := SeedFromMnemonic(strings.ToUpper(testPhrase)+"  ", "TREZOR")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	if !bytes.Equal(again, want) {
		t.Fatal("normalized phrase derived a different seed")
	}

	other, err := SeedFromMnemonic(testPhrase, "")
	if err != nil {
		t.Fatalf("SeedFromMnemonic: %v", err)
	}
	if bytes.Equal(other, want) {
		t.Fatal("passphrase did not change the seed")
	}
}

func TestSeedFromMnemonic_Invalid(t *testing.T) {
	if _, err := SeedFromMnemonic("abandon", ""); err == nil {
		t.Fatal("expected error")
	}
}
