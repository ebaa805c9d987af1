package wallet

import (
	"bytes"
	"errors"
	"testing"
)

func fastKDF() KDFParams {
	return KDFParams{Memory: 1024, Time: 1, Threads: 1}
}

func TestSealOpen(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"seed", bytes.Repeat([]byte{0xAB}, SeedSize)},
		{"large", bytes.Repeat([]byte("stake"), 2000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := Seal(tt.data, []byte("pw"), fastKDF())
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			got, err := Open(sealed, []byte("pw"))
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Fatal("roundtrip mismatch")
			}
		})
	}
}

func TestSeal_Randomized(t *testing.T) {
	a, _ := Seal([]byte("same"), []byte("pw"), fastKDF())
	b, _ := Seal([]byte("same"), []byte("pw"), fastKDF())
	if bytes.Equal(a, b) {
		t.Fatal("two seals of the same input are identical")
	}
	if a[0] != sealVersion {
		t.Fatalf("version byte = %d", a[0])
	}
}

func TestOpen_Errors(t *testing.T) {
	sealed, err := Seal([]byte("secret"), []byte("pw"), fastKDF())
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if _, err := Open(sealed, []byte("nope")); !errors.Is(err, ErrBadPassword) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := Open(sealed[:10], []byte("pw")); !errors.Is(err, ErrSealTooShort) {
		t.Errorf("truncated: err = %v", err)
	}

	flipped := append([]byte(nil), sealed...)
	flipped[len(flipped)-1] ^= 1
	if _, err := Open(flipped, []byte("pw")); !errors.Is(err, ErrBadPassword) {
		t.Errorf("corrupted ciphertext: err = %v", err)
	}

	// The header is authenticated, so lowering the cost fails too.
	tampered := append([]byte(nil), sealed...)
	tampered[9] = 2
	if _, err := Open(tampered, []byte("pw")); err == nil {
		t.Error("tampered header opened")
	}

	versioned := append([]byte(nil), sealed...)
	versioned[0] = 9
	if _, err := Open(versioned, []byte("pw")); !errors.Is(err, ErrSealVersion) {
		t.Errorf("version: err = %v", err)
	}
}

func TestDefaultKDF(t *testing.T) {
	p := DefaultKDF()
	if p.Memory < 64*1024 || p.Time == 0 || p.Threads == 0 {
		t.Fatalf("weak defaults: %+v", p)
	}
}
