package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// Key of the testnet genesis account.
const (
	genesisPrivHex = "1f0717e6e34acc6721021f4dfed54558ec8452452b6195545d06dd348b220091"
	genesisPubHex  = "030bef68f8657df88098a0546da1712c88b459788bea1a6bbe964004166a25144f"
)

var _ Signer = (*PrivateKey)(nil)

func genesisKey(t *testing.T) *PrivateKey {
	t.Helper()
	b, _ := hex.DecodeString(genesisPrivHex)
	key, err := PrivateKeyFromBytes(b)
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}
	return key
}

func TestPrivateKey_GenesisKey(t *testing.T) {
	key := genesisKey(t)
	if got := hex.EncodeToString(key.PublicKey()); got != genesisPubHex {
		t.Fatalf("PublicKey() = %s, want %s", got, genesisPubHex)
	}
	if got := hex.EncodeToString(key.Serialize()); got != genesisPrivHex {
		t.Errorf("Serialize() = %s, want %s", got, genesisPrivHex)
	}
	if err := ValidatePublicKey(key.PublicKey()); err != nil {
		t.Errorf("ValidatePublicKey: %v", err)
	}
}

func TestPrivateKeyFromBytes_Length(t *testing.T) {
	for _, n := range []int{0, 31, 33, 64} {
		if _, err := PrivateKeyFromBytes(make([]byte, n)); err == nil {
			t.Errorf("PrivateKeyFromBytes(%d bytes) succeeded", n)
		}
	}
}

func TestGenerateKey_Distinct(t *testing.T) {
	a, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	b, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if bytes.Equal(a.PublicKey(), b.PublicKey()) {
		t.Error("two generated keys share a public key")
	}
	if AddressFromPubKey(a.PublicKey()) == AddressFromPubKey(b.PublicKey()) {
		t.Error("two generated keys share an address")
	}
}

func TestVerifySignature(t *testing.T) {
	key := genesisKey(t)
	other, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	digest := Hash([]byte("stake 400 at nonce 0"))
	sig, err := key.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != SignatureSize {
		t.Fatalf("signature is %d bytes, want %d", len(sig), SignatureSize)
	}

	flipped := append([]byte(nil), sig...)
	flipped[10] ^= 0x01
	otherDigest := Hash([]byte("stake 401 at nonce 0"))

	tests := []struct {
		name   string
		hash   []byte
		sig    []byte
		pubKey []byte
		want   bool
	}{
		{"valid", digest[:], sig, key.PublicKey(), true},
		{"other digest", otherDigest[:], sig, key.PublicKey(), false},
		{"other key", digest[:], sig, other.PublicKey(), false},
		{"flipped bit", digest[:], flipped, key.PublicKey(), false},
		{"truncated", digest[:], sig[:SignatureSize-1], key.PublicKey(), false},
		{"no pubkey", digest[:], sig, nil, false},
		{"garbage pubkey", digest[:], sig, make([]byte, PublicKeySize), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.hash, tt.sig, tt.pubKey); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSign_RejectsNonDigest(t *testing.T) {
	key := genesisKey(t)
	for _, n := range []int{0, 20, 31, 33} {
		if _, err := key.Sign(make([]byte, n)); err == nil {
			t.Errorf("Sign(%d bytes) succeeded", n)
		}
	}
}

func TestValidatePublicKey(t *testing.T) {
	good, _ := hex.DecodeString(genesisPubHex)
	uncompressedPrefix := append([]byte{0x04}, good[1:]...)
	tests := []struct {
		name    string
		in      []byte
		wantErr bool
	}{
		{"compressed", good, false},
		{"short", good[:32], true},
		{"long", append(append([]byte(nil), good...), 0), true},
		{"bad prefix", uncompressedPrefix, true},
		{"zero", make([]byte, PublicKeySize), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePublicKey(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePublicKey() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrivateKey_Zero(t *testing.T) {
	key := genesisKey(t)
	key.Zero()
	if !bytes.Equal(key.Serialize(), make([]byte, 32)) {
		t.Errorf("Serialize() after Zero = %x, want zeros", key.Serialize())
	}
}
