package wallet

import (
	"errors"
	"fmt"

	"github.com/tyler-smith/go-bip32"

	"github.com/Klingon-tech/klingnet-staking/pkg/crypto"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Staking accounts live at m/44'/8888'/0'/0/index.
const (
	PurposeBIP44  = bip32.FirstHardenedChild + 44
	CoinTypeStake = bip32.FirstHardenedChild + 8888
	accountBranch = bip32.FirstHardenedChild + 0
	externalChain = 0
)

var errPublicOnly = errors.New("key has no private part")

// HDKey is a BIP-32 extended key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey builds the root key from a BIP-39 seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DerivePath walks the given child indices from k.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	cur := k.key
	for _, idx := range indices {
		child, err := cur.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
		cur = child
	}
	return &HDKey{key: cur}, nil
}

// StakingKey derives the key for account index under the staking path.
func (k *HDKey) StakingKey(index uint32) (*HDKey, error) {
	return k.DerivePath(PurposeBIP44, CoinTypeStake, accountBranch, externalChain, index)
}

// PrivateKey returns the signing key, or an error for public-only keys.
func (k *HDKey) PrivateKey() (*crypto.PrivateKey, error) {
	if !k.key.IsPrivate {
		return nil, errPublicOnly
	}
	raw := k.key.Key
	// bip32 pads private keys to 33 bytes.
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	return crypto.PrivateKeyFromBytes(raw)
}

// PublicKey returns the compressed public key.
func (k *HDKey) PublicKey() []byte {
	return k.key.PublicKey().Key
}

// Address is the ledger address controlled by this key.
func (k *HDKey) Address() types.Address {
	return crypto.AddressFromPubKey(k.PublicKey())
}

// Depth is 0 for the master key and 5 for a staking key.
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}

// Public strips the private part.
func (k *HDKey) Public() *HDKey {
	return &HDKey{key: k.key.PublicKey()}
}
