package wallet

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/pkg/crypto"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Account is an unlocked staking key. It satisfies crypto.Signer so it
// can sign messages directly.
type Account struct {
	Index   uint32
	Name    string
	Address types.Address
	key     *crypto.PrivateKey
}

// DeriveAccount unlocks the staking account at index from seed.
func DeriveAccount(seed []byte, index uint32) (*Account, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	hd, err := master.StakingKey(index)
	if err != nil {
		return nil, err
	}
	priv, err := hd.PrivateKey()
	if err != nil {
		return nil, fmt.Errorf("account %d: %w", index, err)
	}
	return &Account{Index: index, Address: hd.Address(), key: priv}, nil
}

// Sign signs a 32-byte digest.
func (a *Account) Sign(hash []byte) ([]byte, error) {
	return a.key.Sign(hash)
}

// PublicKey returns the compressed public key.
func (a *Account) PublicKey() []byte {
	return a.key.PublicKey()
}

// Lock wipes the private key. The account cannot sign afterwards.
func (a *Account) Lock() {
	if a.key != nil {
		a.key.Zero()
	}
}

var _ crypto.Signer = (*Account)(nil)
