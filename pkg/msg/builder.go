package msg

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/pkg/crypto"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Builder constructs messages incrementally.
type Builder struct {
	m *Message
}

// NewBuilder starts a message of type t for chainID.
func NewBuilder(t Type, chainID string) *Builder {
	return &Builder{m: &Message{Type: t, ChainID: chainID}}
}

// Nonce sets the sender's account nonce.
func (b *Builder) Nonce(n uint64) *Builder {
	b.m.Nonce = n
	return b
}

// Amount sets the amount.
func (b *Builder) Amount(a types.Amount) *Builder {
	b.m.Amount = a
	return b
}

// Recipient sets the receiving account.
func (b *Builder) Recipient(a types.Address) *Builder {
	b.m.Recipient = a
	return b
}

// Owner sets the account an allowance is drawn from.
func (b *Builder) Owner(a types.Address) *Builder {
	b.m.Owner = a
	return b
}

// Spender sets the account an allowance is granted to.
func (b *Builder) Spender(a types.Address) *Builder {
	b.m.Spender = a
	return b
}

// Expires sets the allowance expiry height.
func (b *Builder) Expires(h uint64) *Builder {
	b.m.Expires = h
	return b
}

// Payload sets the opaque send payload.
func (b *Builder) Payload(p []byte) *Builder {
	b.m.Payload = p
	return b
}

// Sign sets the public key and signs the message.
func (b *Builder) Sign(s crypto.Signer) error {
	return b.m.Sign(s)
}

// Build returns the message.
func (b *Builder) Build() *Message {
	return b.m
}

// Sign sets PubKey from s and signs the message hash.
func (m *Message) Sign(s crypto.Signer) error {
	m.PubKey = s.PublicKey()
	hash := m.Hash()
	sig, err := s.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("sign message: %w", err)
	}
	m.Signature = sig
	return nil
}
