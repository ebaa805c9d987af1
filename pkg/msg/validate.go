package msg

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/pkg/crypto"
)

// MaxPayloadSize bounds the opaque payload of send messages.
const MaxPayloadSize = 4096

// Validation errors.
var (
	ErrUnknownType      = errors.New("unknown message type")
	ErrMissingChainID   = errors.New("message missing chain id")
	ErrMissingRecipient = errors.New("message missing recipient")
	ErrMissingOwner     = errors.New("message missing owner")
	ErrMissingSpender   = errors.New("message missing spender")
	ErrUnexpectedField  = errors.New("field not allowed for message type")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrMissingPubKey    = errors.New("message missing public key")
	ErrMissingSig       = errors.New("message missing signature")
	ErrInvalidSig       = errors.New("invalid signature")
)

// ValidateBasic checks the fields each message type requires. Amount
// values are checked by the handlers, not here.
func (m *Message) ValidateBasic() error {
	if !m.Type.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	if m.ChainID == "" {
		return ErrMissingChainID
	}
	if len(m.PubKey) == 0 {
		return ErrMissingPubKey
	}
	if len(m.Signature) == 0 {
		return ErrMissingSig
	}
	if len(m.Payload) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(m.Payload), MaxPayloadSize)
	}

	needRecipient, needOwner, needSpender := false, false, false
	switch m.Type {
	case TypeTransfer, TypeSend:
		needRecipient = true
	case TypeTransferFrom, TypeSendFrom:
		needRecipient, needOwner = true, true
	case TypeBurnFrom:
		needOwner = true
	case TypeIncreaseAllowance, TypeDecreaseAllowance:
		needSpender = true
	case TypeUnlock:
		if !m.Amount.IsZero() {
			return fmt.Errorf("%w: unlock takes no amount", ErrUnexpectedField)
		}
	}

	if needRecipient && m.Recipient.IsZero() {
		return ErrMissingRecipient
	}
	if needOwner && m.Owner.IsZero() {
		return ErrMissingOwner
	}
	if needSpender && m.Spender.IsZero() {
		return ErrMissingSpender
	}
	if len(m.Payload) > 0 && m.Type != TypeSend && m.Type != TypeSendFrom {
		return fmt.Errorf("%w: payload on %s", ErrUnexpectedField, m.Type)
	}
	if m.Expires != 0 && !needSpender {
		return fmt.Errorf("%w: expires on %s", ErrUnexpectedField, m.Type)
	}
	return nil
}

// Verify checks the signature against the embedded public key.
func (m *Message) Verify() error {
	if len(m.PubKey) == 0 {
		return ErrMissingPubKey
	}
	if len(m.Signature) == 0 {
		return ErrMissingSig
	}
	hash := m.Hash()
	if !crypto.VerifySignature(hash[:], m.Signature, m.PubKey) {
		return ErrInvalidSig
	}
	return nil
}
