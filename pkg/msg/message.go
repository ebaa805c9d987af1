// Package msg defines the signed messages routed by the chain dispatcher.
package msg

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/Klingon-tech/klingnet-staking/pkg/crypto"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Type names a message kind.
type Type string

// Message types.
const (
	TypeTransfer          Type = "transfer"
	TypeBurn              Type = "burn"
	TypeSend              Type = "send"
	TypeTransferFrom      Type = "transfer_from"
	TypeBurnFrom          Type = "burn_from"
	TypeSendFrom          Type = "send_from"
	TypeIncreaseAllowance Type = "increase_allowance"
	TypeDecreaseAllowance Type = "decrease_allowance"
	TypeStake             Type = "stake"
	TypeUnstake           Type = "unstake"
	TypeClaimRewards      Type = "claim_rewards"
	TypeUnlock            Type = "unlock"
)

// Types lists every message type in dispatch order.
var Types = []Type{
	TypeTransfer, TypeBurn, TypeSend,
	TypeTransferFrom, TypeBurnFrom, TypeSendFrom,
	TypeIncreaseAllowance, TypeDecreaseAllowance,
	TypeStake, TypeUnstake, TypeClaimRewards, TypeUnlock,
}

// Known reports whether t is a defined message type.
func (t Type) Known() bool {
	for _, k := range Types {
		if t == k {
			return true
		}
	}
	return false
}

// Message is a signed request from one account. Which fields are used
// depends on Type.
type Message struct {
	Type      Type          `json:"type"`
	ChainID   string        `json:"chain_id"`
	Nonce     uint64        `json:"nonce"`
	Amount    types.Amount  `json:"amount"`
	Recipient types.Address `json:"recipient"`
	Owner     types.Address `json:"owner"`
	Spender   types.Address `json:"spender"`
	Expires   uint64        `json:"expires,omitempty"`
	Payload   []byte        `json:"-"`
	PubKey    []byte        `json:"-"`
	Signature []byte        `json:"-"`
}

// messageJSON carries the byte fields hex-encoded.
type messageJSON struct {
	Type      Type          `json:"type"`
	ChainID   string        `json:"chain_id"`
	Nonce     uint64        `json:"nonce"`
	Amount    types.Amount  `json:"amount"`
	Recipient types.Address `json:"recipient"`
	Owner     types.Address `json:"owner"`
	Spender   types.Address `json:"spender"`
	Expires   uint64        `json:"expires,omitempty"`
	Payload   string        `json:"payload,omitempty"`
	PubKey    string        `json:"pubkey"`
	Signature string        `json:"signature"`
}

// MarshalJSON encodes the message with hex-encoded payload, key and signature.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(messageJSON{
		Type:      m.Type,
		ChainID:   m.ChainID,
		Nonce:     m.Nonce,
		Amount:    m.Amount,
		Recipient: m.Recipient,
		Owner:     m.Owner,
		Spender:   m.Spender,
		Expires:   m.Expires,
		Payload:   hex.EncodeToString(m.Payload),
		PubKey:    hex.EncodeToString(m.PubKey),
		Signature: hex.EncodeToString(m.Signature),
	})
}

// UnmarshalJSON decodes a message produced by MarshalJSON.
func (m *Message) UnmarshalJSON(data []byte) error {
	var j messageJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	payload, err := hex.DecodeString(j.Payload)
	if err != nil {
		return err
	}
	pub, err := hex.DecodeString(j.PubKey)
	if err != nil {
		return err
	}
	sig, err := hex.DecodeString(j.Signature)
	if err != nil {
		return err
	}
	*m = Message{
		Type:      j.Type,
		ChainID:   j.ChainID,
		Nonce:     j.Nonce,
		Amount:    j.Amount,
		Recipient: j.Recipient,
		Owner:     j.Owner,
		Spender:   j.Spender,
		Expires:   j.Expires,
		Payload:   nilIfEmpty(payload),
		PubKey:    nilIfEmpty(pub),
		Signature: nilIfEmpty(sig),
	}
	return nil
}

func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

// SigningBytes returns the canonical encoding signed by the sender.
// Format: type_len(4) | type | chain_len(4) | chain_id | nonce(8) | amount(16) |
// recipient(20) | owner(20) | spender(20) | expires(8) | payload_len(4) | payload |
// pubkey_len(4) | pubkey
func (m *Message) SigningBytes() []byte {
	buf := make([]byte, 0, 128+len(m.Type)+len(m.ChainID)+len(m.Payload)+len(m.PubKey))
	buf = appendBytes(buf, []byte(m.Type))
	buf = appendBytes(buf, []byte(m.ChainID))
	buf = binary.LittleEndian.AppendUint64(buf, m.Nonce)
	buf = append(buf, m.Amount.Bytes()...)
	buf = append(buf, m.Recipient[:]...)
	buf = append(buf, m.Owner[:]...)
	buf = append(buf, m.Spender[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, m.Expires)
	buf = appendBytes(buf, m.Payload)
	buf = appendBytes(buf, m.PubKey)
	return buf
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// Hash is the message ID: BLAKE3 of the signing bytes.
func (m *Message) Hash() types.Hash {
	return crypto.Hash(m.SigningBytes())
}

// Sender is the address derived from the message public key.
func (m *Message) Sender() types.Address {
	return crypto.AddressFromPubKey(m.PubKey)
}

// Debtor returns the account whose balance a token message reduces, and
// false for messages that reduce no balance.
func (m *Message) Debtor() (types.Address, bool) {
	switch m.Type {
	case TypeTransfer, TypeBurn, TypeSend:
		return m.Sender(), true
	case TypeTransferFrom, TypeBurnFrom, TypeSendFrom:
		return m.Owner, true
	}
	return types.Address{}, false
}
