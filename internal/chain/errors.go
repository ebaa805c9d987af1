package chain

import (
	"errors"

	"github.com/Klingon-tech/klingnet-staking/internal/ledger"
	"github.com/Klingon-tech/klingnet-staking/internal/staking"
	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
)

// Chain errors.
var (
	ErrNotInitialized     = errors.New("chain not initialized")
	ErrAlreadyInitialized = errors.New("chain already initialized")
	ErrWrongChain         = errors.New("message signed for another chain")
	ErrBadNonce           = errors.New("bad nonce")
	ErrBadSignature       = errors.New("bad signature")
	ErrUnknownMessage     = errors.New("unknown message type")
	ErrReceiptNotFound    = errors.New("receipt not found")
	ErrBlockNotFound      = errors.New("block not found")
)

// Kind classifies a message execution error for receipts and RPC errors.
// Staking kinds take precedence, then ledger kinds, then envelope errors.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	if k := staking.Kind(err); k != "" {
		return k
	}
	if k := ledger.Kind(err); k != "" {
		return k
	}
	switch {
	case errors.Is(err, ErrBadNonce):
		return "BadNonce"
	case errors.Is(err, ErrBadSignature), errors.Is(err, msg.ErrInvalidSig):
		return "BadSignature"
	case errors.Is(err, ErrWrongChain):
		return "WrongChain"
	case errors.Is(err, ErrUnknownMessage), errors.Is(err, msg.ErrUnknownType):
		return "UnknownMessage"
	case errors.Is(err, msg.ErrMissingRecipient), errors.Is(err, msg.ErrMissingOwner),
		errors.Is(err, msg.ErrMissingSpender), errors.Is(err, msg.ErrUnexpectedField),
		errors.Is(err, msg.ErrPayloadTooLarge), errors.Is(err, msg.ErrMissingChainID),
		errors.Is(err, msg.ErrMissingPubKey), errors.Is(err, msg.ErrMissingSig):
		return "InvalidMessage"
	}
	return "Internal"
}
