package chain

import (
	"encoding/binary"
	"encoding/json"

	"github.com/Klingon-tech/klingnet-staking/pkg/crypto"
	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Block records one executed block. Messages are referenced by hash;
// their outcomes live in receipts, committed to by ReceiptsRoot.
type Block struct {
	Height       uint64       `json:"height"`
	PrevHash     types.Hash   `json:"prev_hash"`
	Timestamp    uint64       `json:"timestamp"`
	Messages     []types.Hash `json:"messages"`
	MessagesRoot types.Hash   `json:"messages_root"`
	ReceiptsRoot types.Hash   `json:"receipts_root"`
	Hash         types.Hash   `json:"hash"`
}

// computeHash derives the block hash from its parent, height, timestamp
// and the two merkle roots.
func (b *Block) computeHash() types.Hash {
	var h, ts [8]byte
	binary.BigEndian.PutUint64(h[:], b.Height)
	binary.BigEndian.PutUint64(ts[:], b.Timestamp)
	return crypto.HashParts(b.PrevHash[:], h[:], ts[:], b.MessagesRoot[:], b.ReceiptsRoot[:])
}

// Receipt is the outcome of one message.
type Receipt struct {
	Hash    types.Hash      `json:"hash"`
	Height  uint64          `json:"height"`
	Index   uint32          `json:"index"`
	Type    msg.Type        `json:"type"`
	Sender  types.Address   `json:"sender"`
	Nonce   uint64          `json:"nonce"`
	Success bool            `json:"success"`
	Kind    string          `json:"kind,omitempty"`
	Error   string          `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}
