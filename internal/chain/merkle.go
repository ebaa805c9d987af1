package chain

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-staking/pkg/crypto"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// merkleRoot folds leaves pairwise until one hash is left. An odd level
// pairs its last hash with itself. No leaves give the zero hash.
func merkleRoot(leaves []types.Hash) types.Hash {
	switch len(leaves) {
	case 0:
		return types.Hash{}
	case 1:
		return leaves[0]
	}

	level := append([]types.Hash(nil), leaves...)
	for len(level) > 1 {
		next := level[:0:0]
		for i := 0; i < len(level); i += 2 {
			right := level[i]
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, crypto.HashParts(level[i][:], right[:]))
		}
		level = next
	}
	return level[0]
}

// digest commits to the outcome of a receipt: the message, its position,
// success flag, error kind and result.
func (r *Receipt) digest() types.Hash {
	var pos [12]byte
	binary.BigEndian.PutUint64(pos[:8], r.Height)
	binary.BigEndian.PutUint32(pos[8:], r.Index)
	ok := []byte{0}
	if r.Success {
		ok[0] = 1
	}
	return crypto.HashParts(r.Hash[:], pos[:], ok, []byte(r.Kind), r.Result)
}

func receiptsRoot(receipts []*Receipt) types.Hash {
	leaves := make([]types.Hash, len(receipts))
	for i, r := range receipts {
		leaves[i] = r.digest()
	}
	return merkleRoot(leaves)
}
