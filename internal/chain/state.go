package chain

import "github.com/Klingon-tech/klingnet-staking/pkg/types"

// State holds the current chain tip state.
type State struct {
	Height       uint64     `json:"height"`
	TipHash      types.Hash `json:"tip_hash"`
	MessageCount uint64     `json:"message_count"` // Messages executed since genesis, failed ones included.
	TipTimestamp uint64     `json:"tip_timestamp"`
}

// IsGenesis returns true if no blocks have been processed yet.
func (s *State) IsGenesis() bool {
	return s.Height == 0 && s.TipHash.IsZero()
}
