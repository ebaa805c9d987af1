package chain

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/config"
	"github.com/Klingon-tech/klingnet-staking/internal/storage"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// CreateGenesisBlock builds the genesis block record. It has height 0, a
// zero PrevHash, the genesis timestamp and no messages.
func CreateGenesisBlock(gen *config.Genesis) (*Block, error) {
	if gen == nil {
		return nil, fmt.Errorf("genesis config is nil")
	}
	blk := &Block{
		Height:    0,
		Timestamp: gen.Timestamp,
		Messages:  []types.Hash{},
	}
	blk.Hash = blk.computeHash()
	return blk, nil
}

// applyGenesis writes token info, allocations and the staking config into db.
func applyGenesis(db storage.DB, gen *config.Genesis) error {
	if err := gen.Validate(); err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}
	d := NewDispatcher(db)

	if err := d.ledger.InitTokenInfo(gen.Token.Name, gen.Token.Symbol, gen.Token.Decimals); err != nil {
		return fmt.Errorf("token info: %w", err)
	}

	allocs, err := gen.Allocations()
	if err != nil {
		return err
	}
	for _, a := range allocs {
		if err := d.ledger.Credit(a.Address, a.Amount); err != nil {
			return fmt.Errorf("alloc %s: %w", a.Address, err)
		}
	}

	params, err := gen.StakingParams()
	if err != nil {
		return err
	}
	if err := d.keeper.Init(params, 0); err != nil {
		return fmt.Errorf("staking init: %w", err)
	}
	return nil
}
