package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/Klingon-tech/klingnet-staking/internal/staking"
	"github.com/Klingon-tech/klingnet-staking/pkg/crypto"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// =============================================================================
// Chain rules (immutable, defined in genesis)
// =============================================================================

// Denomination constants.
// 1 token = 10^12 base units. All on-chain values are in base units.
const (
	Decimals  = 12
	Coin      = 1_000_000_000_000 // 10^12 base units per token
	MilliCoin = 1_000_000_000     // 10^9
)

// Block limits.
const (
	MaxBlockMessages = 1000 // Max messages per block
	MaxTokenNameLen  = 50
	MaxSymbolLen     = 12
)

// Genesis holds the genesis state and the staking rules.
// It is immutable after chain launch.
type Genesis struct {
	// Chain identity
	ChainID   string `json:"chain_id"`
	ChainName string `json:"chain_name"`

	// Genesis block
	Timestamp uint64 `json:"timestamp"`
	ExtraData string `json:"extra_data,omitempty"`

	// Token metadata
	Token TokenConfig `json:"token"`

	// Initial allocations (address -> balance in base units, decimal string)
	Alloc map[string]string `json:"alloc"`

	// Staking rules
	Staking StakingConfig `json:"staking"`
}

// TokenConfig describes the staked token.
type TokenConfig struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// StakingConfig is the genesis form of the staking parameters.
type StakingConfig struct {
	RewardRate  string `json:"reward_rate"`            // Decimal string
	UnlockDelay uint64 `json:"unlock_delay"`           // Blocks between unstake and unlock
	AccrualMode string `json:"accrual_mode,omitempty"` // "pool" (default) or "per_unit"
}

// Allocation is a parsed genesis allocation.
type Allocation struct {
	Address types.Address
	Amount  types.Amount
}

// =============================================================================
// Testnet Identity
//
// Derived from the well-known BIP-39 test mnemonic (DO NOT use on mainnet):
//
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon abandon
//	abandon abandon abandon abandon abandon abandon abandon art
//
// Derivation path: m/44'/8888'/0'/0/0 (no passphrase)
// =============================================================================

const (
	// TestnetMnemonic is the well-known seed phrase for the testnet faucet account.
	TestnetMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon art"

	// TestnetPubKey is the compressed public key (hex) derived from TestnetMnemonic.
	TestnetPubKey = "030bef68f8657df88098a0546da1712c88b459788bea1a6bbe964004166a25144f"

	// TestnetPrivKey is the private key (hex) derived from TestnetMnemonic.
	TestnetPrivKey = "1f0717e6e34acc6721021f4dfed54558ec8452452b6195545d06dd348b220091"

	// TestnetAddress is the address (bech32, tkstk) derived from TestnetMnemonic.
	// Address = BLAKE3(pubkey)[:20]
	TestnetAddress = "tkstk13uayfwq9djh7cd5dagxtuzk3mx7r7sc9wu3mkd"
)

// =============================================================================
// Pre-defined genesis configurations
// =============================================================================

// MainnetGenesis returns the mainnet genesis configuration.
func MainnetGenesis() *Genesis {
	return &Genesis{
		ChainID:   "klingstake-mainnet-1",
		ChainName: "Klingnet Staking Mainnet",
		Timestamp: 1770734103, // 2026-02-10
		ExtraData: "Klingnet Staking Genesis",
		Token: TokenConfig{
			Name:     "Klingnet Stake",
			Symbol:   "KSTK",
			Decimals: Decimals,
		},
		Alloc: map[string]string{
			"kstk1a8tfl79jgres7t90tttkc7ytjmhs5lpd3xpswv": "100000000000000000", // 100,000 KSTK
		},
		Staking: StakingConfig{
			RewardRate:  "20000000000", // 0.02 KSTK per block, shared by all stakers
			UnlockDelay: 201_600,       // ~7 days of 3 second blocks
			AccrualMode: string(staking.AccrualPool),
		},
	}
}

// TestnetGenesis returns the testnet genesis configuration.
func TestnetGenesis() *Genesis {
	g := MainnetGenesis()
	g.ChainID = "klingstake-testnet-1"
	g.ChainName = "Klingnet Staking Testnet"
	g.ExtraData = "Klingnet Staking Testnet Genesis"

	// Short unlock delay for testing.
	g.Staking.UnlockDelay = 20

	// Testnet allocation: 200,000 KSTK to the well-known testnet address.
	g.Alloc = map[string]string{
		TestnetAddress: "200000000000000000",
	}
	return g
}

// GenesisFor returns the genesis config for the given network.
func GenesisFor(network NetworkType) *Genesis {
	switch network {
	case Testnet:
		return TestnetGenesis()
	default:
		return MainnetGenesis()
	}
}

// =============================================================================
// Genesis file I/O
// =============================================================================

// LoadGenesis loads genesis configuration from a file.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}

	var g Genesis
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing genesis file: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis: %w", err)
	}

	return &g, nil
}

// Save writes the genesis configuration to a file.
func (g *Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding genesis: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing genesis file: %w", err)
	}

	return nil
}

// Validate checks that the genesis configuration is valid.
func (g *Genesis) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id is required")
	}

	if g.Token.Name == "" || len(g.Token.Name) > MaxTokenNameLen {
		return fmt.Errorf("token name must be 1-%d characters", MaxTokenNameLen)
	}
	if g.Token.Symbol == "" || len(g.Token.Symbol) > MaxSymbolLen {
		return fmt.Errorf("token symbol must be 1-%d characters", MaxSymbolLen)
	}
	if g.Token.Decimals > 18 {
		return fmt.Errorf("token decimals must be at most 18")
	}

	// Allocations must parse and their sum must fit the supply.
	allocs, err := g.Allocations()
	if err != nil {
		return err
	}
	var total types.Amount
	for _, a := range allocs {
		if total, err = total.Add(a.Amount); err != nil {
			return fmt.Errorf("genesis allocations exceed max supply: %w", err)
		}
	}

	if _, err := g.StakingParams(); err != nil {
		return err
	}
	return nil
}

// Allocations returns the parsed allocations sorted by address so that
// genesis state is deterministic.
func (g *Genesis) Allocations() ([]Allocation, error) {
	out := make([]Allocation, 0, len(g.Alloc))
	for addrStr, amtStr := range g.Alloc {
		addr, err := types.ParseAddress(addrStr)
		if err != nil {
			return nil, fmt.Errorf("invalid alloc address %q: %w", addrStr, err)
		}
		amt, err := types.ParseAmount(amtStr)
		if err != nil {
			return nil, fmt.Errorf("invalid alloc amount for %s: %w", addrStr, err)
		}
		if amt.IsZero() {
			return nil, fmt.Errorf("alloc amount for %s must be positive", addrStr)
		}
		out = append(out, Allocation{Address: addr, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Compare(out[j].Address) < 0
	})
	for i := 1; i < len(out); i++ {
		if out[i].Address == out[i-1].Address {
			return nil, fmt.Errorf("duplicate alloc address %s", out[i].Address.Hex())
		}
	}
	return out, nil
}

// StakingParams returns the staking configuration written at chain init.
func (g *Genesis) StakingParams() (staking.Config, error) {
	rate, err := types.ParseAmount(g.Staking.RewardRate)
	if err != nil {
		return staking.Config{}, fmt.Errorf("invalid reward_rate: %w", err)
	}
	mode, err := staking.ParseAccrualMode(g.Staking.AccrualMode)
	if err != nil {
		return staking.Config{}, err
	}
	return staking.Config{
		RewardRate:  rate,
		UnlockDelay: g.Staking.UnlockDelay,
		AccrualMode: mode,
	}, nil
}

// Hash returns a BLAKE3 hash of the genesis configuration.
// Used to identify the chain and detect genesis mismatches.
func (g *Genesis) Hash() (types.Hash, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Hash(data), nil
}
