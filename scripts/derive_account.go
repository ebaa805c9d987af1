//go:build ignore

// derive_account prints the staking address of a mnemonic's account, for
// filling genesis allocations.
// Usage: go run scripts/derive_account.go [--testnet] [--index N] "<mnemonic>"
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Klingon-tech/klingnet-staking/internal/wallet"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

func main() {
	testnet := flag.Bool("testnet", false, "Print a testnet address")
	index := flag.Uint("index", 0, "Account index")
	passphrase := flag.String("passphrase", "", "BIP-39 passphrase")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, `usage: derive_account [--testnet] [--index N] "<mnemonic>"`)
		os.Exit(1)
	}
	if *testnet {
		types.SetAddressHRP(types.TestnetHRP)
	}

	seed, err := wallet.SeedFromMnemonic(flag.Arg(0), *passphrase)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	acct, err := wallet.DeriveAccount(seed, uint32(*index))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer acct.Lock()

	fmt.Printf("Path:    m/44'/8888'/0'/0/%d\n", *index)
	fmt.Printf("PubKey:  %x\n", acct.PublicKey())
	fmt.Printf("Address: %s\n", acct.Address)
	fmt.Printf("Hex:     %s\n", acct.Address.Hex())
}
