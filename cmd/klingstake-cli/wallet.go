package main

import (
	"bytes"
	"flag"
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/internal/wallet"
)

func (c *cli) keystore() *wallet.Keystore {
	ks, err := wallet.NewKeystore(c.ksDir)
	if err != nil {
		fatal("open keystore: %v", err)
	}
	return ks
}

func (c *cli) cmdWallet(args []string) {
	if len(args) < 1 {
		fatal("Usage: klingstake-cli wallet <create|import|list|address>")
	}
	switch args[0] {
	case "create":
		c.walletCreate(args[1:], false)
	case "import":
		c.walletCreate(args[1:], true)
	case "list":
		c.walletList()
	case "address":
		c.walletAddress(args[1:])
	default:
		fatal("unknown wallet command %q", args[0])
	}
}

func (c *cli) walletCreate(args []string, imported bool) {
	fs := flag.NewFlagSet("wallet", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	phrase := fs.String("mnemonic", "", "BIP-39 mnemonic (import only)")
	passphrase := fs.String("passphrase", "", "Optional BIP-39 passphrase")
	fs.Parse(args)

	if *name == "" {
		fatal("--name is required")
	}

	mnemonic := *phrase
	if imported {
		if mnemonic == "" {
			fatal("--mnemonic is required")
		}
		if !wallet.ValidateMnemonic(mnemonic) {
			fatal("invalid mnemonic")
		}
	} else {
		var err error
		if mnemonic, err = wallet.GenerateMnemonic(); err != nil {
			fatal("%v", err)
		}
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, *passphrase)
	if err != nil {
		fatal("%v", err)
	}

	password, err := readPassword("New password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Repeat password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if !bytes.Equal(password, confirm) {
		fatal("passwords do not match")
	}

	entry, err := c.keystore().Create(*name, seed, password, wallet.DefaultKDF())
	if err != nil {
		fatal("%v", err)
	}

	if !imported {
		fmt.Println("Mnemonic (write it down, it is the only backup):")
		fmt.Println()
		fmt.Println("  " + mnemonic)
		fmt.Println()
	}
	fmt.Printf("Wallet:  %s\n", *name)
	fmt.Printf("Address: %s\n", entry.Address)
}

func (c *cli) walletList() {
	ks := c.keystore()
	names, err := ks.List()
	if err != nil {
		fatal("%v", err)
	}
	if len(names) == 0 {
		fmt.Println("No wallets.")
		return
	}
	for _, n := range names {
		accts, err := ks.Accounts(n)
		if err != nil {
			fmt.Printf("%s  (unreadable: %v)\n", n, err)
			continue
		}
		fmt.Printf("%s  (%d accounts)\n", n, len(accts))
	}
}

func (c *cli) walletAddress(args []string) {
	fs := flag.NewFlagSet("address", flag.ExitOnError)
	name := fs.String("wallet", "", "Wallet name")
	add := fs.Bool("new", false, "Derive and record the next account")
	label := fs.String("label", "", "Label for the new account")
	fs.Parse(args)

	if *name == "" {
		fatal("--wallet is required")
	}
	ks := c.keystore()

	if *add {
		password, err := readPassword("Password: ")
		if err != nil {
			fatal("read password: %v", err)
		}
		entry, err := ks.NewAccount(*name, password, *label)
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("[%d] %s\n", entry.Index, entry.Address)
		return
	}

	accts, err := ks.Accounts(*name)
	if err != nil {
		fatal("%v", err)
	}
	for _, a := range accts {
		if a.Name != "" {
			fmt.Printf("[%d] %s  %s\n", a.Index, a.Address, a.Name)
		} else {
			fmt.Printf("[%d] %s\n", a.Index, a.Address)
		}
	}
}
