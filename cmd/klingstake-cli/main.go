// klingstake-cli signs staking and token messages and queries a
// klingstaked node over JSON-RPC.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-staking/config"
	"github.com/Klingon-tech/klingnet-staking/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// cli carries the global settings shared by every command.
type cli struct {
	client  *rpcclient.Client
	ksDir   string
	network string

	info *tokenMeta
}

type tokenMeta struct {
	Symbol   string
	Decimals uint8
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	network := string(config.Mainnet)
	dataDir := config.DefaultDataDir()
	rpcURL := ""

	args := os.Args[1:]
	for len(args) > 0 {
		name, value, ok := globalFlag(args)
		if !ok {
			break
		}
		switch name {
		case "rpc":
			rpcURL = value
		case "datadir":
			dataDir = value
		case "network":
			network = value
		}
		if strings.Contains(args[0], "=") {
			args = args[1:]
		} else {
			args = args[2:]
		}
	}

	if network == string(config.Testnet) {
		types.SetAddressHRP(types.TestnetHRP)
	} else {
		network = string(config.Mainnet)
		types.SetAddressHRP(types.MainnetHRP)
	}
	if rpcURL == "" {
		rpcURL = fmt.Sprintf("http://127.0.0.1:%d", config.Default(config.NetworkType(network)).RPC.Port)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	c := &cli{
		client:  rpcclient.New(rpcURL),
		ksDir:   (&config.Config{DataDir: dataDir, Network: config.NetworkType(network)}).KeystoreDir(),
		network: network,
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "status":
		c.cmdStatus()
	case "block":
		c.cmdBlock(cmdArgs)
	case "receipt":
		c.cmdReceipt(cmdArgs)
	case "mempool":
		c.cmdMempool()
	case "wallet":
		c.cmdWallet(cmdArgs)
	case "balance":
		c.cmdBalance(cmdArgs)
	case "token":
		c.cmdToken(cmdArgs)

	case "transfer":
		c.cmdTransfer(cmdArgs)
	case "burn":
		c.cmdBurn(cmdArgs)
	case "send":
		c.cmdSend(cmdArgs)
	case "approve":
		c.cmdAllowance(cmdArgs, true)
	case "revoke":
		c.cmdAllowance(cmdArgs, false)
	case "transfer-from":
		c.cmdTransferFrom(cmdArgs)
	case "burn-from":
		c.cmdBurnFrom(cmdArgs)
	case "send-from":
		c.cmdSendFrom(cmdArgs)

	case "stake":
		c.cmdStake(cmdArgs)
	case "unstake":
		c.cmdUnstake(cmdArgs)
	case "claim":
		c.cmdClaim(cmdArgs)
	case "unlock":
		c.cmdUnlock(cmdArgs)
	case "staking":
		c.cmdStakingInfo()
	case "staked":
		c.cmdAmountQuery("staking_getStaked", "Staked", cmdArgs)
	case "reward":
		c.cmdAmountQuery("staking_getReward", "Reward", cmdArgs)
	case "available":
		c.cmdAmountQuery("staking_getAvailable", "Available", cmdArgs)
	case "locked":
		c.cmdLocked(cmdArgs)

	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

// globalFlag recognizes --name value and --name=value for the flags that
// may precede the command.
func globalFlag(args []string) (name, value string, ok bool) {
	for _, n := range []string{"rpc", "datadir", "network"} {
		prefix := "--" + n
		switch {
		case args[0] == prefix && len(args) > 1:
			return n, args[1], true
		case strings.HasPrefix(args[0], prefix+"="):
			return n, args[0][len(prefix)+1:], true
		}
	}
	return "", "", false
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: klingstake-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         RPC endpoint (default: local node for the network)
  --datadir <path>    Data directory (default: ~/.klingstake)
  --network <net>     mainnet (default) or testnet

Chain:
  status                          Show chain status
  block <height|hash>             Show a block
  receipt <hash>                  Show the receipt of an executed message
  mempool                         Show pending message count

Wallet:
  wallet create --name <n>        Create a wallet and print its mnemonic
  wallet import --name <n> --mnemonic "..."
                                  Import a wallet from a mnemonic
  wallet list                     List wallets
  wallet address --wallet <w> [--new --label <l>]
                                  List or add wallet accounts

Token:
  balance <address>               Balance, staked, locked and available
  token info                      Token metadata and supply
  token allowance <owner> <spender>
  token allowances <owner> [--start-after <addr>] [--limit <n>]
  token accounts [--start-after <addr>] [--limit <n>]
  transfer --wallet <w> --to <addr> --amount <amt>
  burn --wallet <w> --amount <amt>
  send --wallet <w> --to <contract> --amount <amt> [--payload <hex>]
  approve --wallet <w> --spender <addr> --amount <amt> [--expires <height>]
  revoke --wallet <w> --spender <addr> --amount <amt>
  transfer-from --wallet <w> --owner <addr> --to <addr> --amount <amt>
  burn-from --wallet <w> --owner <addr> --amount <amt>
  send-from --wallet <w> --owner <addr> --to <contract> --amount <amt> [--payload <hex>]

Staking:
  stake --wallet <w> --amount <amt>
  unstake --wallet <w> --amount <amt>
  claim --wallet <w>              Mint pending rewards
  unlock --wallet <w>             Release matured locked entries
  staking                         Staking parameters and accumulator
  staked <address>
  reward <address>                Pending reward
  available <address>             Balance minus staked and locked
  locked <address>                Locked entries and maturity heights

Signing commands accept --account <index> (default 0) and --wait to block
until the message is executed.
`)
}

// tokenInfo fetches and caches token metadata for amount formatting.
func (c *cli) tokenInfo() *tokenMeta {
	if c.info != nil {
		return c.info
	}
	var info struct {
		Symbol   string `json:"symbol"`
		Decimals uint8  `json:"decimals"`
	}
	if err := c.client.Call("token_getInfo", nil, &info); err != nil {
		fatal("token_getInfo: %v", err)
	}
	c.info = &tokenMeta{Symbol: info.Symbol, Decimals: info.Decimals}
	return c.info
}

func (c *cli) format(a types.Amount) string {
	meta := c.tokenInfo()
	return formatUnits(a, meta.Decimals) + " " + meta.Symbol
}

func (c *cli) parseAmount(s string) types.Amount {
	a, err := parseUnits(s, c.tokenInfo().Decimals)
	if err != nil {
		fatal("invalid amount: %v", err)
	}
	return a
}

func parseAddr(field, s string) types.Address {
	if s == "" {
		fatal("--%s is required", field)
	}
	a, err := types.ParseAddress(s)
	if err != nil {
		fatal("invalid %s address: %v", field, err)
	}
	return a
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encode: %v", err)
	}
	fmt.Println(string(data))
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
