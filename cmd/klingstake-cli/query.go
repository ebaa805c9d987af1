package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/Klingon-tech/klingnet-staking/internal/chain"
	"github.com/Klingon-tech/klingnet-staking/internal/ledger"
	"github.com/Klingon-tech/klingnet-staking/internal/rpc"
	"github.com/Klingon-tech/klingnet-staking/internal/staking"
)

func (c *cli) cmdStatus() {
	info, err := c.client.ChainInfo()
	if err != nil {
		fatal("chain_getInfo: %v", err)
	}
	fmt.Printf("Chain:    %s\n", info.ChainID)
	if info.ChainName != "" {
		fmt.Printf("Name:     %s\n", info.ChainName)
	}
	if info.Symbol != "" {
		fmt.Printf("Symbol:   %s\n", info.Symbol)
	}
	fmt.Printf("Height:   %d\n", info.Height)
	fmt.Printf("Tip:      %s\n", info.TipHash)
	fmt.Printf("Time:     %s\n", time.Unix(int64(info.TipTimestamp), 0).UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("Messages: %d\n", info.MessageCount)
}

func (c *cli) cmdBlock(args []string) {
	if len(args) < 1 {
		fatal("Usage: klingstake-cli block <height|hash>")
	}
	var blk chain.Block
	if height, err := strconv.ParseUint(args[0], 10, 64); err == nil {
		if err := c.client.Call("chain_getBlockByHeight", rpc.HeightParam{Height: height}, &blk); err != nil {
			fatal("chain_getBlockByHeight: %v", err)
		}
	} else if err := c.client.Call("chain_getBlockByHash", rpc.HashParam{Hash: args[0]}, &blk); err != nil {
		fatal("chain_getBlockByHash: %v", err)
	}

	fmt.Printf("Height:    %d\n", blk.Height)
	fmt.Printf("Hash:      %s\n", blk.Hash)
	fmt.Printf("Prev:      %s\n", blk.PrevHash)
	fmt.Printf("Timestamp: %s\n", time.Unix(int64(blk.Timestamp), 0).UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("Messages:  %d\n", len(blk.Messages))
	for i, h := range blk.Messages {
		fmt.Printf("  [%d] %s\n", i, h)
	}
}

func (c *cli) cmdReceipt(args []string) {
	if len(args) < 1 {
		fatal("Usage: klingstake-cli receipt <hash>")
	}
	var r chain.Receipt
	if err := c.client.Call("tx_getReceipt", rpc.HashParam{Hash: args[0]}, &r); err != nil {
		fatal("tx_getReceipt: %v", err)
	}
	fmt.Printf("Hash:      %s\n", r.Hash)
	fmt.Printf("Sender:    %s (nonce %d)\n", r.Sender, r.Nonce)
	c.printReceipt(&r)
}

func (c *cli) cmdMempool() {
	var res rpc.MempoolInfoResult
	if err := c.client.Call("mempool_getInfo", nil, &res); err != nil {
		fatal("mempool_getInfo: %v", err)
	}
	fmt.Printf("Pending: %d\n", res.Count)
}

func (c *cli) cmdBalance(args []string) {
	if len(args) < 1 {
		fatal("Usage: klingstake-cli balance <address>")
	}
	var res rpc.BalanceResult
	if err := c.client.Call("token_getBalance", rpc.AddressParam{Address: args[0]}, &res); err != nil {
		fatal("token_getBalance: %v", err)
	}
	fmt.Printf("Address:   %s\n", res.Address)
	fmt.Printf("Balance:   %s\n", c.format(res.Balance))
	fmt.Printf("Staked:    %s\n", c.format(res.Staked))
	fmt.Printf("Locked:    %s\n", c.format(res.Locked))
	fmt.Printf("Available: %s\n", c.format(res.Available))
}

func (c *cli) cmdToken(args []string) {
	if len(args) < 1 {
		fatal("Usage: klingstake-cli token <info|allowance|allowances|accounts>")
	}
	switch args[0] {
	case "info":
		var info ledger.TokenInfo
		if err := c.client.Call("token_getInfo", nil, &info); err != nil {
			fatal("token_getInfo: %v", err)
		}
		fmt.Printf("Name:     %s\n", info.Name)
		fmt.Printf("Symbol:   %s\n", info.Symbol)
		fmt.Printf("Decimals: %d\n", info.Decimals)
		fmt.Printf("Supply:   %s\n", formatUnits(info.TotalSupply, info.Decimals))

	case "allowance":
		if len(args) < 3 {
			fatal("Usage: klingstake-cli token allowance <owner> <spender>")
		}
		var res rpc.AllowanceResult
		if err := c.client.Call("token_getAllowance", rpc.AllowanceParam{Owner: args[1], Spender: args[2]}, &res); err != nil {
			fatal("token_getAllowance: %v", err)
		}
		fmt.Printf("Allowance: %s\n", c.format(res.Allowance))
		switch {
		case res.Expires == 0:
			fmt.Println("Expires:   never")
		case res.Expired:
			fmt.Printf("Expires:   height %d (expired)\n", res.Expires)
		default:
			fmt.Printf("Expires:   height %d\n", res.Expires)
		}

	case "allowances":
		if len(args) < 2 {
			fatal("Usage: klingstake-cli token allowances <owner> [--start-after <addr>] [--limit <n>]")
		}
		p := pageFlags("allowances", args[2:])
		p.Owner = args[1]
		var res rpc.AllowancesResult
		if err := c.client.Call("token_getAllAllowances", p, &res); err != nil {
			fatal("token_getAllAllowances: %v", err)
		}
		for _, a := range res.Allowances {
			fmt.Printf("%s  %s  expires=%d\n", a.Spender, c.format(a.Amount), a.Expires)
		}

	case "accounts":
		p := pageFlags("accounts", args[1:])
		var res rpc.AccountsResult
		if err := c.client.Call("token_getAllAccounts", p, &res); err != nil {
			fatal("token_getAllAccounts: %v", err)
		}
		for _, a := range res.Accounts {
			fmt.Printf("%s  %s\n", a.Address, c.format(a.Balance))
		}

	default:
		fatal("unknown token command %q", args[0])
	}
}

func pageFlags(name string, args []string) *rpc.PageParam {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	start := fs.String("start-after", "", "Resume after this address")
	limit := fs.Uint("limit", 0, "Page size (0 = server default)")
	fs.Parse(args)
	return &rpc.PageParam{StartAfter: *start, Limit: uint32(*limit)}
}

func (c *cli) cmdStakingInfo() {
	var cfg staking.Config
	if err := c.client.Call("staking_getConfig", nil, &cfg); err != nil {
		fatal("staking_getConfig: %v", err)
	}
	var acc rpc.AccumulatorResult
	if err := c.client.Call("staking_getAccumulator", nil, &acc); err != nil {
		fatal("staking_getAccumulator: %v", err)
	}
	fmt.Printf("Reward rate:     %s per block\n", c.format(cfg.RewardRate))
	fmt.Printf("Unlock delay:    %d blocks\n", cfg.UnlockDelay)
	fmt.Printf("Accrual mode:    %s\n", cfg.AccrualMode)
	fmt.Printf("Total staked:    %s\n", c.format(acc.TotalStaked))
	fmt.Printf("Reward per unit: %s / %s\n", acc.RewardPerUnit, acc.RewardScale)
	fmt.Printf("Last update:     %d\n", acc.LastUpdateHeight)
}

func (c *cli) cmdAmountQuery(method, label string, args []string) {
	if len(args) < 1 {
		fatal("Usage: klingstake-cli %s <address>", label)
	}
	var res rpc.AmountResult
	if err := c.client.Call(method, rpc.AddressParam{Address: args[0]}, &res); err != nil {
		fatal("%s: %v", method, err)
	}
	fmt.Printf("%s: %s\n", label, c.format(res.Amount))
}

func (c *cli) cmdLocked(args []string) {
	fs := flag.NewFlagSet("locked", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print raw JSON")
	if len(args) < 1 {
		fatal("Usage: klingstake-cli locked <address> [--json]")
	}
	fs.Parse(args[1:])

	var raw json.RawMessage
	if err := c.client.Call("staking_getLocked", rpc.AddressParam{Address: args[0]}, &raw); err != nil {
		fatal("staking_getLocked: %v", err)
	}
	if *asJSON {
		printJSON(raw)
		return
	}
	var res rpc.LockedResult
	if err := json.Unmarshal(raw, &res); err != nil {
		fatal("decode: %v", err)
	}
	fmt.Printf("Locked:   %s\n", c.format(res.Total))
	fmt.Printf("Unlocked: %s (claimable with unlock)\n", c.format(res.Unlocked))
	for i, e := range res.Entries {
		fmt.Printf("  [%d] %s  matures at %d\n", i, c.format(e.Amount), e.MaturityHeight)
	}
}
