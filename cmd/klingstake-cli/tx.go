package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/Klingon-tech/klingnet-staking/internal/chain"
	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
)

const receiptTimeout = 2 * time.Minute

// signFlags are shared by every command that signs a message.
type signFlags struct {
	fs      *flag.FlagSet
	wallet  *string
	account *uint
	wait    *bool
}

func newSignFlags(name string) *signFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &signFlags{
		fs:      fs,
		wallet:  fs.String("wallet", "", "Wallet name"),
		account: fs.Uint("account", 0, "Wallet account index"),
		wait:    fs.Bool("wait", false, "Wait for the message to be executed"),
	}
}

func (sf *signFlags) parse(args []string) {
	sf.fs.Parse(args)
	if *sf.wallet == "" {
		fatal("--wallet is required")
	}
}

// submit unlocks the signing account, fills chain id and nonce, signs the
// message built by fill and submits it.
func (c *cli) submit(sf *signFlags, t msg.Type, fill func(b *msg.Builder)) {
	info, err := c.client.ChainInfo()
	if err != nil {
		fatal("chain_getInfo: %v", err)
	}

	password, err := readPassword("Password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	acct, err := c.keystore().Unlock(*sf.wallet, password, uint32(*sf.account))
	if err != nil {
		fatal("unlock wallet: %v", err)
	}
	defer acct.Lock()

	nonce, err := c.client.PendingNonce(acct.Address)
	if err != nil {
		fatal("account_getNonce: %v", err)
	}

	b := msg.NewBuilder(t, info.ChainID).Nonce(nonce)
	if fill != nil {
		fill(b)
	}
	if err := b.Sign(acct); err != nil {
		fatal("sign: %v", err)
	}
	m := b.Build()
	if err := m.ValidateBasic(); err != nil {
		fatal("%v", err)
	}

	hash, err := c.client.Submit(m)
	if err != nil {
		fatal("tx_submit: %v", err)
	}
	fmt.Printf("Submitted: %s\n", hash)
	fmt.Printf("From:      %s (nonce %d)\n", acct.Address, nonce)

	if !*sf.wait {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), receiptTimeout)
	defer cancel()
	r, err := c.client.WaitForReceipt(ctx, hash, time.Second)
	if err != nil {
		fatal("wait for receipt: %v", err)
	}
	c.printReceipt(r)
}

func (c *cli) printReceipt(r *chain.Receipt) {
	fmt.Printf("Height:    %d (index %d)\n", r.Height, r.Index)
	fmt.Printf("Type:      %s\n", r.Type)
	if r.Success {
		fmt.Println("Status:    success")
	} else {
		fmt.Printf("Status:    failed (%s)\n", r.Kind)
		fmt.Printf("Error:     %s\n", r.Error)
	}
	if len(r.Result) > 0 && string(r.Result) != "null" {
		fmt.Printf("Result:    %s\n", r.Result)
	}
}

func parsePayload(s string) []byte {
	if s == "" {
		return nil
	}
	p, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		fatal("invalid payload hex: %v", err)
	}
	if len(p) > msg.MaxPayloadSize {
		fatal("payload is %d bytes, max %d", len(p), msg.MaxPayloadSize)
	}
	return p
}

// ── token messages ──────────────────────────────────────────────────────

func (c *cli) cmdTransfer(args []string) {
	sf := newSignFlags("transfer")
	to := sf.fs.String("to", "", "Recipient address")
	amount := sf.fs.String("amount", "", "Amount")
	sf.parse(args)

	recipient := parseAddr("to", *to)
	amt := c.parseAmount(*amount)
	c.submit(sf, msg.TypeTransfer, func(b *msg.Builder) {
		b.Recipient(recipient).Amount(amt)
	})
}

func (c *cli) cmdBurn(args []string) {
	sf := newSignFlags("burn")
	amount := sf.fs.String("amount", "", "Amount")
	sf.parse(args)

	amt := c.parseAmount(*amount)
	c.submit(sf, msg.TypeBurn, func(b *msg.Builder) { b.Amount(amt) })
}

func (c *cli) cmdSend(args []string) {
	sf := newSignFlags("send")
	to := sf.fs.String("to", "", "Contract address")
	amount := sf.fs.String("amount", "", "Amount")
	payload := sf.fs.String("payload", "", "Hex payload passed to the contract")
	sf.parse(args)

	contract := parseAddr("to", *to)
	amt := c.parseAmount(*amount)
	p := parsePayload(*payload)
	c.submit(sf, msg.TypeSend, func(b *msg.Builder) {
		b.Recipient(contract).Amount(amt).Payload(p)
	})
}

// cmdAllowance handles approve (increase) and revoke (decrease).
func (c *cli) cmdAllowance(args []string, increase bool) {
	name, t := "revoke", msg.TypeDecreaseAllowance
	if increase {
		name, t = "approve", msg.TypeIncreaseAllowance
	}
	sf := newSignFlags(name)
	spender := sf.fs.String("spender", "", "Spender address")
	amount := sf.fs.String("amount", "", "Amount")
	expires := sf.fs.Uint64("expires", 0, "Expiry height (0 keeps the current expiry)")
	sf.parse(args)

	sp := parseAddr("spender", *spender)
	amt := c.parseAmount(*amount)
	c.submit(sf, t, func(b *msg.Builder) {
		b.Spender(sp).Amount(amt).Expires(*expires)
	})
}

func (c *cli) cmdTransferFrom(args []string) {
	sf := newSignFlags("transfer-from")
	owner := sf.fs.String("owner", "", "Owner address")
	to := sf.fs.String("to", "", "Recipient address")
	amount := sf.fs.String("amount", "", "Amount")
	sf.parse(args)

	o, r := parseAddr("owner", *owner), parseAddr("to", *to)
	amt := c.parseAmount(*amount)
	c.submit(sf, msg.TypeTransferFrom, func(b *msg.Builder) {
		b.Owner(o).Recipient(r).Amount(amt)
	})
}

func (c *cli) cmdBurnFrom(args []string) {
	sf := newSignFlags("burn-from")
	owner := sf.fs.String("owner", "", "Owner address")
	amount := sf.fs.String("amount", "", "Amount")
	sf.parse(args)

	o := parseAddr("owner", *owner)
	amt := c.parseAmount(*amount)
	c.submit(sf, msg.TypeBurnFrom, func(b *msg.Builder) {
		b.Owner(o).Amount(amt)
	})
}

func (c *cli) cmdSendFrom(args []string) {
	sf := newSignFlags("send-from")
	owner := sf.fs.String("owner", "", "Owner address")
	to := sf.fs.String("to", "", "Contract address")
	amount := sf.fs.String("amount", "", "Amount")
	payload := sf.fs.String("payload", "", "Hex payload passed to the contract")
	sf.parse(args)

	o, r := parseAddr("owner", *owner), parseAddr("to", *to)
	amt := c.parseAmount(*amount)
	p := parsePayload(*payload)
	c.submit(sf, msg.TypeSendFrom, func(b *msg.Builder) {
		b.Owner(o).Recipient(r).Amount(amt).Payload(p)
	})
}

// ── staking messages ────────────────────────────────────────────────────

func (c *cli) cmdStake(args []string) {
	sf := newSignFlags("stake")
	amount := sf.fs.String("amount", "", "Amount to stake")
	sf.parse(args)

	amt := c.parseAmount(*amount)
	c.submit(sf, msg.TypeStake, func(b *msg.Builder) { b.Amount(amt) })
}

func (c *cli) cmdUnstake(args []string) {
	sf := newSignFlags("unstake")
	amount := sf.fs.String("amount", "", "Amount to unstake")
	sf.parse(args)

	amt := c.parseAmount(*amount)
	c.submit(sf, msg.TypeUnstake, func(b *msg.Builder) { b.Amount(amt) })
}

func (c *cli) cmdClaim(args []string) {
	sf := newSignFlags("claim")
	sf.parse(args)
	c.submit(sf, msg.TypeClaimRewards, nil)
}

func (c *cli) cmdUnlock(args []string) {
	sf := newSignFlags("unlock")
	sf.parse(args)
	c.submit(sf, msg.TypeUnlock, nil)
}
