package node

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Klingon-tech/klingnet-staking/config"
	"github.com/Klingon-tech/klingnet-staking/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-staking/pkg/crypto"
	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	tests := []struct {
		input, want string
	}{
		{"~/genesis.json", filepath.Join(home, "genesis.json")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := expandHome(tt.input); got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// testConfig writes a genesis funding key and returns a testnet config
// rooted in a temp dir.
func testConfig(t *testing.T, key *crypto.PrivateKey) *config.Config {
	t.Helper()
	dir := t.TempDir()

	gen := config.TestnetGenesis()
	gen.ChainID = "node-test"
	gen.Staking.RewardRate = "100"
	gen.Staking.UnlockDelay = 2
	gen.Alloc = map[string]string{
		crypto.AddressFromPubKey(key.PublicKey()).Hex(): "1000",
	}
	genPath := filepath.Join(dir, "genesis.json")
	if err := gen.Save(genPath); err != nil {
		t.Fatalf("save genesis: %v", err)
	}

	cfg := config.Default(config.Testnet)
	cfg.DataDir = dir
	cfg.Genesis = genPath
	cfg.RPC.Port = 0
	cfg.Producer.Interval = 100 * time.Millisecond
	cfg.Metrics.Enabled = true
	cfg.Log.Level = "error"
	if err := config.EnsureDataDirs(cfg); err != nil {
		t.Fatalf("EnsureDataDirs: %v", err)
	}
	return cfg
}

func TestNodeLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t, key)

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Height() != 0 {
		t.Fatalf("height = %d, want 0", n.Height())
	}
	if n.RPCAddr() == "" {
		t.Fatal("RPCAddr is empty")
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	client := rpcclient.New("http://" + n.RPCAddr())
	b := msg.NewBuilder(msg.TypeStake, "node-test").Nonce(0).Amount(types.NewAmount(400))
	if err := b.Sign(key); err != nil {
		t.Fatal(err)
	}
	hash, err := client.Submit(b.Build())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r, err := client.WaitForReceipt(ctx, hash, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitForReceipt: %v", err)
	}
	if !r.Success {
		t.Fatalf("stake failed: %s", r.Error)
	}

	staked, err := n.Chain().StakedBalance(crypto.AddressFromPubKey(key.PublicKey()))
	if err != nil {
		t.Fatal(err)
	}
	if staked.Cmp(types.NewAmount(400)) != 0 {
		t.Fatalf("staked = %s, want 400", staked)
	}
	n.Stop()

	// Reopening recovers the chain instead of reapplying genesis.
	n2, err := New(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer n2.Stop()
	if n2.Height() < r.Height {
		t.Fatalf("height after reopen = %d, want >= %d", n2.Height(), r.Height)
	}
}

func TestNew_ChainMismatch(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t, key)
	cfg.Producer.Enabled = false
	cfg.RPC.Enabled = false
	cfg.Metrics.Enabled = false

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	n.Stop()

	gen, err := config.LoadGenesis(cfg.Genesis)
	if err != nil {
		t.Fatal(err)
	}
	gen.ChainID = "other-chain"
	if err := gen.Save(cfg.Genesis); err != nil {
		t.Fatal(err)
	}
	if _, err := New(cfg); !errors.Is(err, ErrChainMismatch) {
		t.Fatalf("err = %v, want ErrChainMismatch", err)
	}
}
