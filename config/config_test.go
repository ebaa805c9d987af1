package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults_Valid(t *testing.T) {
	for _, network := range []NetworkType{Mainnet, Testnet} {
		cfg := Default(network)
		if cfg.Network != network {
			t.Errorf("Default(%s).Network = %s", network, cfg.Network)
		}
		if err := Validate(cfg); err != nil {
			t.Errorf("Default(%s) invalid: %v", network, err)
		}
	}
	if DefaultMainnet().RPC.Port == DefaultTestnet().RPC.Port {
		t.Error("mainnet and testnet should use different RPC ports")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"network", func(c *Config) { c.Network = "devnet" }},
		{"rpc port", func(c *Config) { c.RPC.Port = 70000 }},
		{"allowed ip", func(c *Config) { c.RPC.AllowedIPs = []string{"localhost"} }},
		{"interval", func(c *Config) { c.Producer.Interval = time.Millisecond }},
		{"max msgs", func(c *Config) { c.Producer.MaxMessages = 0 }},
		{"max msgs above limit", func(c *Config) { c.Producer.MaxMessages = MaxBlockMessages + 1 }},
		{"mempool", func(c *Config) { c.Mempool.MaxSize = 0 }},
		{"metrics without rpc", func(c *Config) {
			c.Metrics.Enabled = true
			c.RPC.Enabled = false
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if err := Validate(nil); err == nil {
		t.Error("Validate(nil) should fail")
	}
}

func TestValidate_AllowsCIDR(t *testing.T) {
	cfg := DefaultMainnet()
	cfg.RPC.AllowedIPs = []string{"10.0.0.0/8", "::1"}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.conf")
	content := `# comment
rpc.port = 9000
producer.interval = "500ms"
rpc.allowed = 127.0.0.1, 10.0.0.1
metrics.enabled = yes
unknown.key = ignored
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if cfg.RPC.Port != 9000 {
		t.Errorf("RPC.Port = %d, want 9000", cfg.RPC.Port)
	}
	if cfg.Producer.Interval != 500*time.Millisecond {
		t.Errorf("Producer.Interval = %v, want 500ms", cfg.Producer.Interval)
	}
	if len(cfg.RPC.AllowedIPs) != 2 || cfg.RPC.AllowedIPs[1] != "10.0.0.1" {
		t.Errorf("RPC.AllowedIPs = %v", cfg.RPC.AllowedIPs)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be true")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "absent.conf"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("values = %v, want empty", values)
	}
}

func TestLoadFile_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.conf")
	if err := os.WriteFile(path, []byte("just a line\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyFileConfig_BadValue(t *testing.T) {
	cfg := DefaultMainnet()
	err := ApplyFileConfig(cfg, map[string]string{"producer.interval": "soon"})
	if err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestParseArgs(t *testing.T) {
	f, err := ParseArgs([]string{"--testnet", "--rpc-port=9100", "--produce=false", "--metrics", "--block-interval=2s"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if f.Network != "testnet" {
		t.Errorf("Network = %q, want testnet", f.Network)
	}
	if !f.SetProduce || f.Produce {
		t.Error("--produce=false should be recorded as an explicit false")
	}

	cfg := DefaultTestnet()
	ApplyFlags(cfg, f)
	if cfg.RPC.Port != 9100 {
		t.Errorf("RPC.Port = %d, want 9100", cfg.RPC.Port)
	}
	if cfg.Producer.Enabled {
		t.Error("Producer.Enabled should be false")
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be true")
	}
	if cfg.Producer.Interval != 2*time.Second {
		t.Errorf("Producer.Interval = %v, want 2s", cfg.Producer.Interval)
	}
}

func TestParseArgs_PositionalStopsParsing(t *testing.T) {
	if _, err := ParseArgs([]string{"--rpc", "extra", "--metrics"}); err == nil {
		t.Error("expected error for flag after positional argument")
	}
}

func TestResolve_Precedence(t *testing.T) {
	dir := t.TempDir()
	f, err := ParseArgs([]string{"--datadir=" + dir, "--testnet", "--mempool-size=42"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}

	// First resolve writes the default config file.
	cfg, err := Resolve(f)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := os.Stat(cfg.ConfigFile()); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if _, err := os.Stat(cfg.StateDir()); err != nil {
		t.Fatalf("state dir not created: %v", err)
	}

	// File value is overridden by the flag, flag-less values come from the file.
	conf := "mempool.maxsize = 7\nproducer.maxmsgs = 9\n"
	if err := os.WriteFile(cfg.ConfigFile(), []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Resolve(f)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Mempool.MaxSize != 42 {
		t.Errorf("Mempool.MaxSize = %d, want 42 (flag)", cfg.Mempool.MaxSize)
	}
	if cfg.Producer.MaxMessages != 9 {
		t.Errorf("Producer.MaxMessages = %d, want 9 (file)", cfg.Producer.MaxMessages)
	}
	if cfg.Network != Testnet {
		t.Errorf("Network = %s, want testnet", cfg.Network)
	}
}

func TestLoadGenesisFor(t *testing.T) {
	cfg := DefaultTestnet()
	g, err := cfg.LoadGenesisFor()
	if err != nil {
		t.Fatalf("LoadGenesisFor: %v", err)
	}
	if g.ChainID != TestnetGenesis().ChainID {
		t.Errorf("ChainID = %s", g.ChainID)
	}

	path := filepath.Join(t.TempDir(), "g.json")
	custom := TestnetGenesis()
	custom.ChainID = "custom-1"
	if err := custom.Save(path); err != nil {
		t.Fatal(err)
	}
	cfg.Genesis = path
	g, err = cfg.LoadGenesisFor()
	if err != nil {
		t.Fatalf("LoadGenesisFor: %v", err)
	}
	if g.ChainID != "custom-1" {
		t.Errorf("ChainID = %s, want custom-1", g.ChainID)
	}
}
