package config

import (
	"fmt"
	"net"
	"time"
)

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	for i, ip := range cfg.RPC.AllowedIPs {
		if net.ParseIP(ip) == nil {
			if _, _, err := net.ParseCIDR(ip); err != nil {
				return fmt.Errorf("rpc.allowed[%d] %q is not an IP or CIDR", i, ip)
			}
		}
	}

	if cfg.Producer.Enabled && cfg.Producer.Interval < 100*time.Millisecond {
		return fmt.Errorf("producer.interval must be at least 100ms")
	}
	if cfg.Producer.MaxMessages < 1 || cfg.Producer.MaxMessages > MaxBlockMessages {
		return fmt.Errorf("producer.maxmsgs must be in range [1, %d]", MaxBlockMessages)
	}
	if cfg.Mempool.MaxSize < 1 {
		return fmt.Errorf("mempool.maxsize must be positive")
	}
	if cfg.Metrics.Enabled && !cfg.RPC.Enabled {
		return fmt.Errorf("metrics.enabled requires rpc.enabled")
	}

	return nil
}
