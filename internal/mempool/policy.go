package mempool

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
)

// Policy defaults.
const (
	DefaultMaxMessageSize = 8_192
	DefaultMaxPerSender   = 64
)

// Policy defines message acceptance rules.
type Policy struct {
	MaxMessageSize int // Maximum message size in signing bytes.
	MaxPerSender   int // Maximum pending nonces per sender (0 = unlimited).
}

// DefaultPolicy returns a policy with sensible defaults.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxMessageSize: DefaultMaxMessageSize,
		MaxPerSender:   DefaultMaxPerSender,
	}
}

// Check validates a message against policy rules.
// Policy rules can vary per node; they never affect execution.
func (p *Policy) Check(m *msg.Message) error {
	size := len(m.SigningBytes())
	if p.MaxMessageSize > 0 && size > p.MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes, max %d", size, p.MaxMessageSize)
	}
	return nil
}
