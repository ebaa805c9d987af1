package mempool

import "github.com/Klingon-tech/klingnet-staking/pkg/types"

// Prune removes messages whose nonce the chain has already consumed, either
// by executing them or by executing another message with the same nonce.
// Returns the number removed.
func (p *Pool) Prune() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := make(map[types.Address]uint64)
	var stale []*entry
	for _, e := range p.msgs {
		n, ok := next[e.sender]
		if !ok {
			var err error
			if n, err = p.nonces.Nonce(e.sender); err != nil {
				continue
			}
			next[e.sender] = n
		}
		if e.m.Nonce < n {
			stale = append(stale, e)
		}
	}

	for _, e := range stale {
		p.removeLocked(e.hash)
	}
	return len(stale)
}
