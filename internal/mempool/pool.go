// Package mempool manages pending messages waiting for block inclusion.
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Mempool errors.
var (
	ErrAlreadyExists = errors.New("message already in mempool")
	ErrConflict      = errors.New("message conflicts with existing mempool entry")
	ErrPoolFull      = errors.New("mempool is full")
	ErrValidation    = errors.New("message failed validation")
	ErrWrongChain    = errors.New("message signed for another chain")
	ErrStaleNonce    = errors.New("nonce already used")
	ErrNonceTooHigh  = errors.New("nonce too far ahead")
)

// NonceSource reports the next nonce the chain expects from an account.
type NonceSource interface {
	Nonce(addr types.Address) (uint64, error)
}

// entry wraps a message with its hash and arrival order.
type entry struct {
	m      *msg.Message
	hash   types.Hash
	sender types.Address
	seq    uint64
}

type slot struct {
	sender types.Address
	nonce  uint64
}

// Pool holds unconfirmed messages.
type Pool struct {
	mu      sync.RWMutex
	msgs    map[types.Hash]*entry // hash -> entry
	slots   map[slot]types.Hash   // (sender, nonce) -> hash (conflict index)
	maxSize int
	seq     uint64

	chainID string
	nonces  NonceSource
	policy  *Policy
}

// New creates a mempool for chainID that reads account nonces from nonces.
func New(chainID string, nonces NonceSource, maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = 5000
	}
	return &Pool{
		msgs:    make(map[types.Hash]*entry),
		slots:   make(map[slot]types.Hash),
		maxSize: maxSize,
		chainID: chainID,
		nonces:  nonces,
		policy:  DefaultPolicy(),
	}
}

// SetPolicy replaces the acceptance policy.
func (p *Pool) SetPolicy(policy *Policy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policy = policy
}

// Add validates and adds a message to the mempool. It rejects duplicates,
// a second message for the same sender and nonce, and nonces the chain has
// already consumed.
func (p *Pool) Add(m *msg.Message) (types.Hash, error) {
	if err := m.ValidateBasic(); err != nil {
		return types.Hash{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if m.ChainID != p.chainID {
		return types.Hash{}, fmt.Errorf("%w: %q", ErrWrongChain, m.ChainID)
	}
	if err := m.Verify(); err != nil {
		return types.Hash{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	hash := m.Hash()
	sender := m.Sender()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.policy.Check(m); err != nil {
		return types.Hash{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	// Reject duplicates.
	if _, exists := p.msgs[hash]; exists {
		return types.Hash{}, ErrAlreadyExists
	}

	// Reject a second message for the same nonce.
	s := slot{sender: sender, nonce: m.Nonce}
	if other, exists := p.slots[s]; exists {
		return types.Hash{}, fmt.Errorf("%w: nonce %d already used by %s", ErrConflict, m.Nonce, other)
	}

	next, err := p.nonces.Nonce(sender)
	if err != nil {
		return types.Hash{}, fmt.Errorf("nonce lookup: %w", err)
	}
	if m.Nonce < next {
		return types.Hash{}, fmt.Errorf("%w: got %d, account is at %d", ErrStaleNonce, m.Nonce, next)
	}
	if p.policy.MaxPerSender > 0 && m.Nonce >= next+uint64(p.policy.MaxPerSender) {
		return types.Hash{}, fmt.Errorf("%w: got %d, account is at %d", ErrNonceTooHigh, m.Nonce, next)
	}

	if len(p.msgs) >= p.maxSize {
		return types.Hash{}, ErrPoolFull
	}

	p.seq++
	p.msgs[hash] = &entry{m: m, hash: hash, sender: sender, seq: p.seq}
	p.slots[s] = hash
	return hash, nil
}

// Remove removes a message from the mempool by hash.
func (p *Pool) Remove(hash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(hash)
}

func (p *Pool) removeLocked(hash types.Hash) {
	e, exists := p.msgs[hash]
	if !exists {
		return
	}
	delete(p.slots, slot{sender: e.sender, nonce: e.m.Nonce})
	delete(p.msgs, hash)
}

// RemoveIncluded removes every message included in a block.
func (p *Pool) RemoveIncluded(hashes []types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, h := range hashes {
		p.removeLocked(h)
	}
}

// Has checks if a message exists in the mempool.
func (p *Pool) Has(hash types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.msgs[hash]
	return exists
}

// Get retrieves a message from the mempool.
func (p *Pool) Get(hash types.Hash) *msg.Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, exists := p.msgs[hash]
	if !exists {
		return nil
	}
	return e.m
}

// Count returns the number of messages in the mempool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.msgs)
}

// Hashes returns the hashes of all messages in the mempool.
func (p *Pool) Hashes() []types.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()
	hashes := make([]types.Hash, 0, len(p.msgs))
	for h := range p.msgs {
		hashes = append(hashes, h)
	}
	return hashes
}

// PendingNonce returns the nonce addr should use next, counting messages
// already waiting in the pool.
func (p *Pool) PendingNonce(addr types.Address) (uint64, error) {
	next, err := p.nonces.Nonce(addr)
	if err != nil {
		return 0, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for {
		if _, ok := p.slots[slot{sender: addr, nonce: next}]; !ok {
			return next, nil
		}
		next++
	}
}

// SelectForBlock returns up to limit executable messages in arrival order.
// Each sender's messages appear in nonce order starting at the account's
// current nonce; anything after a nonce gap is held back.
func (p *Pool) SelectForBlock(limit int) []*msg.Message {
	p.mu.RLock()
	defer p.mu.RUnlock()

	// Build each sender's contiguous run starting at its chain nonce.
	bySender := make(map[types.Address][]*entry)
	for _, e := range p.msgs {
		bySender[e.sender] = append(bySender[e.sender], e)
	}
	runs := make([][]*entry, 0, len(bySender))
	for sender, entries := range bySender {
		sort.Slice(entries, func(i, j int) bool { return entries[i].m.Nonce < entries[j].m.Nonce })
		next, err := p.nonces.Nonce(sender)
		if err != nil {
			continue
		}
		var run []*entry
		for _, e := range entries {
			if e.m.Nonce != next {
				if e.m.Nonce < next {
					continue
				}
				break
			}
			run = append(run, e)
			next++
		}
		if len(run) > 0 {
			runs = append(runs, run)
		}
	}

	// Merge runs, always taking the earliest-arrived head.
	result := make([]*msg.Message, 0, min(limit, len(p.msgs)))
	for len(result) < limit && len(runs) > 0 {
		best := 0
		for i := 1; i < len(runs); i++ {
			if runs[i][0].seq < runs[best][0].seq {
				best = i
			}
		}
		result = append(result, runs[best][0].m)
		runs[best] = runs[best][1:]
		if len(runs[best]) == 0 {
			runs = append(runs[:best], runs[best+1:]...)
		}
	}
	return result
}
