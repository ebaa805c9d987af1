package chain

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/internal/storage"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Key prefixes and state keys for the chain store.
var (
	prefixBlock   = []byte("b/") // b/<hash(32)> -> block JSON
	prefixHeight  = []byte("h/") // h/<height(8)> -> hash(32)
	prefixReceipt = []byte("r/") // r/<msghash(32)> -> receipt JSON
	prefixNonce   = []byte("n/") // n/<addr(20)> -> next nonce(8)
	keyTip        = []byte("s/tip")
	keyChainID    = []byte("s/chain")
)

const tipSize = 8 + types.HashSize + 8 + 8

// Store persists blocks, receipts, nonces and the tip to a storage.DB.
type Store struct {
	db storage.DB
}

// NewStore creates a chain store backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// PutBlock stores a block and indexes it by height.
func (s *Store) PutBlock(blk *Block) error {
	data, err := json.Marshal(blk)
	if err != nil {
		return fmt.Errorf("block marshal: %w", err)
	}
	if err := s.db.Put(hashKey(prefixBlock, blk.Hash), data); err != nil {
		return fmt.Errorf("block put: %w", err)
	}
	if err := s.db.Put(heightKey(blk.Height), blk.Hash[:]); err != nil {
		return fmt.Errorf("height index put: %w", err)
	}
	return nil
}

// GetBlock retrieves a block by its hash.
func (s *Store) GetBlock(hash types.Hash) (*Block, error) {
	data, err := s.db.Get(hashKey(prefixBlock, hash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("block get: %w", err)
	}
	var blk Block
	if err := json.Unmarshal(data, &blk); err != nil {
		return nil, fmt.Errorf("block unmarshal: %w", err)
	}
	return &blk, nil
}

// GetBlockByHeight retrieves a block by its height.
func (s *Store) GetBlockByHeight(height uint64) (*Block, error) {
	hashBytes, err := s.db.Get(heightKey(height))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("height index get: %w", err)
	}
	if len(hashBytes) != types.HashSize {
		return nil, fmt.Errorf("corrupt height index: got %d bytes, want %d", len(hashBytes), types.HashSize)
	}
	var hash types.Hash
	copy(hash[:], hashBytes)
	return s.GetBlock(hash)
}

// PutReceipt stores the outcome of a message.
func (s *Store) PutReceipt(r *Receipt) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("receipt marshal: %w", err)
	}
	return s.db.Put(hashKey(prefixReceipt, r.Hash), data)
}

// GetReceipt returns the receipt for a message hash.
func (s *Store) GetReceipt(hash types.Hash) (*Receipt, error) {
	data, err := s.db.Get(hashKey(prefixReceipt, hash))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("receipt get: %w", err)
	}
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("receipt unmarshal: %w", err)
	}
	return &r, nil
}

// HasReceipt reports whether a message was already executed.
func (s *Store) HasReceipt(hash types.Hash) (bool, error) {
	return s.db.Has(hashKey(prefixReceipt, hash))
}

// Nonce returns the next expected nonce for addr (0 for unseen accounts).
func (s *Store) Nonce(addr types.Address) (uint64, error) {
	data, err := s.db.Get(nonceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("nonce get: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("corrupt nonce: got %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// SetNonce stores the next expected nonce for addr.
func (s *Store) SetNonce(addr types.Address, nonce uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	return s.db.Put(nonceKey(addr), buf[:])
}

// SetTip stores the current chain tip.
func (s *Store) SetTip(st State) error {
	buf := make([]byte, tipSize)
	binary.BigEndian.PutUint64(buf[0:8], st.Height)
	copy(buf[8:8+types.HashSize], st.TipHash[:])
	binary.BigEndian.PutUint64(buf[8+types.HashSize:], st.MessageCount)
	binary.BigEndian.PutUint64(buf[16+types.HashSize:], st.TipTimestamp)
	if err := s.db.Put(keyTip, buf); err != nil {
		return fmt.Errorf("set tip: %w", err)
	}
	return nil
}

// GetTip returns the current chain tip. Returns zero values if no tip is
// set (fresh chain).
func (s *Store) GetTip() (State, error) {
	data, err := s.db.Get(keyTip)
	if errors.Is(err, storage.ErrNotFound) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("get tip: %w", err)
	}
	if len(data) != tipSize {
		return State{}, fmt.Errorf("corrupt tip: got %d bytes, want %d", len(data), tipSize)
	}
	var st State
	st.Height = binary.BigEndian.Uint64(data[0:8])
	copy(st.TipHash[:], data[8:8+types.HashSize])
	st.MessageCount = binary.BigEndian.Uint64(data[8+types.HashSize:])
	st.TipTimestamp = binary.BigEndian.Uint64(data[16+types.HashSize:])
	return st, nil
}

// SetChainID records the chain ID the database was initialized with.
func (s *Store) SetChainID(id string) error {
	return s.db.Put(keyChainID, []byte(id))
}

// ChainID returns the recorded chain ID, or "" on a fresh database.
func (s *Store) ChainID() (string, error) {
	data, err := s.db.Get(keyChainID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func hashKey(prefix []byte, hash types.Hash) []byte {
	key := make([]byte, len(prefix)+types.HashSize)
	copy(key, prefix)
	copy(key[len(prefix):], hash[:])
	return key
}

func heightKey(height uint64) []byte {
	key := make([]byte, len(prefixHeight)+8)
	copy(key, prefixHeight)
	binary.BigEndian.PutUint64(key[len(prefixHeight):], height)
	return key
}

func nonceKey(addr types.Address) []byte {
	key := make([]byte, len(prefixNonce)+types.AddressSize)
	copy(key, prefixNonce)
	copy(key[len(prefixNonce):], addr[:])
	return key
}
