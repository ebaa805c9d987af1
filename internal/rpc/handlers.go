package rpc

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/internal/chain"
	"github.com/Klingon-tech/klingnet-staking/internal/ledger"
	"github.com/Klingon-tech/klingnet-staking/internal/mempool"
	"github.com/Klingon-tech/klingnet-staking/internal/staking"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// ── Helpers ─────────────────────────────────────────────────────────────

func parseAddress(field, s string) (types.Address, *Error) {
	if s == "" {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: field + " is required"}
	}
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid %s: %v", field, err)}
	}
	return addr, nil
}

func parseHash(s string) (types.Hash, *Error) {
	if s == "" {
		return types.Hash{}, &Error{Code: CodeInvalidParams, Message: "hash is required"}
	}
	h, err := types.HexToHash(s)
	if err != nil {
		return types.Hash{}, &Error{Code: CodeInvalidParams, Message: "invalid hash: must be 32-byte hex"}
	}
	return h, nil
}

// stateError converts a chain, ledger or staking error into an RPC error
// carrying its kind.
func stateError(err error) *Error {
	code := CodeInternalError
	switch {
	case errors.Is(err, chain.ErrReceiptNotFound), errors.Is(err, chain.ErrBlockNotFound),
		errors.Is(err, ledger.ErrNoTokenInfo), errors.Is(err, staking.ErrUninitialized):
		code = CodeNotFound
	}
	return &Error{Code: code, Message: err.Error(), Data: &ErrorData{Kind: chain.Kind(err)}}
}

// submitKind classifies a mempool rejection.
func submitKind(err error) string {
	switch {
	case errors.Is(err, mempool.ErrStaleNonce), errors.Is(err, mempool.ErrNonceTooHigh),
		errors.Is(err, mempool.ErrConflict):
		return "BadNonce"
	case errors.Is(err, mempool.ErrWrongChain):
		return "WrongChain"
	case errors.Is(err, mempool.ErrAlreadyExists):
		return "Duplicate"
	case errors.Is(err, mempool.ErrPoolFull):
		return "PoolFull"
	}
	if k := chain.Kind(err); k != "Internal" {
		return k
	}
	return "InvalidMessage"
}

// ── Chain endpoints ─────────────────────────────────────────────────────

func (s *Server) handleChainGetInfo(_ *Request) (interface{}, *Error) {
	st := s.chain.State()
	res := &ChainInfoResult{
		ChainID:      s.chain.ChainID(),
		Height:       st.Height,
		TipHash:      st.TipHash.String(),
		TipTimestamp: st.TipTimestamp,
		MessageCount: st.MessageCount,
	}
	if s.genesis != nil {
		res.ChainName = s.genesis.ChainName
	}
	if info, err := s.chain.TokenInfo(); err == nil {
		res.Symbol = info.Symbol
	}
	return res, nil
}

func (s *Server) handleChainGetBlockByHash(req *Request) (interface{}, *Error) {
	var params HashParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	hash, rpcErr := parseHash(params.Hash)
	if rpcErr != nil {
		return nil, rpcErr
	}
	blk, err := s.chain.GetBlock(hash)
	if err != nil {
		return nil, stateError(err)
	}
	return blk, nil
}

func (s *Server) handleChainGetBlockByHeight(req *Request) (interface{}, *Error) {
	var params HeightParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	blk, err := s.chain.GetBlockByHeight(params.Height)
	if err != nil {
		return nil, stateError(err)
	}
	return blk, nil
}

// ── Tx endpoints ────────────────────────────────────────────────────────

func (s *Server) handleTxSubmit(req *Request) (interface{}, *Error) {
	var params TxSubmitParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Message == nil {
		return nil, &Error{Code: CodeInvalidParams, Message: "message is required"}
	}

	hash, err := s.pool.Add(params.Message)
	if err != nil {
		return nil, &Error{
			Code:    CodeRejected,
			Message: fmt.Sprintf("rejected: %v", err),
			Data:    &ErrorData{Kind: submitKind(err)},
		}
	}

	s.logger.Debug().
		Str("hash", hash.String()).
		Str("type", string(params.Message.Type)).
		Uint64("nonce", params.Message.Nonce).
		Msg("Message added to mempool")

	return &TxSubmitResult{Hash: hash.String()}, nil
}

func (s *Server) handleTxGetReceipt(req *Request) (interface{}, *Error) {
	var params HashParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	hash, rpcErr := parseHash(params.Hash)
	if rpcErr != nil {
		return nil, rpcErr
	}
	r, err := s.chain.Receipt(hash)
	if err != nil {
		if errors.Is(err, chain.ErrReceiptNotFound) && s.pool.Has(hash) {
			return nil, &Error{Code: CodeNotFound, Message: "message pending in mempool", Data: &ErrorData{Kind: "Pending"}}
		}
		return nil, stateError(err)
	}
	return r, nil
}

// ── Mempool endpoints ───────────────────────────────────────────────────

func (s *Server) handleMempoolGetInfo(_ *Request) (interface{}, *Error) {
	return &MempoolInfoResult{Count: s.pool.Count()}, nil
}

func (s *Server) handleMempoolGetContent(_ *Request) (interface{}, *Error) {
	hashes := s.pool.Hashes()
	hexHashes := make([]string, len(hashes))
	for i, h := range hashes {
		hexHashes[i] = h.String()
	}
	return &MempoolContentResult{Hashes: hexHashes}, nil
}

// ── Account endpoints ───────────────────────────────────────────────────

func (s *Server) handleAccountGetNonce(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	nonce, err := s.chain.Nonce(addr)
	if err != nil {
		return nil, stateError(err)
	}
	pending, err := s.pool.PendingNonce(addr)
	if err != nil {
		return nil, stateError(err)
	}
	return &NonceResult{Address: addr.String(), Nonce: nonce, Pending: pending}, nil
}
