package rpc

import (
	"github.com/Klingon-tech/klingnet-staking/internal/ledger"
	"github.com/Klingon-tech/klingnet-staking/internal/staking"
	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeRejected       = -32001
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorData is attached to errors raised by the state machine.
type ErrorData struct {
	Kind string `json:"kind"`
}

// ── Param types ─────────────────────────────────────────────────────────

// HashParam is used by endpoints that take a single hash.
type HashParam struct {
	Hash string `json:"hash"`
}

// HeightParam is used by chain_getBlockByHeight.
type HeightParam struct {
	Height uint64 `json:"height"`
}

// AddressParam is used by per-account queries.
type AddressParam struct {
	Address string `json:"address"`
}

// AllowanceParam is used by token_getAllowance.
type AllowanceParam struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

// PageParam is used by the paginated listings. Owner is only read by
// token_getAllAllowances.
type PageParam struct {
	Owner      string `json:"owner,omitempty"`
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// TxSubmitParam is used by tx_submit.
type TxSubmitParam struct {
	Message *msg.Message `json:"message"`
}

// ── Result types ────────────────────────────────────────────────────────

// ChainInfoResult is returned by chain_getInfo.
type ChainInfoResult struct {
	ChainID      string `json:"chain_id"`
	ChainName    string `json:"chain_name,omitempty"`
	Symbol       string `json:"symbol,omitempty"`
	Height       uint64 `json:"height"`
	TipHash      string `json:"tip_hash"`
	TipTimestamp uint64 `json:"tip_timestamp"`
	MessageCount uint64 `json:"message_count"`
}

// TxSubmitResult is returned by tx_submit.
type TxSubmitResult struct {
	Hash string `json:"hash"`
}

// MempoolInfoResult is returned by mempool_getInfo.
type MempoolInfoResult struct {
	Count int `json:"count"`
}

// MempoolContentResult is returned by mempool_getContent.
type MempoolContentResult struct {
	Hashes []string `json:"hashes"`
}

// NonceResult is returned by account_getNonce. Pending counts messages
// already waiting in the mempool.
type NonceResult struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
	Pending uint64 `json:"pending"`
}

// BalanceResult is returned by token_getBalance.
type BalanceResult struct {
	Address   string       `json:"address"`
	Balance   types.Amount `json:"balance"`
	Staked    types.Amount `json:"staked"`
	Locked    types.Amount `json:"locked"`
	Available types.Amount `json:"available"`
}

// AllowanceResult is returned by token_getAllowance.
type AllowanceResult struct {
	Owner     string       `json:"owner"`
	Spender   string       `json:"spender"`
	Allowance types.Amount `json:"allowance"`
	Expires   uint64       `json:"expires"`
	Expired   bool         `json:"expired"`
}

// AllowancesResult is returned by token_getAllAllowances.
type AllowancesResult struct {
	Owner      string                    `json:"owner"`
	Allowances []ledger.SpenderAllowance `json:"allowances"`
}

// AccountsResult is returned by token_getAllAccounts.
type AccountsResult struct {
	Accounts []ledger.AccountBalance `json:"accounts"`
}

// AccumulatorResult is returned by staking_getAccumulator. RewardPerUnit
// is the raw scaled accumulator in decimal.
type AccumulatorResult struct {
	RewardPerUnit    string       `json:"reward_per_unit"`
	RewardScale      string       `json:"reward_scale"`
	Remainder        string       `json:"remainder"`
	LastUpdateHeight uint64       `json:"last_update_height"`
	TotalStaked      types.Amount `json:"total_staked"`
}

// AmountResult is returned by the single-amount staking queries.
type AmountResult struct {
	Address string       `json:"address"`
	Amount  types.Amount `json:"amount"`
}

// LockedResult is returned by staking_getLocked.
type LockedResult struct {
	Address  string              `json:"address"`
	Entries  []staking.LockEntry `json:"entries"`
	Total    types.Amount        `json:"total"`
	Unlocked types.Amount        `json:"unlocked"` // Matured at the current height.
}
