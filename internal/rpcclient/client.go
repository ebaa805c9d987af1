// Package rpcclient provides a JSON-RPC 2.0 client for klingstake nodes.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Klingon-tech/klingnet-staking/internal/chain"
	"github.com/Klingon-tech/klingnet-staking/internal/rpc"
	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Client is a JSON-RPC 2.0 HTTP client.
type Client struct {
	endpoint string
	http     *http.Client
	nextID   atomic.Int64
}

// New creates a new RPC client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, 10*time.Second)
}

// NewWithTimeout creates a new RPC client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int64       `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    *rpc.ErrorData `json:"data,omitempty"`
}

// RPCError is returned when the server responds with an error. Kind is the
// error kind reported by the node, if any.
type RPCError struct {
	Code    int
	Message string
	Kind    string
}

func (e *RPCError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("rpc error %d (%s): %s", e.Code, e.Kind, e.Message)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded.
func (c *Client) Call(method string, params, result interface{}) error {
	return c.CallContext(context.Background(), method, params, result)
}

// CallContext is Call with cancellation.
func (c *Client) CallContext(ctx context.Context, method string, params, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return &RPCError{Code: resp.StatusCode, Message: "forbidden by node allow-list"}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		e := &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
		if rpcResp.Error.Data != nil {
			e.Kind = rpcResp.Error.Data.Kind
		}
		return e
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}

	return nil
}

// ChainInfo calls chain_getInfo.
func (c *Client) ChainInfo() (*rpc.ChainInfoResult, error) {
	var res rpc.ChainInfoResult
	if err := c.Call("chain_getInfo", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PendingNonce returns the nonce the next message from addr should carry.
func (c *Client) PendingNonce(addr types.Address) (uint64, error) {
	var res rpc.NonceResult
	if err := c.Call("account_getNonce", rpc.AddressParam{Address: addr.String()}, &res); err != nil {
		return 0, err
	}
	return res.Pending, nil
}

// Submit sends a signed message to the node's mempool and returns its hash.
func (c *Client) Submit(m *msg.Message) (string, error) {
	var res rpc.TxSubmitResult
	if err := c.Call("tx_submit", rpc.TxSubmitParam{Message: m}, &res); err != nil {
		return "", err
	}
	return res.Hash, nil
}

// WaitForReceipt polls tx_getReceipt until the message is executed, the
// context ends, or the node reports an error other than pending.
func (c *Client) WaitForReceipt(ctx context.Context, hash string, poll time.Duration) (*chain.Receipt, error) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		var r chain.Receipt
		err := c.CallContext(ctx, "tx_getReceipt", rpc.HashParam{Hash: hash}, &r)
		if err == nil {
			return &r, nil
		}
		if re, ok := err.(*RPCError); !ok || re.Kind != "Pending" {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
