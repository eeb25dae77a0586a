package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// ErrReverted is returned by WaitForReceipt when the mined receipt has status 0.
var ErrReverted = errors.New("transaction reverted")

// EVMClient is a minimal JSON-RPC client for EVM chains.
type EVMClient struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

// RPCError is a JSON-RPC error object returned by the node or wallet.
// Wallet endpoints follow EIP-1193 codes (4001 = user rejected request).
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// CodeUserRejected is the EIP-1193 "user rejected the request" code.
const CodeUserRejected = 4001

// TxRequest is the parameter object of eth_call, eth_estimateGas and
// eth_sendTransaction. Empty fields are omitted.
type TxRequest struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Data  string `json:"data,omitempty"`
	Value string `json:"value,omitempty"`
}

// TxReceipt holds the on-chain receipt of a mined transaction.
type TxReceipt struct {
	Hash        string
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
	GasUsed     uint64
}

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
func NewEVMClient(url string) *EVMClient {
	return &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// URL returns the endpoint this client talks to.
func (c *EVMClient) URL() string { return c.url }

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "eth_chainId")
}

// GasPrice returns the current gas price.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, "eth_gasPrice")
}

// PendingNonce returns the transaction count including queued transactions.
func (c *EVMClient) PendingNonce(ctx context.Context, address string) (uint64, error) {
	n, err := c.callBig(ctx, "eth_getTransactionCount", address, "pending")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// EstimateGas estimates gas for a transaction.
func (c *EVMClient) EstimateGas(ctx context.Context, req TxRequest) (uint64, error) {
	n, err := c.callBig(ctx, "eth_estimateGas", req, "latest")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// CallContract runs eth_call against the latest block and returns the raw
// return data.
func (c *EVMClient) CallContract(ctx context.Context, req TxRequest) ([]byte, error) {
	var out string
	if err := c.Call(ctx, &out, "eth_call", req, "latest"); err != nil {
		return nil, err
	}
	return decodeHex(out)
}

// SendRawTransaction broadcasts a signed raw transaction.
func (c *EVMClient) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	var hash string
	if err := c.Call(ctx, &hash, "eth_sendRawTransaction", "0x"+fmt.Sprintf("%x", raw)); err != nil {
		return "", err
	}
	return hash, nil
}

// SendTransaction asks the endpoint to sign and submit req on behalf of
// req.From. Only wallet endpoints that manage the account support it.
func (c *EVMClient) SendTransaction(ctx context.Context, req TxRequest) (string, error) {
	var hash string
	if err := c.Call(ctx, &hash, "eth_sendTransaction", req); err != nil {
		return "", err
	}
	return hash, nil
}

// RequestAccounts issues eth_requestAccounts. Wallet endpoints may block
// until the user answers the authorization prompt.
func (c *EVMClient) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.Call(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetTransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, hash string) (*TxReceipt, error) {
	var r *struct {
		Status      string `json:"status"`
		BlockNumber string `json:"blockNumber"`
		GasUsed     string `json:"gasUsed"`
	}
	if err := c.Call(ctx, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil // still pending
	}

	receipt := &TxReceipt{Hash: hash}
	if s, ok := parseBigHex(r.Status); ok {
		receipt.Status = s.Uint64()
	}
	if bn, ok := parseBigHex(r.BlockNumber); ok {
		receipt.BlockNumber = bn.Uint64()
	}
	if gu, ok := parseBigHex(r.GasUsed); ok {
		receipt.GasUsed = gu.Uint64()
	}
	return receipt, nil
}

// WaitForReceipt polls every interval until the transaction is mined or ctx
// is done. A mined receipt with status 0 is returned together with
// ErrReverted.
func (c *EVMClient) WaitForReceipt(ctx context.Context, hash string, interval time.Duration) (*TxReceipt, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		receipt, err := c.GetTransactionReceipt(ctx, hash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			if receipt.Status == 0 {
				return receipt, fmt.Errorf("%w (hash: %s)", ErrReverted, hash)
			}
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// --- JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Call performs one JSON-RPC request and decodes the result into out.
// RPC-level failures are returned as *RPCError.
func (c *EVMClient) Call(ctx context.Context, out any, method string, params ...any) error {
	if params == nil {
		params = []any{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("parsing result: %w", err)
	}
	return nil
}

func (c *EVMClient) callBig(ctx context.Context, method string, params ...any) (*big.Int, error) {
	var hexStr string
	if err := c.Call(ctx, &hexStr, method, params...); err != nil {
		return nil, err
	}
	n, ok := parseBigHex(hexStr)
	if !ok {
		return nil, fmt.Errorf("could not parse %s result: %q", method, hexStr)
	}
	return n, nil
}

// EncodeHex renders b as a 0x-prefixed hex string.
func EncodeHex(b []byte) string {
	return fmt.Sprintf("0x%x", b)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		var b byte
		if _, err := fmt.Sscanf(s[2*i:2*i+2], "%02x", &b); err != nil {
			return nil, fmt.Errorf("decoding hex: %w", err)
		}
		out[i] = b
	}
	return out, nil
}

func parseBigHex(s string) (*big.Int, bool) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, false
	}
	return new(big.Int).SetString(s, 16)
}
