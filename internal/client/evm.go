package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"ewt/internal/chain"
	"ewt/internal/common"
)

const (
	requestTimeout = 15 * time.Second

	// balanceOfSelector is the 4-byte selector of balanceOf(address).
	balanceOfSelector = "0x70a08231"
)

// EVMClient is a JSON-RPC client for an EVM-compatible endpoint. It
// implements chain.Client. Safe for concurrent use.
type EVMClient struct {
	endpointURL string
	chainID     uint64
	httpClient  *http.Client
	nextID      atomic.Int64
}

// NewEVMClient creates a client for the given endpoint.
func NewEVMClient(endpointURL string, chainID uint64) (chain.Client, error) {
	if !strings.HasPrefix(endpointURL, "http://") && !strings.HasPrefix(endpointURL, "https://") {
		return nil, fmt.Errorf("invalid endpoint URL %q", endpointURL)
	}
	return &EVMClient{
		endpointURL: endpointURL,
		chainID:     chainID,
		httpClient:  &http.Client{Timeout: requestTimeout},
	}, nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC request and unmarshals the result into out.
func (c *EVMClient) call(ctx context.Context, method string, out interface{}, params ...interface{}) error {
	id := c.nextID.Add(1)
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc endpoint returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return nil
}

// GetChainInfo returns chain id, head height and sync flag in one probe.
func (c *EVMClient) GetChainInfo(ctx context.Context) (*chain.ChainInfo, error) {
	var chainIDHex string
	if err := c.call(ctx, "eth_chainId", &chainIDHex); err != nil {
		return nil, err
	}
	chainID, err := parseHexUint(chainIDHex)
	if err != nil {
		return nil, fmt.Errorf("bad chain id: %w", err)
	}

	var heightHex string
	if err := c.call(ctx, "eth_blockNumber", &heightHex); err != nil {
		return nil, err
	}
	height, err := parseHexUint(heightHex)
	if err != nil {
		return nil, fmt.Errorf("bad block number: %w", err)
	}

	// eth_syncing returns false when synced, an object otherwise
	var syncing json.RawMessage
	if err := c.call(ctx, "eth_syncing", &syncing); err != nil {
		return nil, err
	}
	isSyncing := !bytes.Equal(bytes.TrimSpace(syncing), []byte("false"))

	return &chain.ChainInfo{ChainID: chainID, BlockHeight: height, Syncing: isSyncing}, nil
}

type rpcBlock struct {
	Number        string `json:"number"`
	Timestamp     string `json:"timestamp"`
	BaseFeePerGas string `json:"baseFeePerGas"`
}

// GetBlock fetches a block header by tag ("latest", "pending" or 0x-hex number).
func (c *EVMClient) GetBlock(ctx context.Context, tag string) (*chain.Block, error) {
	var blk *rpcBlock
	if err := c.call(ctx, "eth_getBlockByNumber", &blk, tag, false); err != nil {
		return nil, err
	}
	if blk == nil {
		return nil, fmt.Errorf("block %q not found", tag)
	}

	number, err := parseHexUint(blk.Number)
	if err != nil {
		return nil, fmt.Errorf("bad block number: %w", err)
	}
	ts, err := parseHexUint(blk.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("bad block timestamp: %w", err)
	}

	out := &chain.Block{Number: number, Time: time.Unix(int64(ts), 0).UTC()}
	if blk.BaseFeePerGas != "" {
		baseFee, err := parseHexBig(blk.BaseFeePerGas)
		if err != nil {
			return nil, fmt.Errorf("bad base fee: %w", err)
		}
		out.BaseFee = baseFee
	}
	return out, nil
}

// EstimateGas asks the endpoint for a gas estimate of the call.
func (c *EVMClient) EstimateGas(ctx context.Context, call chain.CallMsg) (uint64, error) {
	msg := map[string]string{"from": call.From}
	if call.To != "" {
		msg["to"] = call.To
	}
	if call.Value != nil && call.Value.Sign() > 0 {
		msg["value"] = encodeBig(call.Value)
	}
	if len(call.Data) > 0 {
		msg["data"] = common.BytesToHex(call.Data)
	}

	var gasHex string
	if err := c.call(ctx, "eth_estimateGas", &gasHex, msg); err != nil {
		return 0, err
	}
	return parseHexUint(gasHex)
}

// GetFeeLevels probes current fee levels for both pricing models. The
// priority tip falls back to a flat 1.5 gwei when the endpoint does not
// support eth_maxPriorityFeePerGas.
func (c *EVMClient) GetFeeLevels(ctx context.Context) (*chain.FeeSuggestion, error) {
	var gasPriceHex string
	if err := c.call(ctx, "eth_gasPrice", &gasPriceHex); err != nil {
		return nil, err
	}
	gasPrice, err := parseHexBig(gasPriceHex)
	if err != nil {
		return nil, fmt.Errorf("bad gas price: %w", err)
	}

	out := &chain.FeeSuggestion{GasPrice: gasPrice}

	var tipHex string
	if err := c.call(ctx, "eth_maxPriorityFeePerGas", &tipHex); err == nil {
		if tip, err := parseHexBig(tipHex); err == nil {
			out.MaxPriorityFeePerGas = tip
		}
	}
	if out.MaxPriorityFeePerGas == nil {
		out.MaxPriorityFeePerGas = big.NewInt(1_500_000_000) // 1.5 gwei
	}

	if blk, err := c.GetBlock(ctx, "latest"); err == nil && blk.BaseFee != nil {
		out.BaseFee = blk.BaseFee
		// maxFee = 2*baseFee + tip, the usual headroom for base-fee growth
		maxFee := new(big.Int).Mul(blk.BaseFee, big.NewInt(2))
		out.MaxFeePerGas = maxFee.Add(maxFee, out.MaxPriorityFeePerGas)
	} else {
		out.MaxFeePerGas = new(big.Int).Add(gasPrice, out.MaxPriorityFeePerGas)
	}

	return out, nil
}

// SendRawTransaction submits a signed transaction and returns its hash.
func (c *EVMClient) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	var hash string
	if err := c.call(ctx, "eth_sendRawTransaction", &hash, common.BytesToHex(raw)); err != nil {
		return "", err
	}
	return hash, nil
}

type rpcReceipt struct {
	TransactionHash string `json:"transactionHash"`
	Status          string `json:"status"`
	BlockNumber     string `json:"blockNumber"`
}

// GetTransactionReceipt returns the receipt, or (nil, nil) while the
// transaction is still pending.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, hash string) (*chain.Receipt, error) {
	var rec *rpcReceipt
	if err := c.call(ctx, "eth_getTransactionReceipt", &rec, hash); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	status, err := parseHexUint(rec.Status)
	if err != nil {
		return nil, fmt.Errorf("bad receipt status: %w", err)
	}
	blockNumber, err := parseHexUint(rec.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("bad receipt block number: %w", err)
	}

	return &chain.Receipt{TxHash: rec.TransactionHash, Status: status, BlockNumber: blockNumber}, nil
}

type rpcTransaction struct {
	Hash        string  `json:"hash"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Value       string  `json:"value"`
	Nonce       string  `json:"nonce"`
	BlockNumber *string `json:"blockNumber"`
}

// GetTransaction looks up a transaction by hash, pending or mined.
func (c *EVMClient) GetTransaction(ctx context.Context, hash string) (*chain.TxInfo, error) {
	var tx *rpcTransaction
	if err := c.call(ctx, "eth_getTransactionByHash", &tx, hash); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction %s not found", hash)
	}

	value, err := parseHexBig(tx.Value)
	if err != nil {
		return nil, fmt.Errorf("bad value: %w", err)
	}
	nonce, err := parseHexUint(tx.Nonce)
	if err != nil {
		return nil, fmt.Errorf("bad nonce: %w", err)
	}

	out := &chain.TxInfo{Hash: tx.Hash, From: tx.From, To: tx.To, Value: value, Nonce: nonce}
	if tx.BlockNumber != nil && *tx.BlockNumber != "" {
		n, err := parseHexUint(*tx.BlockNumber)
		if err != nil {
			return nil, fmt.Errorf("bad block number: %w", err)
		}
		out.BlockNumber = &n
	}
	return out, nil
}

// GetTokenBalance reads balanceOf(owner) on a fungible-token contract.
func (c *EVMClient) GetTokenBalance(ctx context.Context, token, owner string) (*big.Int, error) {
	ownerBytes, err := common.HexToBytes(owner)
	if err != nil || len(ownerBytes) != 20 {
		return nil, fmt.Errorf("invalid owner address %q", owner)
	}

	data := balanceOfSelector + fmt.Sprintf("%064x", ownerBytes)
	msg := map[string]string{"to": token, "data": data}

	var resultHex string
	if err := c.call(ctx, "eth_call", &resultHex, msg, "latest"); err != nil {
		return nil, err
	}
	return parseHexBig(resultHex)
}

// GetBalance reads the native balance of an address.
func (c *EVMClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	var balanceHex string
	if err := c.call(ctx, "eth_getBalance", &balanceHex, address, "latest"); err != nil {
		return nil, err
	}
	return parseHexBig(balanceHex)
}

// PendingNonce returns the next available nonce for an address, including
// mempool transactions.
func (c *EVMClient) PendingNonce(ctx context.Context, address string) (uint64, error) {
	var nonceHex string
	if err := c.call(ctx, "eth_getTransactionCount", &nonceHex, address, "pending"); err != nil {
		return 0, err
	}
	return parseHexUint(nonceHex)
}

// Close releases the underlying HTTP connections.
func (c *EVMClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// parseHexUint parses a 0x-prefixed quantity into a uint64.
func parseHexUint(s string) (uint64, error) {
	b, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
	if !ok {
		return 0, fmt.Errorf("invalid hex quantity %q", s)
	}
	if !b.IsUint64() {
		return 0, fmt.Errorf("hex quantity %q overflows uint64", s)
	}
	return b.Uint64(), nil
}

// parseHexBig parses a 0x-prefixed quantity into a big.Int.
func parseHexBig(s string) (*big.Int, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return new(big.Int), nil
	}
	b, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity %q", s)
	}
	return b, nil
}

// encodeBig encodes a big.Int as a 0x-prefixed quantity.
func encodeBig(v *big.Int) string {
	return "0x" + v.Text(16)
}
