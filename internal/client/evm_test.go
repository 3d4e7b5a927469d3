package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"ewt/internal/chain"

	"github.com/stretchr/testify/require"
)

func chainCallMsg() chain.CallMsg {
	return chain.CallMsg{
		From:  "0xab5801a7d398351b8be11c439e05c5b3259aec9b",
		To:    "0x52908400098527886E0F7030069857D2E4169EE7",
		Value: big.NewInt(1),
	}
}

// rpcServer answers JSON-RPC calls from a method->result script and records
// the requests it saw.
type rpcServer struct {
	t       *testing.T
	results map[string]string // method -> raw JSON result
	calls   []string
}

func newRPCServer(t *testing.T, results map[string]string) (*rpcServer, *httptest.Server) {
	s := &rpcServer{t: t, results: results}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *rpcServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int               `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	require.NoError(s.t, json.NewDecoder(r.Body).Decode(&req))
	s.calls = append(s.calls, req.Method)

	result, ok := s.results[req.Method]
	if !ok {
		fmt.Fprintf(w, `{"id":%d,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
		return
	}
	fmt.Fprintf(w, `{"id":%d,"result":%s}`, req.ID, result)
}

func newTestClient(t *testing.T, results map[string]string) (*rpcServer, *EVMClient) {
	s, srv := newRPCServer(t, results)
	c, err := NewEVMClient(srv.URL, 1)
	require.NoError(t, err)
	return s, c.(*EVMClient)
}

func TestNewEVMClientRejectsBadURL(t *testing.T) {
	_, err := NewEVMClient("ftp://example.com", 1)
	require.Error(t, err)
	_, err = NewEVMClient("", 1)
	require.Error(t, err)
}

func TestGetChainInfo(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_chainId":     `"0x1"`,
		"eth_blockNumber": `"0x112a880"`,
		"eth_syncing":     `false`,
	})

	info, err := c.GetChainInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(1), info.ChainID)
	require.Equal(t, uint64(18000000), info.BlockHeight)
	require.False(t, info.Syncing)
}

func TestGetChainInfoSyncing(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_chainId":     `"0x1"`,
		"eth_blockNumber": `"0x10"`,
		"eth_syncing":     `{"startingBlock":"0x0","currentBlock":"0x10"}`,
	})

	info, err := c.GetChainInfo(context.Background())
	require.NoError(t, err)
	require.True(t, info.Syncing)
}

func TestGetBlock(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_getBlockByNumber": `{"number":"0x64","timestamp":"0x65f1a2c0","baseFeePerGas":"0x3b9aca00"}`,
	})

	blk, err := c.GetBlock(context.Background(), "latest")
	require.NoError(t, err)
	require.Equal(t, uint64(100), blk.Number)
	require.Equal(t, big.NewInt(1_000_000_000), blk.BaseFee)
	require.False(t, blk.Time.IsZero())
}

func TestGetBlockNoBaseFee(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_getBlockByNumber": `{"number":"0x64","timestamp":"0x65f1a2c0"}`,
	})

	blk, err := c.GetBlock(context.Background(), "latest")
	require.NoError(t, err)
	require.Nil(t, blk.BaseFee)
}

func TestGetFeeLevels(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_gasPrice":             `"0x77359400"`, // 2 gwei
		"eth_maxPriorityFeePerGas": `"0x3b9aca00"`, // 1 gwei
		"eth_getBlockByNumber":     `{"number":"0x64","timestamp":"0x65f1a2c0","baseFeePerGas":"0x3b9aca00"}`,
	})

	fees, err := c.GetFeeLevels(context.Background())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(2_000_000_000), fees.GasPrice)
	require.Equal(t, big.NewInt(1_000_000_000), fees.MaxPriorityFeePerGas)
	require.Equal(t, big.NewInt(1_000_000_000), fees.BaseFee)
	// maxFee = 2*baseFee + tip
	require.Equal(t, big.NewInt(3_000_000_000), fees.MaxFeePerGas)
}

func TestGetFeeLevelsTipFallback(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_gasPrice":         `"0x77359400"`,
		"eth_getBlockByNumber": `{"number":"0x64","timestamp":"0x65f1a2c0"}`,
		// no eth_maxPriorityFeePerGas: endpoint answers method-not-found
	})

	fees, err := c.GetFeeLevels(context.Background())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_500_000_000), fees.MaxPriorityFeePerGas)
	// No base fee either: maxFee = gasPrice + tip.
	require.Equal(t, big.NewInt(3_500_000_000), fees.MaxFeePerGas)
}

func TestEstimateGas(t *testing.T) {
	s, c := newTestClient(t, map[string]string{
		"eth_estimateGas": `"0x5208"`,
	})

	gas, err := c.EstimateGas(context.Background(), chainCallMsg())
	require.NoError(t, err)
	require.Equal(t, uint64(21000), gas)
	require.Equal(t, []string{"eth_estimateGas"}, s.calls)
}

func TestSendRawTransaction(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_sendRawTransaction": `"0xabc123"`,
	})

	hash, err := c.SendRawTransaction(context.Background(), []byte("signed"))
	require.NoError(t, err)
	require.Equal(t, "0xabc123", hash)
}

func TestGetTransactionReceiptPending(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_getTransactionReceipt": `null`,
	})

	rec, err := c.GetTransactionReceipt(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestGetTransactionReceipt(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_getTransactionReceipt": `{"transactionHash":"0xabc","status":"0x1","blockNumber":"0x65"}`,
	})

	rec, err := c.GetTransactionReceipt(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Equal(t, uint64(1), rec.Status)
	require.Equal(t, uint64(101), rec.BlockNumber)
}

func TestGetTransaction(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_getTransactionByHash": `{"hash":"0xabc","from":"0xf1","to":"0xf2","value":"0x0","nonce":"0x5","blockNumber":null}`,
	})

	tx, err := c.GetTransaction(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Equal(t, uint64(5), tx.Nonce)
	require.Nil(t, tx.BlockNumber)
}

func TestGetBalance(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_getBalance": `"0xde0b6b3a7640000"`, // 1 ether
	})

	balance, err := c.GetBalance(context.Background(), "0xab5801a7d398351b8be11c439e05c5b3259aec9b")
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", balance.String())
}

func TestPendingNonce(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_getTransactionCount": `"0x2a"`,
	})

	nonce, err := c.PendingNonce(context.Background(), "0xab5801a7d398351b8be11c439e05c5b3259aec9b")
	require.NoError(t, err)
	require.Equal(t, uint64(42), nonce)
}

func TestGetTokenBalance(t *testing.T) {
	_, c := newTestClient(t, map[string]string{
		"eth_call": `"0x64"`,
	})

	balance, err := c.GetTokenBalance(context.Background(),
		"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"0xab5801a7d398351b8be11c439e05c5b3259aec9b")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), balance)

	_, err = c.GetTokenBalance(context.Background(), "0xtoken", "short")
	require.Error(t, err)
}

func TestRPCErrorSurfaces(t *testing.T) {
	_, c := newTestClient(t, map[string]string{})

	_, err := c.GetBalance(context.Background(), "0xab5801a7d398351b8be11c439e05c5b3259aec9b")
	require.ErrorContains(t, err, "method not found")
}

func TestParseHexQuantities(t *testing.T) {
	v, err := parseHexUint("0x2a")
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)

	_, err = parseHexUint("0xzz")
	require.Error(t, err)

	b, err := parseHexBig("0x")
	require.NoError(t, err)
	require.Zero(t, b.Sign())
}

func TestConcurrentCallsUseUniqueIDs(t *testing.T) {
	var mu sync.Mutex
	seen := map[int64]int{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		seen[req.ID]++
		mu.Unlock()
		fmt.Fprintf(w, `{"id":%d,"result":"0x1"}`, req.ID)
	}))
	t.Cleanup(srv.Close)

	c, err := NewEVMClient(srv.URL, 1)
	require.NoError(t, err)

	const workers = 8
	const perWorker = 25

	errs := make(chan error, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := c.PendingNonce(context.Background(), "0xab5801a7d398351b8be11c439e05c5b3259aec9b")
				if err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Len(t, seen, workers*perWorker)
	for id, n := range seen {
		require.Equal(t, 1, n, "request id %d reused", id)
	}
}
