package walletrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	constant "github.com/xmrshop/wallet-scheduler/pkg/const"
)

// Client speaks JSON-RPC 2.0 to the local wallet server. All calls go through
// one mutex: the server is a single local instance and interleaved requests
// can corrupt its in-memory wallet state.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	mu         sync.Mutex
	nextID     int64
}

func NewClient(port int, options ...func(*Client)) *Client {
	c := &Client{
		endpoint: fmt.Sprintf("http://127.0.0.1:%v/json_rpc", port),
		timeout:  constant.RPCTimeout,
	}
	for _, opt := range options {
		opt(c)
	}
	c.httpClient = &http.Client{
		Timeout: c.timeout,
	}
	return c
}

func WithTimeout(timeout time.Duration) func(*Client) {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithEndpoint overrides the default loopback endpoint. Tests point this at
// an httptest server.
func WithEndpoint(endpoint string) func(*Client) {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int64       `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	body, err := json.Marshal(&rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wallet rpc status %v", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	rpcResp := &rpcResponse{}
	// The wallet server emits some numeric fields inconsistently across
	// versions; jsoniter is forgiving where encoding/json is not.
	if err := jsoniter.Unmarshal(payload, rpcResp); err != nil {
		return fmt.Errorf("decode %v response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result == nil {
		return nil
	}
	return jsoniter.Unmarshal(rpcResp.Result, result)
}

func (c *Client) GetBalance(ctx context.Context, accountIndex uint32) (*Balance, error) {
	result := &Balance{}
	err := c.call(ctx, "get_balance", map[string]interface{}{
		"account_index": accountIndex,
	}, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAddress(ctx context.Context) (string, error) {
	result := struct {
		Address string `json:"address"`
	}{}
	err := c.call(ctx, "get_address", map[string]interface{}{
		"account_index": 0,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Address, nil
}

func (c *Client) CreateAddress(ctx context.Context, label string) (*Subaddress, error) {
	result := &Subaddress{}
	err := c.call(ctx, "create_address", map[string]interface{}{
		"account_index": 0,
		"label":         label,
	}, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IncomingTransfers lists confirmed and mempool transfers received on the
// given subaddress index.
func (c *Client) IncomingTransfers(ctx context.Context, subaddrIndex uint32) ([]*Transfer, error) {
	result := struct {
		In   []*Transfer `json:"in"`
		Pool []*Transfer `json:"pool"`
	}{}
	err := c.call(ctx, "get_transfers", map[string]interface{}{
		"in":              true,
		"pool":            true,
		"account_index":   0,
		"subaddr_indices": []uint32{subaddrIndex},
	}, &result)
	if err != nil {
		return nil, err
	}
	transfers := result.In
	transfers = append(transfers, result.Pool...)
	return transfers, nil
}

func (c *Client) Transfer(ctx context.Context, address string, amount uint64) (*TransferResult, error) {
	result := &TransferResult{}
	err := c.call(ctx, "transfer", map[string]interface{}{
		"destinations": []map[string]interface{}{
			{"amount": amount, "address": address},
		},
		"account_index": 0,
		"get_tx_key":    true,
	}, result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QueryKey exports key material; keyType is one of "mnemonic", "view_key",
// "spend_key".
func (c *Client) QueryKey(ctx context.Context, keyType string) (string, error) {
	result := struct {
		Key string `json:"key"`
	}{}
	err := c.call(ctx, "query_key", map[string]interface{}{
		"key_type": keyType,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.Key, nil
}

func (c *Client) RescanBlockchain(ctx context.Context) error {
	return c.call(ctx, "rescan_blockchain", nil, nil)
}
