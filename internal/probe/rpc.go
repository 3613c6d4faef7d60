package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// RPCClient is a Solana JSON-RPC client bound to a single endpoint.
type RPCClient struct {
	endpoint string
	http     *http.Client
}

// NewRPCClient creates a client for one RPC endpoint.
func NewRPCClient(endpoint string) *RPCClient {
	return &RPCClient{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
	}
}

// Endpoint returns the endpoint URL this client is bound to.
func (c *RPCClient) Endpoint() string {
	return c.endpoint
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call executes one JSON-RPC request and decodes result into out.
// All failures come back as *Error with a Kind.
func (c *RPCClient) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return &Error{Kind: KindFatal, Endpoint: c.endpoint, Err: fmt.Errorf("marshal %s: %w", method, err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindFatal, Endpoint: c.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(c.endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Endpoint: c.endpoint,
			Err: fmt.Errorf("%s: HTTP 429", method)}
	case resp.StatusCode >= 500:
		return &Error{Kind: KindTransient, Endpoint: c.endpoint,
			Err: fmt.Errorf("%s: HTTP %d", method, resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return &Error{Kind: KindFatal, Endpoint: c.endpoint,
			Err: fmt.Errorf("%s: HTTP %d", method, resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(c.endpoint, err)
	}

	var rr rpcResponse
	if err := json.Unmarshal(data, &rr); err != nil {
		return &Error{Kind: KindTransient, Endpoint: c.endpoint,
			Err: fmt.Errorf("%s: decode response: %w", method, err)}
	}
	if rr.Error != nil {
		// The node understood us and said no. Given a well-formed
		// address this indicates a request bug, not backend weather.
		return &Error{Kind: KindFatal, Endpoint: c.endpoint,
			Err: fmt.Errorf("%s: rpc error %d: %s", method, rr.Error.Code, rr.Error.Message)}
	}

	if out != nil {
		if err := json.Unmarshal(rr.Result, out); err != nil {
			return &Error{Kind: KindTransient, Endpoint: c.endpoint,
				Err: fmt.Errorf("%s: decode result: %w", method, err)}
		}
	}
	return nil
}

// Balance returns the lamport balance of an address via getBalance.
func (c *RPCClient) Balance(ctx context.Context, address string) (uint64, error) {
	var result struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []any{address}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// Ping checks endpoint reachability via getVersion.
func (c *RPCClient) Ping(ctx context.Context) error {
	var result struct {
		SolanaCore string `json:"solana-core"`
	}
	return c.call(ctx, "getVersion", nil, &result)
}
