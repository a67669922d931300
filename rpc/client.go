package rpc

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/vm"
)

// Client calls a Server over HTTP.
type Client struct {
	url       string
	authToken string
	http      *http.Client
	nextID    atomic.Int64
}

// NewClient returns a Client for the server at url.
func NewClient(url, authToken string) *Client {
	return &Client{url: url, authToken: authToken, http: &http.Client{Timeout: 30 * time.Second}}
}

// UseTLS makes the client verify the server, and present a client
// certificate if cfg carries one. Use an https:// url with it.
func (c *Client) UseTLS(cfg *tls.Config) {
	c.http.Transport = &http.Transport{TLSClientConfig: cfg}
}

// Call invokes method with params and decodes the result into out. A
// JSON-RPC error is returned as *Error.
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	body, err := json.Marshal(Request{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: raw})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *Error          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}

// SendTx submits a signed transaction and returns its receipt.
func (c *Client) SendTx(ctx context.Context, tx *core.Transaction) (*vm.Receipt, error) {
	var rcpt vm.Receipt
	if err := c.Call(ctx, "sendTx", tx, &rcpt); err != nil {
		return nil, err
	}
	return &rcpt, nil
}

// Nonce returns the next nonce of address.
func (c *Client) Nonce(ctx context.Context, address string) (uint64, error) {
	var acc core.Account
	if err := c.Call(ctx, "getAccount", map[string]string{"address": address}, &acc); err != nil {
		return 0, err
	}
	return acc.Nonce, nil
}
