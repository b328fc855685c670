package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"mobile-bridge/internal/platform/timeouts"
)

// HTTPBridge is a custom bridge backed by a device host's /rpc endpoint.
type HTTPBridge struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBridge creates a bridge for the host at baseURL.
func NewHTTPBridge(baseURL string) *HTTPBridge {
	return &HTTPBridge{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: timeouts.RPCClient,
		},
	}
}

// CallNative implements bridge.CustomBridge.
func (b *HTTPBridge) CallNative(ctx context.Context, method string, params map[string]any) (any, error) {
	body, err := json.Marshal(RPCRequest{Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RPC request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call device host: %w", err)
	}
	defer resp.Body.Close()

	var rpcResp RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("device host returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device host returned status %d", resp.StatusCode)
	}
	return rpcResp.Data, nil
}

// Ping checks if the host is reachable and healthy.
func (b *HTTPBridge) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/ping", nil)
	if err != nil {
		return false
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// IsAvailable implements bridge.CustomBridge with a bounded ping.
func (b *HTTPBridge) IsAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Ping)
	defer cancel()
	return b.Ping(ctx)
}
