// Package timeouts defines shared timeout constants used across the bridge,
// the device host and the command entry points.
package timeouts

import "time"

// BridgeCall caps how long a web-side call waits for its native response.
const BridgeCall = 30 * time.Second

// RPCClient is the HTTP client timeout for remote custom-bridge calls. It is
// slightly longer than BridgeCall so the host answers before the client gives up.
const RPCClient = 35 * time.Second

// Ping caps a host health check.
const Ping = 2 * time.Second

// Dial caps the WebSocket handshake with a device host.
const Dial = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
