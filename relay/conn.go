package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"mobile-bridge/bridge"
	"mobile-bridge/internal/platform/timeouts"
)

// ErrClosed is returned when sending on a closed connection.
var ErrClosed = errors.New("device host connection closed")

// Receiver is the web runtime that receives delivery scripts from the host.
type Receiver interface {
	EvaluateJavascript(script string) error
}

// Conn is a WebSocket connection to a device host. It plays the injected
// Android object for a web-side caller: requests go out as JSON strings and
// responses come back as delivery scripts.
type Conn struct {
	ws       *websocket.Conn
	receiver Receiver
	writeMu  sync.Mutex
	done     chan struct{}
	once     sync.Once
}

// Dial connects to the /ws endpoint at hostURL. Every frame the host sends
// is evaluated by receiver.
func Dial(ctx context.Context, hostURL string, receiver Receiver) (*Conn, error) {
	wsURL, err := WebSocketURL(hostURL)
	if err != nil {
		return nil, err
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeouts.Dial}
	ws, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial device host: %w", err)
	}
	c := &Conn{
		ws:       ws,
		receiver: receiver,
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// WebSocketURL maps a host base URL onto its /ws endpoint.
func WebSocketURL(hostURL string) (string, error) {
	u, err := url.Parse(hostURL)
	if err != nil {
		return "", fmt.Errorf("invalid host url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported host url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path += "/ws"
	}
	return u.String(), nil
}

// Method implements bridge.AndroidObject. The host only answers through the
// delivery channel, so the returned function never answers inline.
func (c *Conn) Method(name string) (bridge.AndroidFunc, bool) {
	if name != bridge.AndroidFallback {
		return nil, false
	}
	return c.send, true
}

func (c *Conn) send(requestJSON string) (string, error) {
	select {
	case <-c.done:
		return "", ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(requestJSON)); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	return "", nil
}

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection.
func (c *Conn) Close() error {
	err := c.ws.Close()
	c.once.Do(func() { close(c.done) })
	return err
}

func (c *Conn) readLoop() {
	defer c.once.Do(func() { close(c.done) })
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if err := c.receiver.EvaluateJavascript(string(payload)); err != nil {
			log.Printf("Invalid delivery from device host: %v", err)
		}
	}
}
