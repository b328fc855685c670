package bridgemcp

import (
	"context"
	"errors"
	"flag"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mobile-bridge/bridge"
	hostcmd "mobile-bridge/internal/cmd/bridgehost"
	"mobile-bridge/native"
	"mobile-bridge/protocol"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(flag.NewFlagSet("bridgemcp", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HostURL != "http://localhost:1994" || cfg.Transport != "ws" || cfg.CallTimeout != 30*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("BRIDGE_MCP_TRANSPORT", "http")

	cfg, err := ParseConfig(flag.NewFlagSet("bridgemcp", flag.ContinueOnError), []string{"-call-timeout", "5s"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Transport != "http" || cfg.CallTimeout != 5*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := ParseConfig(flag.NewFlagSet("bridgemcp", flag.ContinueOnError), []string{"-transport", "grpc"}); err == nil {
		t.Fatal("expected unsupported transport error")
	}
}

func startHost(t *testing.T) string {
	t.Helper()
	looper := native.NewLooper()
	srv, _, err := hostcmd.NewServer(hostcmd.Config{Platform: "android", AppVersion: "4.5.6", DeviceModel: "Pixel"}, looper)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
		looper.Close()
	})
	return ts.URL
}

func TestConnectTransports(t *testing.T) {
	url := startHost(t)

	tests := []struct {
		transport string
		kind      bridge.Kind
	}{
		{transportWS, bridge.KindAndroid},
		{transportHTTP, bridge.KindCustom},
	}
	for _, tt := range tests {
		t.Run(tt.transport, func(t *testing.T) {
			caller, closeFn, err := Connect(context.Background(), Config{HostURL: url, Transport: tt.transport, CallTimeout: 2 * time.Second})
			if err != nil {
				t.Fatalf("connect: %v", err)
			}
			defer closeFn()

			if caller.Transport().Kind() != tt.kind {
				t.Fatalf("expected %s, got %s", tt.kind, caller.Transport().Kind())
			}
			version, err := caller.GetAppVersion(context.Background())
			if err != nil {
				t.Fatalf("get app version: %v", err)
			}
			if version != "4.5.6" {
				t.Fatalf("expected 4.5.6, got %q", version)
			}
		})
	}
}

func TestConnectUnreachableHTTPHost(t *testing.T) {
	caller, closeFn, err := Connect(context.Background(), Config{HostURL: "http://127.0.0.1:1", Transport: transportHTTP, CallTimeout: time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer closeFn()

	_, err = caller.GetAppVersion(context.Background())
	if !errors.Is(err, bridge.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNewServerServesTools(t *testing.T) {
	url := startHost(t)
	caller, closeFn, err := Connect(context.Background(), Config{HostURL: url, Transport: transportWS, CallTimeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := NewServer(caller).Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("connect server: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "call_custom_method",
		Arguments: map[string]any{"methodName": "echo", "params": map[string]any{"k": "v"}},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result %+v", result)
	}
	text := result.Content[0].(*mcp.TextContent).Text
	if text != `{"k":"v"}` {
		t.Fatalf("unexpected text %s", text)
	}

	result, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "request_permission",
		Arguments: map[string]any{"permission": "not-a-real-permission"},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if want := string(protocol.CodeInvalidPermission) + ": Invalid permission type: not-a-real-permission"; result.Content[0].(*mcp.TextContent).Text != want {
		t.Fatalf("expected %q, got %q", want, result.Content[0].(*mcp.TextContent).Text)
	}
}
