// Package bridgemcp parses MCP command flags and connects the web-side caller
// to a device host.
package bridgemcp

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mobile-bridge/bridge"
	"mobile-bridge/internal/platform/config"
	"mobile-bridge/internal/platform/otel"
	"mobile-bridge/internal/platform/timeouts"
	mcpbridge "mobile-bridge/mcp"
	"mobile-bridge/relay"
)

const (
	transportWS   = "ws"
	transportHTTP = "http"
)

// Config holds MCP command configuration.
type Config struct {
	HostURL     string        `env:"BRIDGE_HOST_URL"      envDefault:"http://localhost:1994"`
	Transport   string        `env:"BRIDGE_MCP_TRANSPORT" envDefault:"ws"`
	CallTimeout time.Duration `env:"BRIDGE_CALL_TIMEOUT"  envDefault:"30s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HostURL, "host", cfg.HostURL, "device host base URL")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: ws or http")
	fs.DurationVar(&cfg.CallTimeout, "call-timeout", cfg.CallTimeout, "bridge call timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Transport != transportWS && cfg.Transport != transportHTTP {
		return Config{}, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
	return cfg, nil
}

// hostProbe is the environment a remote device host presents: an Android-style
// object over WebSocket, or a custom bridge over HTTP.
type hostProbe struct {
	android bridge.AndroidObject
	custom  bridge.CustomBridge
}

func (p hostProbe) HasWindow() bool { return true }

func (p hostProbe) Android() (bridge.AndroidObject, bool) {
	return p.android, p.android != nil
}

func (p hostProbe) MessageHandlers() (bridge.MessageHandlers, bool) {
	return nil, false
}

func (p hostProbe) NativeBridge() (bridge.CustomBridge, bool) {
	return p.custom, p.custom != nil
}

// Connect builds a caller bound to the device host. The returned close
// function releases the connection.
func Connect(ctx context.Context, cfg Config) (*bridge.Caller, func(), error) {
	registry := bridge.NewRegistry()
	runtime := bridge.NewRuntime(registry)

	var probe hostProbe
	closeFn := func() {}
	switch cfg.Transport {
	case transportWS:
		dialCtx, cancel := context.WithTimeout(ctx, timeouts.Dial)
		defer cancel()
		conn, err := relay.Dial(dialCtx, cfg.HostURL, runtime)
		if err != nil {
			return nil, nil, err
		}
		probe.android = conn
		closeFn = func() { _ = conn.Close() }
	case transportHTTP:
		probe.custom = relay.NewHTTPBridge(cfg.HostURL)
	default:
		return nil, nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}

	transport := bridge.Detect(probe)
	if !transport.Available() {
		log.Printf("Device host at %s is not reachable", cfg.HostURL)
	}
	caller := bridge.NewCaller(transport,
		bridge.WithRegistry(registry),
		bridge.WithTimeout(cfg.CallTimeout),
	)
	return caller, closeFn, nil
}

// NewServer creates the MCP server exposing caller as tools.
func NewServer(caller *bridge.Caller) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mobile-bridge",
		Version: relay.Version,
	}, nil)

	tools := &mcpbridge.Tools{Handler: caller}
	tools.Register(server)
	return server
}

// Run starts the MCP server on stdio.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "bridgemcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	caller, closeFn, err := Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	session := caller.LoadSession(ctx)
	if session.DeviceInfo != nil {
		log.Printf("Connected to %s device %s (app %s)", session.DeviceInfo.Platform, session.DeviceInfo.DeviceModel, session.DeviceInfo.AppVersion)
	}

	log.Printf("Starting MCP server (transport: %s)", caller.Transport().Kind())
	return NewServer(caller).Run(ctx, &mcp.StdioTransport{})
}
