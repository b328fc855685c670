// Package bridgehost parses device host flags and serves a simulated device.
package bridgehost

import (
	"context"
	"flag"
	"fmt"
	"log"

	"mobile-bridge/internal/platform/config"
	"mobile-bridge/internal/platform/otel"
	"mobile-bridge/internal/platform/timeouts"
	"mobile-bridge/native"
	"mobile-bridge/protocol"
	"mobile-bridge/relay"
	"mobile-bridge/sim"
)

// Config holds device host configuration.
type Config struct {
	Addr         string  `env:"BRIDGE_HOST_ADDR"          envDefault:":1994"`
	Platform     string  `env:"BRIDGE_HOST_PLATFORM"      envDefault:"android"`
	AppVersion   string  `env:"BRIDGE_APP_VERSION"        envDefault:"1.0.0"`
	DeviceModel  string  `env:"BRIDGE_DEVICE_MODEL"       envDefault:"Simulator"`
	OSVersion    string  `env:"BRIDGE_OS_VERSION"         envDefault:"14"`
	ScreenWidth  float64 `env:"BRIDGE_SCREEN_WIDTH"       envDefault:"390"`
	ScreenHeight float64 `env:"BRIDGE_SCREEN_HEIGHT"      envDefault:"844"`
	Tablet       bool    `env:"BRIDGE_DEVICE_TABLET"      envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.Platform, "platform", cfg.Platform, "simulated platform: android or ios")
	fs.StringVar(&cfg.AppVersion, "app-version", cfg.AppVersion, "reported app version")
	fs.StringVar(&cfg.DeviceModel, "device-model", cfg.DeviceModel, "reported device model")
	fs.StringVar(&cfg.OSVersion, "os-version", cfg.OSVersion, "reported OS version")
	fs.Float64Var(&cfg.ScreenWidth, "screen-width", cfg.ScreenWidth, "reported screen width")
	fs.Float64Var(&cfg.ScreenHeight, "screen-height", cfg.ScreenHeight, "reported screen height")
	fs.BoolVar(&cfg.Tablet, "tablet", cfg.Tablet, "report the device as a tablet")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if _, err := parsePlatform(cfg.Platform); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parsePlatform(value string) (protocol.Platform, error) {
	switch p := protocol.Platform(value); p {
	case protocol.PlatformAndroid, protocol.PlatformIOS:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported platform %q", value)
	}
}

// NewServer builds the device host for cfg. The caller owns looper.
func NewServer(cfg Config, looper *native.Looper) (*relay.Server, *sim.Device, error) {
	platform, err := parsePlatform(cfg.Platform)
	if err != nil {
		return nil, nil, err
	}
	device := sim.NewDevice(sim.Profile{
		OSVersion:    cfg.OSVersion,
		AppVersion:   cfg.AppVersion,
		DeviceModel:  cfg.DeviceModel,
		ScreenWidth:  cfg.ScreenWidth,
		ScreenHeight: cfg.ScreenHeight,
		IsTablet:     cfg.Tablet,
	})
	srv := relay.NewServer(relay.Config{
		Addr:       cfg.Addr,
		Platform:   platform,
		RPCTimeout: timeouts.BridgeCall,
	}, device, looper)
	srv.Custom("echo", func(_ context.Context, params protocol.Params) (any, error) {
		return map[string]any(params), nil
	})
	return srv, device, nil
}

// Run serves the device host until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "bridgehost")
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

	looper := native.NewLooper()
	defer looper.Close()

	srv, _, err := NewServer(cfg, looper)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start device host: %w", err)
	}
	<-ctx.Done()
	log.Println("Shutting down...")
	srv.Stop()
	return nil
}
