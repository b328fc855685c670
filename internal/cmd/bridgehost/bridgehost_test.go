package bridgehost

import (
	"context"
	"flag"
	"testing"
	"time"

	"mobile-bridge/native"
	"mobile-bridge/protocol"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(flag.NewFlagSet("bridgehost", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != ":1994" || cfg.Platform != "android" || cfg.AppVersion != "1.0.0" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("BRIDGE_HOST_PLATFORM", "ios")
	t.Setenv("BRIDGE_DEVICE_TABLET", "true")

	cfg, err := ParseConfig(flag.NewFlagSet("bridgehost", flag.ContinueOnError), []string{"-addr", "127.0.0.1:0", "-screen-width", "1024"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Platform != "ios" || !cfg.Tablet {
		t.Fatalf("expected env values, got %+v", cfg)
	}
	if cfg.Addr != "127.0.0.1:0" || cfg.ScreenWidth != 1024 {
		t.Fatalf("expected flag values, got %+v", cfg)
	}
}

func TestParseConfigRejectsPlatform(t *testing.T) {
	_, err := ParseConfig(flag.NewFlagSet("bridgehost", flag.ContinueOnError), []string{"-platform", "web"})
	if err == nil {
		t.Fatal("expected unsupported platform error")
	}
}

func TestNewServerDevice(t *testing.T) {
	looper := native.NewLooper()
	defer looper.Close()

	_, device, err := NewServer(Config{Platform: "ios", AppVersion: "9.9.9", DeviceModel: "iPad", Tablet: true}, looper)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	info := device.DeviceInfo()
	if info.AppVersion != "9.9.9" || info.DeviceModel != "iPad" || !info.IsTablet {
		t.Fatalf("unexpected device info %+v", info)
	}
	if _, _, err := NewServer(Config{Platform: string(protocol.PlatformWeb)}, looper); err == nil {
		t.Fatal("expected unsupported platform error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{Addr: "127.0.0.1:0", Platform: "android"})
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}
