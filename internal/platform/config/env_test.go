package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Addr    string        `env:"BRIDGE_TEST_ADDR" envDefault:":1994"`
	Timeout time.Duration `env:"BRIDGE_TEST_TIMEOUT" envDefault:"30s"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != ":1994" {
		t.Fatalf("expected default addr :1994, got %q", cfg.Addr)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout 30s, got %v", cfg.Timeout)
	}
}

func TestParseEnvOverride(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("BRIDGE_TEST_TIMEOUT", "5s")

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected timeout 5s, got %v", cfg.Timeout)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("BRIDGE_TEST_TIMEOUT", "not-a-duration")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
