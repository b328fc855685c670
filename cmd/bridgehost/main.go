package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	hostcmd "mobile-bridge/internal/cmd/bridgehost"
	"mobile-bridge/internal/platform/config"
)

// main serves a simulated device to WebView clients.
func main() {
	cfg, err := hostcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[HOST] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := hostcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve device host: %v", err)
	}
}
