// File: cmd/hioload-tcp/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// hioload-tcp server binary: loads configuration, starts the acceptor and
// hands the terminal to the console dashboard until quit or a signal.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/momentics/hioload-tcp/internal/config"
	"github.com/momentics/hioload-tcp/internal/dashboard"
	"github.com/momentics/hioload-tcp/logging"
	"github.com/momentics/hioload-tcp/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("[hioload-tcp] %v", err)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	sink, err := logging.NewFileSink(cfg.Logging.Dir,
		logging.WithDrainTimeout(cfg.Logging.DrainTimeout.Duration),
		logging.WithQueueSize(cfg.Logging.QueueSize))
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Printf("[hioload-tcp] %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(cfg.Server, server.WithLogger(sink))
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		sink.Info(fmt.Sprintf("configuration loaded from %s", cfg.Path))
	}
	if err := srv.Start(cfg.Server.Port); err != nil {
		return err
	}

	if cfg.Dashboard.Enabled {
		console := dashboard.New(srv, cfg.Server.Port, os.Stdin, os.Stdout,
			dashboard.WithInterval(cfg.Dashboard.Interval.Duration),
			dashboard.WithLineSource(sink),
			dashboard.WithControl(srv.GetControl()))
		if err := console.Run(ctx); err != nil {
			sink.Error("console input", err)
		}
	} else {
		cancel := sink.Subscribe(func(line string) { fmt.Fprintln(os.Stderr, line) })
		defer cancel()
		<-ctx.Done()
	}

	sink.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		sink.Error("shutdown incomplete", err)
	}
	return nil
}
