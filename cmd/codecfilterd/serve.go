package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/protofilter/codec/internal/config"
	"github.com/protofilter/codec/internal/logging"
	"github.com/protofilter/codec/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the echo daemon",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	shutdownTimeout, err := time.ParseDuration(cfg.ShutdownTimeout)
	if err != nil {
		shutdownTimeout = 5 * time.Second
	}

	var sink *logging.FileSink
	if cfg.Log.File != "" {
		sink = &logging.FileSink{
			Filename:   cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		}
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, sink)

	addr, err := net.ResolveTCPAddr("tcp", cfg.Listen)
	if err != nil {
		return err
	}

	server, err := transport.NewServer(addr, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("codecfilterd: shutting down")
		cancel()
	}()

	handler := newEchoHandler(logger, cfg.MaxFrameLength)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ctx, handler) }()

	<-ctx.Done()
	time.AfterFunc(shutdownTimeout, func() { _ = server.Close() })
	return <-errCh
}
