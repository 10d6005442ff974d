package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/koskev/lazymc/pkg/config"
	"github.com/koskev/lazymc/pkg/server"
)

func newStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the proxy and supervise the backend server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startCmdRun()
		},
	}
}

func startCmdRun() error {
	cfg, err := config.Load(rootArgs.configPath)
	if err != nil {
		return withExitCode(fmt.Errorf("loading config: %w", err), exitConfigError)
	}
	if rootArgs.debug {
		cfg.Debug = true
	}
	if err := config.Validate(&cfg); err != nil {
		return withExitCode(fmt.Errorf("validating config: %w", err), exitConfigError)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return withExitCode(fmt.Errorf("initializing logger: %w", err), exitConfigError)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer func() { signal.Stop(sig); close(sig) }()

	go func() {
		s, ok := <-sig
		if !ok {
			return
		}
		logger.Info("received signal, shutting down", zap.String("signal", s.String()))
		cancel()
	}()

	s := server.New(cfg, logger)
	if err := s.Run(ctx); err != nil {
		return withExitCode(fmt.Errorf("server: %w", err), exitBackendError)
	}
	return nil
}

// newLogger mirrors the teacher's console zap encoder: colorized
// capital level names and an ISO8601 timestamp, switching to the
// development config when debug logging is requested.
func newLogger(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
