package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koskev/lazymc/pkg/config"
	"github.com/koskev/lazymc/pkg/rcon"
)

func newStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Send the backend server a graceful RCON stop, bypassing the idle timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return stopCmdRun()
		},
	}
}

func stopCmdRun() error {
	cfg, err := config.Load(rootArgs.configPath)
	if err != nil {
		return withExitCode(fmt.Errorf("loading config: %w", err), exitConfigError)
	}
	if !cfg.Server.SendStopViaRCON {
		return withExitCode(fmt.Errorf("stop requires server.send_stop_via_rcon to be enabled"), exitConfigError)
	}

	client := rcon.Client{
		Address:  fmt.Sprintf("127.0.0.1:%d", cfg.Server.RCONPort),
		Password: cfg.Server.RCONPassword,
	}
	if err := client.Stop(); err != nil {
		return withExitCode(fmt.Errorf("rcon stop: %w", err), exitUnreachable)
	}

	fmt.Println("sent stop to backend")
	return nil
}
