package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/koskev/lazymc/pkg/config"
	"github.com/koskev/lazymc/pkg/probe"
)

var statusArgs struct {
	timeout time.Duration
}

func newStatusCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "status",
		Short: "Query a running lazymc proxy's status like a client would",
		RunE: func(cmd *cobra.Command, args []string) error {
			return statusCmdRun()
		},
	}
	command.Flags().DurationVar(&statusArgs.timeout, "timeout", 5*time.Second, "how long to wait for a status response")
	return command
}

func statusCmdRun() error {
	cfg, err := config.Load(rootArgs.configPath)
	if err != nil {
		return withExitCode(fmt.Errorf("loading config: %w", err), exitConfigError)
	}

	p := &probe.Prober{
		BackendAddr:     cfg.Network.PublicAddress,
		ProtocolVersion: int32(cfg.Motd.ProtocolVersion),
		DialTimeout:     statusArgs.timeout,
	}

	st, err := p.Probe(context.Background(), statusArgs.timeout)
	if err != nil {
		return withExitCode(fmt.Errorf("could not reach %s: %w", cfg.Network.PublicAddress, err), exitUnreachable)
	}

	color.Info.Println(st.VersionName)
	color.Comment.Println(st.Description)
	fmt.Printf("protocol %d, %d players sampled\n", st.Protocol, len(st.Sample))
	for _, s := range st.Sample {
		fmt.Printf("  - %s (%s)\n", s.Name, s.ID)
	}
	return nil
}
