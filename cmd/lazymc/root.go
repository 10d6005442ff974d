package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes documented for scripts driving lazymc from systemd units
// or CI: 0 success, 1 generic/config error, 2 the proxy server stopped
// with an error (for example its listen address could not be bound; a
// backend that fails to start does not end the proxy), 3 could not
// reach the running proxy (status) or the backend's RCON port (stop).
const (
	exitOK          = 0
	exitConfigError = 1
	exitBackendError = 2
	exitUnreachable = 3
)

// version is stamped at build time via -ldflags; "dev" otherwise.
var version = "dev"

var rootArgs struct {
	configPath string
	debug      bool
}

func newRootCommand() *cobra.Command {
	command := &cobra.Command{
		Use:           "lazymc",
		Short:         "A transparent proxy that puts your Minecraft server to sleep when idle",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	command.PersistentFlags().StringVar(&rootArgs.configPath, "config", "lazymc.toml", "path to the lazymc configuration file")
	command.PersistentFlags().BoolVar(&rootArgs.debug, "debug", false, "enable debug logging")

	command.AddCommand(newStartCommand())
	command.AddCommand(newConfigCommand())
	command.AddCommand(newStatusCommand())
	command.AddCommand(newStopCommand())
	return command
}

// run builds and executes the root command, translating a returned
// error into the process exit code cobra itself does not assign.
func run(args []string) int {
	command := newRootCommand()
	command.SetArgs(args)

	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if code, ok := err.(exitCoder); ok {
			return code.ExitCode()
		}
		return exitConfigError
	}
	return exitOK
}

// exitCoder lets a subcommand pick a specific exit code instead of the
// default exitConfigError a bare error returns.
type exitCoder interface {
	error
	ExitCode() int
}

type exitError struct {
	err  error
	code int
}

func (e exitError) Error() string { return e.err.Error() }
func (e exitError) ExitCode() int { return e.code }

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return exitError{err: err, code: code}
}
