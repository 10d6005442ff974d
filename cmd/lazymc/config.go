package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koskev/lazymc/pkg/config"
)

var configGenerateArgs struct {
	path  string
	force bool
}

func newConfigCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Manage the lazymc configuration file",
	}
	command.AddCommand(newConfigGenerateCommand())
	return command
}

func newConfigGenerateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "generate",
		Short: "Write a commented default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Generate(configGenerateArgs.path, configGenerateArgs.force); err != nil {
				return withExitCode(err, exitConfigError)
			}
			fmt.Println("wrote", configGenerateArgs.path)
			return nil
		},
	}
	command.Flags().StringVar(&configGenerateArgs.path, "path", config.DefaultConfigPath, "path to write the configuration file to")
	command.Flags().BoolVar(&configGenerateArgs.force, "force", false, "overwrite an existing configuration file")
	return command
}
