// Package config provides the config command
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TEQST/TEQST-Backend-sub000/internal/conf"
)

// Command creates and returns the config command
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Long:  `Write every setting with its default value as YAML. The path defaults to config.yaml and is never overwritten.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := conf.WriteDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(initCmd)
	return cmd
}
