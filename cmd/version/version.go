// Package version provides the version command
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TEQST/TEQST-Backend-sub000/internal/app"
)

// Command creates and returns the version command
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "teqst %s (built %s)\n",
				ctx.Build.GetVersion(), ctx.Build.GetBuildDate())
			return err
		},
	}
}
