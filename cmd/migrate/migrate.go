// Package migrate provides the migrate command
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TEQST/TEQST-Backend-sub000/internal/app"
)

// Command creates and returns the migrate command
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), ctx, func(a *app.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Database schema is up to date (%s)\n", a.DB.Path())
				return nil
			})
		},
	}
}
