// Package seed provides the seed command
package seed

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TEQST/TEQST-Backend-sub000/internal/app"
	"github.com/TEQST/TEQST-Backend-sub000/internal/seed"
)

// Command creates and returns the seed command
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load users, folders and texts from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open seed file: %w", err)
			}
			defer f.Close()

			doc, err := seed.Load(f)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), ctx, func(a *app.App) error {
				sum, err := seed.Apply(cmd.Context(), a.Repos, doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d users, %d folders, %d texts, %d sentences\n",
					sum.Users, sum.Folders, sum.Texts, sum.Sentences)
				return nil
			})
		},
	}
}
