// Package report provides the statistics report commands
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/TEQST/TEQST-Backend-sub000/internal/app"
	"github.com/TEQST/TEQST-Backend-sub000/internal/statistics"
)

type options struct {
	from   string
	to     string
	users  []string
	format string
	output string
}

// Command creates and returns the report command with its subcommands
func Command(ctx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate recording statistics over folders",
	}
	cmd.AddCommand(folderCommand(ctx), foldersCommand(ctx))
	return cmd
}

func setupFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.from, "from", "", "First day included, YYYY-MM-DD (default: no lower bound)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last day included, YYYY-MM-DD (default: no upper bound)")
	cmd.Flags().StringSliceVarP(&opts.users, "user", "u", nil, "Only report these usernames (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: csv or yaml (default from statistics.reportformat)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to a file instead of stdout")
}

// window turns the day flags into an inclusive UTC window.
func (o *options) window() (statistics.Window, error) {
	var w statistics.Window
	if o.from != "" {
		day, err := time.Parse(time.DateOnly, o.from)
		if err != nil {
			return w, fmt.Errorf("invalid --from date %q: %w", o.from, err)
		}
		w.Start = day
	}
	if o.to != "" {
		day, err := time.Parse(time.DateOnly, o.to)
		if err != nil {
			return w, fmt.Errorf("invalid --to date %q: %w", o.to, err)
		}
		w.End = day.Add(24*time.Hour - time.Nanosecond)
	}
	return w, nil
}

func (o *options) write(cmd *cobra.Command, a *app.App, csv func(io.Writer) error, report any) (err error) {
	format := o.format
	if format == "" {
		format = a.Settings.Statistics.ReportFormat
	}

	out := cmd.OutOrStdout()
	if o.output != "" {
		f, ferr := os.Create(o.output)
		if ferr != nil {
			return fmt.Errorf("failed to create report file: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}

	switch format {
	case "csv":
		return csv(out)
	case "yaml":
		return statistics.WriteYAML(out, report)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, len(args))
	for i, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid folder id %q", arg)
		}
		ids[i] = uint(id)
	}
	return ids, nil
}

func folderCommand(ctx *app.Context) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "folder <folder-id>",
		Short: "Report per-speaker statistics of a folder and its subfolders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			w, err := opts.window()
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), ctx, func(a *app.App) error {
				r, err := a.Statistics.FolderReport(cmd.Context(), ids[0], w, statistics.UserFilter{Usernames: opts.users})
				if err != nil {
					return err
				}
				return opts.write(cmd, a, r.WriteCSV, r)
			})
		},
	}
	setupFlags(cmd, opts)
	return cmd
}

func foldersCommand(ctx *app.Context) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "folders <folder-id>...",
		Short: "Report sibling folders side by side with a Totals group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			w, err := opts.window()
			if err != nil {
				return err
			}
			return app.Run(cmd.Context(), ctx, func(a *app.App) error {
				r, err := a.Statistics.MultiFolderReport(cmd.Context(), ids, w, statistics.UserFilter{Usernames: opts.users})
				if err != nil {
					return err
				}
				return opts.write(cmd, a, r.WriteCSV, r)
			})
		},
	}
	setupFlags(cmd, opts)
	return cmd
}
