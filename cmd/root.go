// Package cmd builds the teqst command line interface.
package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TEQST/TEQST-Backend-sub000/cmd/config"
	"github.com/TEQST/TEQST-Backend-sub000/cmd/migrate"
	"github.com/TEQST/TEQST-Backend-sub000/cmd/recording"
	"github.com/TEQST/TEQST-Backend-sub000/cmd/report"
	"github.com/TEQST/TEQST-Backend-sub000/cmd/seed"
	"github.com/TEQST/TEQST-Backend-sub000/cmd/version"
	"github.com/TEQST/TEQST-Backend-sub000/internal/app"
	"github.com/TEQST/TEQST-Backend-sub000/internal/conf"
	"github.com/TEQST/TEQST-Backend-sub000/internal/logger"
)

// skipSetupAnnotation marks commands that run without settings or logger.
const skipSetupAnnotation = "teqst/skip-setup"

// RootCommand creates and returns the root command
func RootCommand(ctx *app.Context) *cobra.Command {
	v := viper.New()
	var configFile string
	var central *logger.CentralLogger

	rootCmd := &cobra.Command{
		Use:           "teqst",
		Short:         "TEQST recording backend",
		Long:          `Manage sentence recordings, regenerate text recordings and transcripts, and build folder statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, v, &configFile, ctx); err != nil {
		panic(err)
	}

	skip := map[string]string{skipSetupAnnotation: "true"}
	versionCmd := version.Command(ctx)
	versionCmd.Annotations = skip
	configCmd := config.Command()
	configCmd.Annotations = skip

	rootCmd.AddCommand(
		migrate.Command(ctx),
		seed.Command(ctx),
		recording.Command(ctx),
		report.Command(ctx),
		configCmd,
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		for c := cmd; c != nil; c = c.Parent() {
			if c.Annotations[skipSetupAnnotation] == "true" {
				return nil
			}
		}
		var err error
		if central, err = initialize(ctx, v, configFile); err != nil {
			return err
		}
		// One trace ID per invocation ties the command's SQL logs together.
		cmd.SetContext(logger.WithTraceID(cmd.Context(), uuid.NewString()))
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if central == nil {
			return nil
		}
		return central.Close()
	}

	return rootCmd
}

// initialize loads the settings and sets up logging before a subcommand runs.
func initialize(ctx *app.Context, v *viper.Viper, configFile string) (*logger.CentralLogger, error) {
	settings, err := conf.Load(v, configFile)
	if err != nil {
		return nil, err
	}
	if settings.Debug {
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	ctx.Settings = settings
	ctx.Logger = central.Module("teqst")
	ctx.Logger.Debug("settings loaded",
		logger.String("config", v.ConfigFileUsed()),
		logger.String("database", settings.Database.Type),
		logger.String("data_dir", settings.Storage.DataDir))
	return central, nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, v *viper.Viper, configFile *string, ctx *app.Context) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(configFile, "config", "", "Path to config.yaml (default: ./config.yaml, ~/.config/teqst, /etc/teqst)")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.StringVar(&ctx.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file when the command finishes")

	if err := v.BindPFlag("debug", flags.Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}
