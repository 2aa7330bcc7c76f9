package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photozip/config"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: version,
		Use:     "photozip",
		Short:   "Stream photo directories as zip archives",
		Long: `photozip serves every directory under the photos root as a zip
archive that is streamed to the client while it is being built.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			if off, _ := flags.GetBool("no_enable_logging"); off {
				_ = flags.Set("enable_logging", "false")
			}

			configFiles, _ := flags.GetStringSlice("config")
			cfg, err := config.Load(configFiles, flags)
			if err != nil {
				return err
			}

			setupLogging(cfg, cmd.ErrOrStderr())
			cmd.SetContext(config.WithContext(cmd.Context(), cfg))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringSlice("config", nil, "config file path, repeatable (default: ./photozip.yaml)")
	flags.String("photos_directory", "", "photos root directory (default: ./photos, env: PHOTOS_DIRECTORY)")
	flags.Float64("mimic_download_latency", 0, "delay in seconds before every chunk (env: MIMIC_DOWNLOAD_LATENCY)")
	flags.Bool("enable_logging", false, "enable logging (env: ENABLE_LOGGING)")
	flags.Bool("no_enable_logging", false, "disable logging")
	flags.String("producer", "", "archive producer: zip, native (default: zip)")
	flags.String("history-type", "", "archive history database: sqlite, postgres (default: disabled)")
	flags.String("history-dsn", "", "archive history connection string")

	rootCmd.MarkFlagsMutuallyExclusive("enable_logging", "no_enable_logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newArchiveCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
