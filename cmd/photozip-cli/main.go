package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photozip/clientcli"
)

var (
	version = "dev"

	cfgFile string
	server  string
	timeout string
	output  string
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:          "photozip-cli",
	Version:      version,
	Short:        "Client for photozip servers",
	SilenceUsage: true,
	Long: `photozip-cli downloads streamed directory archives from a photozip
server and lists the archive history it recorded.

Commands:
  - download: save the archive of a directory
  - history:  list recorded archive streams (server needs history enabled)`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.photozip/client.yaml)")
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "", "server URL (default: http://localhost:8080, env: PHOTOZIP_SERVER)")
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", "", "timeout for history requests, e.g. 10s (env: PHOTOZIP_CLIENT_TIMEOUT)")
	rootCmd.PersistentFlags().StringVarP(&output, "output-format", "f", clientcli.FormatTable, "output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig merges config from file, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	configPath := cfgFile
	if configPath == "" {
		configPath = clientcli.DefaultConfigPath()
	}

	if configPath != "" {
		fileCfg, err := clientcli.LoadConfigFile(configPath)
		if err != nil {
			// Only error if user explicitly specified a config file
			if cfgFile != "" {
				return nil, err
			}
		} else {
			configs = append(configs, fileCfg)
		}
	}

	configs = append(configs, clientcli.ConfigFromEnv())

	flagCfg := &clientcli.Config{Endpoint: server}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
		flagCfg.Timeout = d
	}
	configs = append(configs, flagCfg)

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the formatter selected by --output-format.
func getFormatter() (clientcli.Formatter, error) {
	return clientcli.NewFormatter(output, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// reportError writes err to stderr in the selected format and returns it.
func reportError(err error) error {
	if formatter, fmtErr := getFormatter(); fmtErr == nil {
		_ = formatter.FormatError(os.Stderr, err)
	}
	return err
}
