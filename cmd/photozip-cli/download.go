package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photozip/clientcli"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <directory> [local-path]",
	Short: "Download the archive of a directory",
	Long: `Download the zip archive of a directory on the server.

The archive is built while it downloads, so its size is unknown until
the transfer ends. A transfer cut short by the server is reported as
an error and the partial file is removed.

Examples:
  photozip-cli download wedding-2024
  photozip-cli download wedding-2024 ./wedding.zip
  photozip-cli download --stdout wedding-2024 | unzip -l /dev/stdin
  photozip-cli download -o ./out.zip wedding-2024`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path (default: <directory>.zip)")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	token := args[0]

	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	formatter, err := getFormatter()
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, reader, err := client.Download(ctx, clientcli.DownloadOptions{
		Token:     token,
		LocalPath: localPath,
	})
	if err != nil {
		return reportError(err)
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		written, err := io.Copy(cmd.OutOrStdout(), reader)
		if err != nil {
			return reportError(err)
		}
		result.Size = written
		// Metadata goes to stderr so stdout stays a valid archive.
		if output != clientcli.FormatTable {
			return formatter.FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return formatter.FormatDownload(cmd.OutOrStdout(), result)
}
