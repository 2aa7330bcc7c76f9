package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photozip"
	"github.com/sagarc03/photozip/config"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <directory>",
		Short: "Write the archive of a photo directory",
		Long: `Write the zip archive of a directory under the photos root, using the
same producer and streaming loop as the server.

Examples:
  photozip archive wedding-2024
  photozip archive wedding-2024 -o ./wedding.zip
  photozip archive wedding-2024 -o - > wedding.zip`,
		Args: cobra.ExactArgs(1),
		RunE: runArchive,
	}

	cmd.Flags().StringP("output", "o", "", `output file, "-" for stdout (default: <directory>.zip)`)

	return cmd
}

// writerSink forwards chunks to an io.Writer.
type writerSink struct {
	w io.Writer
}

func (s writerSink) WriteChunk(chunk []byte) error {
	_, err := s.w.Write(chunk)
	return err
}

func runArchive(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	token := args[0]
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = photozip.ArchiveFilename(token)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	var w io.Writer = cmd.OutOrStdout()
	if output != "-" {
		f, err := os.Create(output) //#nosec G304 -- output is user-provided
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	archive, err := a.service.Open(ctx, token)
	if err != nil {
		removeOutput(output)
		return err
	}

	stats, err := a.service.Stream(ctx, archive, writerSink{w: w})
	if err != nil {
		removeOutput(output)
		return fmt.Errorf("archive %s: %w", token, err)
	}
	if stats.Outcome == photozip.OutcomeFailed {
		removeOutput(output)
		return fmt.Errorf("archive %s: producer exited with status %d", token, stats.ExitCode)
	}

	slog.Info("archive written", "token", token, "output", output, "bytes", stats.BytesSent, "chunks", stats.Chunks)
	return nil
}

func removeOutput(output string) {
	if output != "-" {
		_ = os.Remove(output)
	}
}
