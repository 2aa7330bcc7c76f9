package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photozip"
	"github.com/sagarc03/photozip/clientcli"
	"github.com/sagarc03/photozip/config"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded archive streams",
		Long: `List archive streams recorded in the history database, newest first.
History must be enabled with history.type (sqlite or postgres).

Examples:
  photozip history --history-type sqlite --history-dsn photozip.db
  photozip history --token wedding-2024 --output json
  photozip history --all --output yaml`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	flags := cmd.Flags()
	flags.String("token", "", "only show archives of this directory")
	flags.IntP("limit", "l", 100, "max results per page (max: 1000)")
	flags.String("cursor", "", "pagination cursor")
	flags.Bool("all", false, "fetch all pages")
	flags.StringP("output", "o", clientcli.FormatTable, "output format: table, json, yaml")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	token, _ := flags.GetString("token")
	limit, _ := flags.GetInt("limit")
	cursor, _ := flags.GetString("cursor")
	all, _ := flags.GetBool("all")
	format, _ := flags.GetString("output")

	formatter, err := clientcli.NewFormatter(format, false)
	if err != nil {
		return err
	}

	if !cfg.History.Enabled() {
		return fmt.Errorf("history: %w (set history.type)", photozip.ErrHistoryDisabled)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	query := photozip.HistoryQuery{
		Token:  token,
		Limit:  max(1, min(1000, limit)),
		Cursor: cursor,
	}

	result := &clientcli.HistoryResult{}
	for {
		page, err := a.service.History(ctx, query)
		if err != nil {
			_ = formatter.FormatError(cmd.ErrOrStderr(), err)
			return err
		}

		result.Items = append(result.Items, toArchiveInfo(page.Items)...)
		result.NextCursor = page.NextCursor

		if !all || page.NextCursor == "" {
			break
		}
		query.Cursor = page.NextCursor
	}

	return formatter.FormatHistory(cmd.OutOrStdout(), result)
}

func toArchiveInfo(records []photozip.ArchiveRecord) []clientcli.ArchiveInfo {
	items := make([]clientcli.ArchiveInfo, len(records))
	for i, rec := range records {
		items[i] = clientcli.ArchiveInfo{
			ID:         rec.ID,
			Token:      rec.Token,
			Producer:   rec.Producer,
			Outcome:    string(rec.Outcome),
			Chunks:     rec.Chunks,
			BytesSent:  rec.BytesSent,
			ExitCode:   rec.ExitCode,
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
		}
	}
	return items
}
