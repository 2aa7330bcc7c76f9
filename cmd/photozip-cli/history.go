package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sagarc03/photozip/clientcli"
)

var (
	historyToken  string
	historyLimit  int
	historyAll    bool
	historyCursor string
)

var historyCmd = &cobra.Command{
	Use:   "history [directory]",
	Short: "List archive streams recorded by the server",
	Long: `List archive streams recorded by the server, newest first.

NOTE: The server must run with archive history enabled, otherwise this
      command fails with a 404 "history_disabled" error.

Examples:
  photozip-cli history
  photozip-cli history wedding-2024
  photozip-cli history --limit 10 -f json
  photozip-cli history --all -f yaml
  photozip-cli history --cursor "MjAyNC0wMy0wMVQxMjowMDowMFp8..."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyToken, "token", "", "filter by directory")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 100, "max results per page (max: 1000)")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "fetch all pages")
	historyCmd.Flags().StringVar(&historyCursor, "cursor", "", "pagination cursor")
}

func runHistory(cmd *cobra.Command, args []string) error {
	token := historyToken
	if len(args) > 0 {
		token = args[0]
	}

	formatter, err := getFormatter()
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.History(context.Background(), clientcli.HistoryOptions{
		Token:  token,
		Limit:  historyLimit,
		Cursor: historyCursor,
		All:    historyAll,
	})
	if err != nil {
		return reportError(err)
	}

	return formatter.FormatHistory(cmd.OutOrStdout(), result)
}
