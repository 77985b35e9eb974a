package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"go.klb.dev/clipvault/internal/ipc"
	"go.klb.dev/clipvault/internal/search"
)

func newListCmd() *cobra.Command {
	cmd, _ := newClientCmd("list", "Show the clipboard history", cobra.NoArgs,
		func(ctx context.Context, cf *clientFlags, c *ipc.Client, _ []string) error {
			limit := cf.v.GetInt("limit")
			if cf.v.GetBool("json") {
				resp, err := c.List(ctx, limit)
				if err != nil {
					return err
				}
				return writeJSON(cf, resp)
			}
			page, err := c.Search(ctx, "", search.ModeSubstring, limit)
			if err != nil {
				return err
			}
			renderResults(cf.stdout(), page)
			return nil
		})
	cmd.Long = `Prints the history in display order: pinned entries (P), then favorites (*),
then recent copies newest first. The number in the first column is the index
accepted by "clipvault activate --index".`
	cmd.Flags().Int("limit", 0, "maximum entries to show (default 30, or all with --json)")
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func newSearchCmd() *cobra.Command {
	cmd, _ := newClientCmd("search QUERY...", "Find history entries containing text", cobra.MinimumNArgs(1),
		func(ctx context.Context, cf *clientFlags, c *ipc.Client, args []string) error {
			mode := search.ModeSubstring
			if cf.v.GetBool("fuzzy") {
				mode = search.ModeFuzzy
			}
			page, err := c.Search(ctx, strings.Join(args, " "), mode, cf.v.GetInt("limit"))
			if err != nil {
				return err
			}
			if cf.v.GetBool("json") {
				return writeJSON(cf, page)
			}
			renderResults(cf.stdout(), page)
			return nil
		})
	cmd.Flags().Bool("fuzzy", false, "rank by fuzzy match instead of case-insensitive substring")
	cmd.Flags().Int("limit", 0, "maximum results (default 30)")
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func writeJSON(cf *clientFlags, v any) error {
	enc := json.NewEncoder(cf.stdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
