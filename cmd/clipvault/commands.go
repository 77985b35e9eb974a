package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"go.klb.dev/clipvault/internal/ipc"
	"go.klb.dev/clipvault/internal/search"
)

func newAddCmd() *cobra.Command {
	cmd, _ := newClientCmd("add [TEXT...]", "Record text in the history (reads stdin when no text is given)", cobra.ArbitraryArgs,
		func(ctx context.Context, cf *clientFlags, c *ipc.Client, args []string) error {
			text, err := textArg(cf.stdin(), args)
			if err != nil {
				return err
			}
			added, err := c.Add(ctx, text)
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintln(cf.stdout(), "Ignored (blank or filtered).")
			}
			return nil
		})
	return cmd
}

func newActivateCmd() *cobra.Command {
	cmd, _ := newClientCmd("activate [TEXT...]", "Copy an entry back to the clipboard", cobra.ArbitraryArgs,
		func(ctx context.Context, cf *clientFlags, c *ipc.Client, args []string) error {
			if cf.cmd.Flags().Changed("index") {
				if len(args) > 0 {
					return errors.New("pass either TEXT or --index, not both")
				}
				text, err := c.ActivateIndex(ctx, cf.v.GetInt("index"))
				if err != nil {
					return err
				}
				fmt.Fprintln(cf.stdout(), search.Preview(text, search.PreviewWidth))
				return nil
			}
			text, err := textArg(cf.stdin(), args)
			if err != nil {
				return err
			}
			return c.Activate(ctx, text)
		})
	cmd.Flags().Int("index", 0, "activate the entry at this position in \"clipvault list\"")
	return cmd
}

// newFlagCmd builds the pin and favorite commands, which differ only in the
// call they make.
func newFlagCmd(name, short string, set func(*ipc.Client, context.Context, string, bool) (bool, error)) *cobra.Command {
	cmd, _ := newClientCmd(name+" TEXT...", short, cobra.MinimumNArgs(1),
		func(ctx context.Context, cf *clientFlags, c *ipc.Client, args []string) error {
			text, err := textArg(cf.stdin(), args)
			if err != nil {
				return err
			}
			changed, err := set(c, ctx, text, !cf.v.GetBool("off"))
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintln(cf.stdout(), "Unchanged.")
			}
			return nil
		})
	cmd.Flags().Bool("off", false, "clear the flag instead of setting it")
	return cmd
}

func newClearCmd() *cobra.Command {
	cmd, _ := newClientCmd("clear", "Delete the whole history, pinned and favorite entries included", cobra.NoArgs,
		func(ctx context.Context, _ *clientFlags, c *ipc.Client, _ []string) error {
			return c.Clear(ctx)
		})
	return cmd
}

func newMaxItemsCmd() *cobra.Command {
	cmd, _ := newClientCmd("max-items N", "Change the history capacity of the running daemon", cobra.ExactArgs(1),
		func(ctx context.Context, cf *clientFlags, c *ipc.Client, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("max-items: %q is not a positive integer", args[0])
			}
			got, err := c.SetMaxItems(ctx, n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cf.stdout(), "max items: %d\n", got)
			return nil
		})
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd, _ := newClientCmd("status", "Show daemon status", cobra.NoArgs,
		func(ctx context.Context, cf *clientFlags, c *ipc.Client, _ []string) error {
			resp, err := c.Status(ctx)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			if cf.v.GetBool("json") {
				return writeJSON(cf, resp)
			}
			printStatus(cf, resp)
			return nil
		})
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func printStatus(cf *clientFlags, resp *ipc.StatusResponse) {
	w := tabwriter.NewWriter(cf.stdout(), 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Version:\t%s\n", resp.Version)
	fmt.Fprintf(w, "Instance:\t%s (pid %d)\n", resp.Instance, resp.PID)
	fmt.Fprintf(w, "Started:\t%s (%s)\n", resp.StartedAt.Format(time.RFC3339), search.Age(time.Since(resp.StartedAt)))
	fmt.Fprintf(w, "Socket:\t%s\n", resp.Socket)
	fmt.Fprintf(w, "Backend:\t%s\n", resp.Backend)
	fmt.Fprintf(w, "Polling:\t%t\n", resp.Polling)
	fmt.Fprintf(w, "Entries:\t%d / %d (pinned %d, favorites %d)\n", resp.Entries, resp.MaxItems, resp.Pinned, resp.Favorites)
	fmt.Fprintf(w, "Persist history:\t%t\n", resp.PersistHistory)
	fmt.Fprintf(w, "Data dir:\t%s\n", resp.DataDir)
	fmt.Fprintf(w, "Captured:\t%d (ignored %d)\n", resp.Captured, resp.Ignored)
	fmt.Fprintf(w, "Watchers:\t%d\n", resp.Watchers)
	_ = w.Flush()
}

func newWatchCmd() *cobra.Command {
	cmd, cf := newClientCmd("watch", "Print the newest entry each time the history changes", cobra.NoArgs, nil)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cf.cmd = cmd
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return withClient(ctx, cf.v, 0, func(ctx context.Context, c *ipc.Client) error {
			var last int64
			err := c.Watch(ctx, func(ev *ipc.WatchResponse) error {
				if cf.v.GetBool("json") {
					return writeJSON(cf, ev)
				}
				for _, e := range ev.Items {
					if e.Recent() {
						if e.ID != last {
							last = e.ID
							fmt.Fprintf(cf.stdout(), "%s  %s\n", e.Timestamp.Format("15:04:05"), search.Preview(e.Text, search.PreviewWidth))
						}
						break
					}
				}
				return nil
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	}
	cmd.Flags().Bool("json", false, "print every snapshot as JSON")
	return cmd
}
