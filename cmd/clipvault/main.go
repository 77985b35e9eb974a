// clipvault: clipboard history daemon and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipvault/internal/ipc"
	"go.klb.dev/clipvault/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipvault",
		Short: "Clipboard history with pinned and favorite entries",
		Long: `clipvault watches the system clipboard, keeps a deduplicated history of
recent copies, and lets you pin or favorite entries so they are never evicted.

Run "clipvault daemon" once per desktop session. The other sub-commands talk to
the daemon over a local Unix socket ($XDG_RUNTIME_DIR/clipvault.sock).

Config file search order (first found wins):
  /etc/clipvault/clipvault.toml
  $HOME/.config/clipvault/clipvault.toml
  path supplied via --config

All flags can be set via CLIPVAULT_<FLAG> env vars or config-file keys.
See "clipvault daemon --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newListCmd(),
		newSearchCmd(),
		newAddCmd(),
		newActivateCmd(),
		newFlagCmd("pin", "Pin an entry so it stays at the top and is never evicted", (*ipc.Client).SetPinned),
		newFlagCmd("favorite", "Mark an entry as a favorite so it is never evicted", (*ipc.Client).SetFavorite),
		newClearCmd(),
		newMaxItemsCmd(),
		newStatusCmd(),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clipvault %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
