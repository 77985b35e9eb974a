package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"go.klb.dev/clipvault/internal/clip"
	"go.klb.dev/clipvault/internal/ipc"
	"go.klb.dev/clipvault/internal/vault"
)

func newDaemonCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Watch the clipboard and serve the history",
		Long: `Starts the clipvault daemon. It loads the saved history, polls the system
clipboard, and answers the other sub-commands over the IPC socket. Pinned and
favorite entries are always saved; recent history is saved when
persist-history is on.

Changes to max-items, persist-history, ignore-password-like and
ignore-patterns in the config file are applied without a restart.

Config file search order:
  /etc/clipvault/clipvault.toml
  $HOME/.config/clipvault/clipvault.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPVAULT_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.Bool("no-clipboard", false, "do not touch the system clipboard; history only grows through \"clipvault add\"")
	addVaultFlags(cmd)
	addSocketFlag(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(ctx context.Context, v *viper.Viper) error {
	setupLogging(v)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := vaultConfig(v)
	path := socketPath(v)

	var backend clip.Backend
	if v.GetBool("no-clipboard") {
		backend = clip.NewMemory()
	} else {
		backend = clip.New()
	}
	defer backend.Close()

	ln, err := ipc.Listen(path)
	if err != nil {
		return fmt.Errorf("ipc: %w", err)
	}
	defer os.Remove(path)

	slog.Info("clipvault daemon starting",
		"version", Version,
		"backend", backend.Name(),
		"socket", path,
		"config", v.ConfigFileUsed(),
	)

	vlt := vault.New(cfg, backend)
	vlt.Start()

	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			slog.Info("config file changed, applying", "file", e.Name, "op", e.Op.String())
			vlt.Apply(vaultConfig(v))
		})
		v.WatchConfig()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return ipc.NewServer(vlt, Version, path).Serve(ctx, ln)
	})
	g.Go(func() error {
		<-ctx.Done()
		vlt.Close()
		return nil
	})

	err = g.Wait()
	slog.Info("clipvault daemon stopped")
	return err
}
