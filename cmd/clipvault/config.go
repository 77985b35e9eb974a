package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipvault/internal/ipc"
	"go.klb.dev/clipvault/internal/logging"
	"go.klb.dev/clipvault/internal/vault"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPVAULT_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPVAULT_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipvault")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipvault/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "clipvault"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addSocketFlag adds the --socket flag to a command.
func addSocketFlag(cmd *cobra.Command) {
	cmd.Flags().String("socket", "", "IPC socket path (default $XDG_RUNTIME_DIR/clipvault.sock)")
}

// addVaultFlags adds the history settings the daemon reads.
func addVaultFlags(cmd *cobra.Command) {
	d := vault.DefaultConfig()
	f := cmd.Flags()
	f.Int("max-items", d.MaxItems, "history capacity; pinned and favorite entries do not count against it")
	f.Bool("persist-history", d.PersistHistory, "save recent history to disk (pinned and favorites are always saved)")
	f.Bool("ignore-password-like", d.IgnorePasswordLike, "skip copies that look like passwords or tokens")
	f.StringSlice("ignore-patterns", nil, "skip copies containing any of these substrings (case-insensitive)")
	f.Duration("poll-interval", d.PollInterval, "clipboard poll interval")
	f.Duration("save-delay", d.SaveDelay, "delay before writing changes to disk")
	f.String("data-dir", "", "history directory (default $XDG_DATA_HOME/clipvault)")
	f.Bool("retain-last-seen", d.RetainLastSeen, "remember the last clipboard value across poller restarts")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"))
}

// vaultConfig builds the vault configuration from the bound settings.
func vaultConfig(v *viper.Viper) vault.Config {
	return vault.Config{
		MaxItems:           v.GetInt("max-items"),
		PersistHistory:     v.GetBool("persist-history"),
		IgnorePasswordLike: v.GetBool("ignore-password-like"),
		IgnorePatterns:     v.GetStringSlice("ignore-patterns"),
		PollInterval:       v.GetDuration("poll-interval"),
		SaveDelay:          v.GetDuration("save-delay"),
		DataDir:            v.GetString("data-dir"),
		RetainLastSeen:     v.GetBool("retain-last-seen"),
	}
}

// socketPath returns --socket / CLIPVAULT_SOCKET, or the default path.
func socketPath(v *viper.Viper) string {
	if s := v.GetString("socket"); s != "" {
		return s
	}
	return ipc.SocketPath()
}
