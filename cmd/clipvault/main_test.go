package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipvault/internal/clip"
	"go.klb.dev/clipvault/internal/history"
	"go.klb.dev/clipvault/internal/ipc"
	"go.klb.dev/clipvault/internal/search"
	"go.klb.dev/clipvault/internal/vault"
)

func daemonFlags(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newDaemonCmd()
	require.NoError(t, cmd.ParseFlags(args))
	v := viper.New()
	require.NoError(t, bindViper(cmd, v))
	return v
}

func TestVaultConfig_Defaults(t *testing.T) {
	cfg := vaultConfig(daemonFlags(t))
	d := vault.DefaultConfig()
	assert.Equal(t, d.MaxItems, cfg.MaxItems)
	assert.Equal(t, d.PersistHistory, cfg.PersistHistory)
	assert.Equal(t, d.IgnorePasswordLike, cfg.IgnorePasswordLike)
	assert.Equal(t, d.PollInterval, cfg.PollInterval)
	assert.Equal(t, d.SaveDelay, cfg.SaveDelay)
	assert.True(t, cfg.RetainLastSeen)
	assert.Empty(t, cfg.IgnorePatterns)
}

func TestVaultConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clipvault.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
max-items = 20
persist-history = false
ignore-patterns = ["token=", "bearer "]
poll-interval = "1s"
`), 0o600))

	t.Setenv("CLIPVAULT_MAX_ITEMS", "30")
	t.Setenv("CLIPVAULT_POLL_INTERVAL", "2s")

	cfg := vaultConfig(daemonFlags(t, "--config", file, "--poll-interval", "3s"))
	assert.Equal(t, 30, cfg.MaxItems, "env beats file")
	assert.False(t, cfg.PersistHistory, "file beats defaults")
	assert.Equal(t, []string{"token=", "bearer "}, cfg.IgnorePatterns)
	assert.Equal(t, 3*time.Second, cfg.PollInterval, "flags beat everything")
}

func TestVaultConfig_Env(t *testing.T) {
	t.Setenv("CLIPVAULT_RETAIN_LAST_SEEN", "false")
	cfg := vaultConfig(daemonFlags(t))
	assert.False(t, cfg.RetainLastSeen)
}

func TestBindViper_BadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(file, []byte("max-items = = 3"), 0o600))

	cmd := newDaemonCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", file}))
	assert.Error(t, bindViper(cmd, viper.New()))
}

func TestSocketPathFlag(t *testing.T) {
	v := daemonFlags(t, "--socket", "/tmp/x.sock")
	assert.Equal(t, "/tmp/x.sock", socketPath(v))
}

func TestTextArg(t *testing.T) {
	got, err := textArg(strings.NewReader("ignored"), []string{"hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)

	got, err = textArg(strings.NewReader("from stdin\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin\n", got)

	got, err = textArg(strings.NewReader("dash"), []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "dash", got)
}

func TestRenderResults(t *testing.T) {
	now := time.Now()
	page := &search.Page{
		Total: 5,
		Results: []search.Result{
			{Index: 0, Entry: history.Entry{Text: "pinned", Pinned: true}, Preview: "pinned", Age: "2d ago"},
			{Index: 1, Entry: history.Entry{Text: "fav", Favorite: true}, Preview: "fav", Age: "3h ago"},
			{Index: 2, Entry: history.Entry{Text: "plain", Timestamp: now}, Preview: "plain", Age: "just now"},
		},
	}
	var buf bytes.Buffer
	renderResults(&buf, page)
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "P")
	assert.Contains(t, lines[0], "pinned")
	assert.Contains(t, lines[1], "*")
	assert.Contains(t, lines[2], "just now")
	assert.Contains(t, lines[3], "(2 more…)")

	buf.Reset()
	renderResults(&buf, &search.Page{})
	assert.Equal(t, "No entries.\n", buf.String())
}

// runCLI executes the root command against the daemon on sock.
func runCLI(t *testing.T, sock string, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--socket", sock))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func startDaemon(t *testing.T) (string, *clip.Memory) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg := vault.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.SaveDelay = time.Hour
	cfg.PollInterval = time.Hour
	mem := clip.NewMemory()
	v := vault.New(cfg, mem)
	t.Cleanup(v.Close)

	dir, err := os.MkdirTemp("", "cv")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	sock := filepath.Join(dir, "s.sock")
	ln, err := ipc.Listen(sock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ipc.NewServer(v, "test", sock).Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return sock, mem
}

func TestCLI_EndToEnd(t *testing.T) {
	sock, mem := startDaemon(t)

	_, err := runCLI(t, sock, "", "add", "first", "copy")
	require.NoError(t, err)
	_, err = runCLI(t, sock, "second copy\n", "add")
	require.NoError(t, err)
	out, err := runCLI(t, sock, "", "add", "   ")
	require.NoError(t, err)
	assert.Contains(t, out, "Ignored")

	_, err = runCLI(t, sock, "", "pin", "first", "copy")
	require.NoError(t, err)
	out, err = runCLI(t, sock, "", "pin", "first copy")
	require.NoError(t, err)
	assert.Contains(t, out, "Unchanged.")

	out, err = runCLI(t, sock, "", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first copy")
	assert.Contains(t, lines[1], "second copy")

	out, err = runCLI(t, sock, "", "search", "SECOND")
	require.NoError(t, err)
	assert.Contains(t, out, "second copy")
	assert.NotContains(t, out, "first copy")

	out, err = runCLI(t, sock, "", "activate", "--index", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "second copy")
	got, _ := mem.ReadText(context.Background())
	assert.Equal(t, "second copy", got)

	out, err = runCLI(t, sock, "", "max-items", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "max items: 5")
	_, err = runCLI(t, sock, "", "max-items", "zero")
	assert.Error(t, err)

	out, err = runCLI(t, sock, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "2 / 5 (pinned 1, favorites 0)")

	_, err = runCLI(t, sock, "", "favorite", "nope")
	assert.Error(t, err)

	_, err = runCLI(t, sock, "", "clear")
	require.NoError(t, err)
	out, err = runCLI(t, sock, "", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 0`)
}

func TestCLI_DaemonNotRunning(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	sock := filepath.Join(t.TempDir(), "absent.sock")
	_, err := runCLI(t, sock, "", "list")
	assert.ErrorIs(t, err, errNotRunning)
}

func TestVersion(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "clipvault dev\n", out.String())
}

func TestEverySubcommandHasHelp(t *testing.T) {
	for _, c := range newRootCmd().Commands() {
		assert.NotEmpty(t, c.Short, c.Name())
	}
}
