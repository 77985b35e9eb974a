package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipvault/internal/ipc"
)

const callTimeout = 10 * time.Second

var errNotRunning = errors.New("clipvault daemon is not running")

// clientFlags is the viper instance shared by the small client commands.
type clientFlags struct {
	v   *viper.Viper
	cmd *cobra.Command
}

// newClientCmd builds a command that talks to the daemon. run receives a
// connected client and a context bounded by callTimeout.
func newClientCmd(use, short string, args cobra.PositionalArgs, run func(context.Context, *clientFlags, *ipc.Client, []string) error) (*cobra.Command, *clientFlags) {
	cf := &clientFlags{v: viper.New()}
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Args:    args,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, cf.v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			cf.cmd = cmd
			return withClient(cmd.Context(), cf.v, callTimeout, func(ctx context.Context, c *ipc.Client) error {
				return run(ctx, cf, c, args)
			})
		},
	}
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	return cmd, cf
}

// withClient dials the daemon and runs fn. timeout <= 0 means no deadline.
func withClient(ctx context.Context, v *viper.Viper, timeout time.Duration, fn func(context.Context, *ipc.Client) error) error {
	path := socketPath(v)
	if !ipc.IsRunning(path) {
		return fmt.Errorf("%w at %s (start it with \"clipvault daemon\")", errNotRunning, path)
	}
	c, err := ipc.Dial(path)
	if err != nil {
		return err
	}
	defer c.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx, c)
}

// textArg joins args, or reads stdin when there are none or the only
// argument is "-".
func textArg(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

func (cf *clientFlags) stdout() io.Writer {
	if cf.cmd != nil {
		return cf.cmd.OutOrStdout()
	}
	return os.Stdout
}

func (cf *clientFlags) stdin() io.Reader {
	if cf.cmd != nil {
		return cf.cmd.InOrStdin()
	}
	return os.Stdin
}
