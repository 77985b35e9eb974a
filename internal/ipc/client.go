package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.klb.dev/clipvault/internal/search"
)

// Client calls a running daemon over the IPC socket.
type Client struct {
	conn *grpc.ClientConn
}

// Dial returns a client for the daemon listening on path. The connection is
// established lazily on the first call; use IsRunning to probe first.
// No auth is needed: the socket is local and owner-restricted.
func Dial(path string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix:"+path,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp)
}

// List returns up to limit entries in display order; limit <= 0 means all.
func (c *Client) List(ctx context.Context, limit int) (*ListResponse, error) {
	resp := new(ListResponse)
	if err := c.invoke(ctx, "List", &ListRequest{Limit: limit}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Search(ctx context.Context, query string, mode search.Mode, limit int) (*SearchResponse, error) {
	resp := new(SearchResponse)
	req := &SearchRequest{Query: query, Mode: mode, Limit: limit}
	if err := c.invoke(ctx, "Search", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Add records text as a capture. It reports false when the daemon ignored
// the text.
func (c *Client) Add(ctx context.Context, text string) (bool, error) {
	resp := new(AddResponse)
	if err := c.invoke(ctx, "Add", &AddRequest{Text: text}, resp); err != nil {
		return false, err
	}
	return resp.Added, nil
}

// Activate writes text to the clipboard through the daemon.
func (c *Client) Activate(ctx context.Context, text string) error {
	return c.invoke(ctx, "Activate", &ActivateRequest{Text: text}, new(ActivateResponse))
}

// ActivateIndex activates the entry at position i and returns its text.
func (c *Client) ActivateIndex(ctx context.Context, i int) (string, error) {
	resp := new(ActivateResponse)
	if err := c.invoke(ctx, "Activate", &ActivateRequest{Index: &i}, resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (c *Client) SetPinned(ctx context.Context, text string, on bool) (bool, error) {
	return c.setFlag(ctx, "SetPinned", text, on)
}

func (c *Client) SetFavorite(ctx context.Context, text string, on bool) (bool, error) {
	return c.setFlag(ctx, "SetFavorite", text, on)
}

func (c *Client) setFlag(ctx context.Context, method, text string, on bool) (bool, error) {
	resp := new(SetFlagResponse)
	if err := c.invoke(ctx, method, &SetFlagRequest{Text: text, On: on}, resp); err != nil {
		return false, err
	}
	return resp.Changed, nil
}

func (c *Client) Clear(ctx context.Context) error {
	return c.invoke(ctx, "Clear", &ClearRequest{}, new(ClearResponse))
}

// SetMaxItems changes the capacity and returns the value now in effect.
func (c *Client) SetMaxItems(ctx context.Context, n int) (int, error) {
	resp := new(SetMaxItemsResponse)
	if err := c.invoke(ctx, "SetMaxItems", &SetMaxItemsRequest{MaxItems: n}, resp); err != nil {
		return 0, err
	}
	return resp.MaxItems, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	resp := new(StatusResponse)
	if err := c.invoke(ctx, "Status", &StatusRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Watch streams history snapshots to fn, starting with the current one,
// until ctx is cancelled, the daemon stops or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(*WatchResponse) error) error {
	stream, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], "/"+ServiceName+"/Watch")
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&WatchRequest{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		ev := new(WatchResponse)
		if err := stream.RecvMsg(ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}
