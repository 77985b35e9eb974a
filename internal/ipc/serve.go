package ipc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/soheilhy/cmux"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// Serve answers gRPC and HTTP/1 requests on ln until ctx is cancelled or ln
// fails. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := cmux.New(ln)
	grpcLn := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldPrefixSendSettings("content-type", "application/grpc"))
	httpLn := m.Match(cmux.HTTP1Fast())

	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	gs.RegisterService(&serviceDesc, s)
	hs := &http.Server{Handler: s.httpHandler(), ReadHeaderTimeout: 5 * time.Second}

	g := new(errgroup.Group)
	g.Go(func() error { return ignoreClosed(gs.Serve(grpcLn)) })
	g.Go(func() error { return ignoreClosed(hs.Serve(httpLn)) })
	g.Go(func() error {
		defer cancel()
		return ignoreClosed(m.Serve())
	})
	g.Go(func() error {
		<-ctx.Done()
		gs.Stop()
		_ = hs.Close()
		return ignoreClosed(ln.Close())
	})

	slog.Info("ipc listening", "addr", ln.Addr().String())
	err := g.Wait()
	slog.Info("ipc stopped")
	return err
}

func ignoreClosed(err error) error {
	switch {
	case err == nil,
		errors.Is(err, net.ErrClosed),
		errors.Is(err, http.ErrServerClosed),
		errors.Is(err, grpc.ErrServerStopped),
		errors.Is(err, cmux.ErrListenerClosed):
		return nil
	}
	return err
}
