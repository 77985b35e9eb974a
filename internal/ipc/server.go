package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.klb.dev/clipvault/internal/history"
	"go.klb.dev/clipvault/internal/hub"
	"go.klb.dev/clipvault/internal/search"
	"go.klb.dev/clipvault/internal/vault"
)

// Vault is the part of *vault.Vault the server exposes.
type Vault interface {
	Items() []history.Entry
	Search(query string, opts search.Options) search.Page
	Add(text string) bool
	Activate(text string) error
	ActivateIndex(i int) (string, error)
	SetPinned(text string, pinned bool) (bool, error)
	SetFavorite(text string, favorite bool) (bool, error)
	Clear()
	SetMaxItems(n int)
	Status() vault.Status
	Watch(w hub.Watcher)
	Unwatch(w hub.Watcher)
}

// Server implements the clipvault.v1.Vault service.
type Server struct {
	v         Vault
	version   string
	socket    string
	instance  string
	startedAt time.Time
	watchSeq  atomic.Uint64
}

// NewServer returns a Server backed by v. version and socket are reported
// by Status.
func NewServer(v Vault, version, socket string) *Server {
	return &Server{
		v:         v,
		version:   version,
		socket:    socket,
		instance:  uuid.NewString(),
		startedAt: time.Now(),
	}
}

func (s *Server) list(_ context.Context, req *ListRequest) (*ListResponse, error) {
	items := s.v.Items()
	resp := &ListResponse{Total: len(items), Items: items}
	if req.Limit > 0 && len(items) > req.Limit {
		resp.Items = items[:req.Limit]
	}
	return resp, nil
}

func (s *Server) search(_ context.Context, req *SearchRequest) (*SearchResponse, error) {
	page := s.v.Search(req.Query, search.Options{Mode: req.Mode, Limit: req.Limit})
	return &page, nil
}

func (s *Server) add(_ context.Context, req *AddRequest) (*AddResponse, error) {
	return &AddResponse{Added: s.v.Add(req.Text)}, nil
}

func (s *Server) activate(_ context.Context, req *ActivateRequest) (*ActivateResponse, error) {
	if req.Index != nil {
		text, err := s.v.ActivateIndex(*req.Index)
		if err != nil {
			return nil, toStatus(err)
		}
		return &ActivateResponse{Text: text}, nil
	}
	if err := s.v.Activate(req.Text); err != nil {
		return nil, toStatus(err)
	}
	return &ActivateResponse{Text: req.Text}, nil
}

func (s *Server) setPinned(_ context.Context, req *SetFlagRequest) (*SetFlagResponse, error) {
	changed, err := s.v.SetPinned(req.Text, req.On)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SetFlagResponse{Changed: changed}, nil
}

func (s *Server) setFavorite(_ context.Context, req *SetFlagRequest) (*SetFlagResponse, error) {
	changed, err := s.v.SetFavorite(req.Text, req.On)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SetFlagResponse{Changed: changed}, nil
}

func (s *Server) clear(_ context.Context, _ *ClearRequest) (*ClearResponse, error) {
	s.v.Clear()
	return &ClearResponse{}, nil
}

func (s *Server) setMaxItems(_ context.Context, req *SetMaxItemsRequest) (*SetMaxItemsResponse, error) {
	if req.MaxItems < 1 {
		return nil, status.Errorf(codes.InvalidArgument, "max items must be at least 1, got %d", req.MaxItems)
	}
	s.v.SetMaxItems(req.MaxItems)
	return &SetMaxItemsResponse{MaxItems: s.v.Status().MaxItems}, nil
}

func (s *Server) status(_ context.Context, _ *StatusRequest) (*StatusResponse, error) {
	return &StatusResponse{
		Status:    s.v.Status(),
		Version:   s.version,
		Instance:  s.instance,
		PID:       os.Getpid(),
		StartedAt: s.startedAt,
		Socket:    s.socket,
	}, nil
}

func (s *Server) watch(_ *WatchRequest, stream grpc.ServerStream) error {
	w := hub.NewChanWatcher(fmt.Sprintf("watch/%d", s.watchSeq.Add(1)), 8)
	s.v.Watch(w)
	defer s.v.Unwatch(w)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-w.C():
			if err := stream.SendMsg(&ev); err != nil {
				return err
			}
		}
	}
}

// toStatus maps vault errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, vault.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, vault.ErrEmptyText):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}

// logUnary logs every call at debug level.
func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Debug("ipc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"elapsed", time.Since(start),
	)
	return resp, err
}

// ── service descriptor ─────────────────────────────────────────────────────

func unary[Req, Resp any](name string, fn func(*Server, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*Server)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(s, ctx, req.(*Req))
			})
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		unary("List", (*Server).list),
		unary("Search", (*Server).search),
		unary("Add", (*Server).add),
		unary("Activate", (*Server).activate),
		unary("SetPinned", (*Server).setPinned),
		unary("SetFavorite", (*Server).setFavorite),
		unary("Clear", (*Server).clear),
		unary("SetMaxItems", (*Server).setMaxItems),
		unary("Status", (*Server).status),
	},
	Streams: []grpc.StreamDesc{{
		StreamName:    "Watch",
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			in := new(WatchRequest)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			return srv.(*Server).watch(in, stream)
		},
	}},
	Metadata: "clipvault/v1/vault",
}
