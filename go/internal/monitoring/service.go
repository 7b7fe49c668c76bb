// Package monitoring exposes live proctoring sessions to the admin dashboard.
package monitoring

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mcdev12/proctor/go/internal/proctor/session"
	"github.com/mcdev12/proctor/go/internal/rpcutil"
)

// ServiceName is the Connect service name.
const ServiceName = "proctor.v1.MonitoringService"

// Sessions is the read side of the session manager.
type Sessions interface {
	List() []session.Snapshot
	Get(studentID string) (*session.State, error)
}

type ListSessionsRequest struct{}

type ListSessionsResponse struct {
	Sessions []session.Snapshot `json:"sessions"`
}

type GetSessionRequest struct {
	StudentID string `json:"student_id"`
}

type GetSessionResponse struct {
	Session session.Snapshot `json:"session"`
}

// Service implements the MonitoringService Connect interface
type Service struct {
	sessions Sessions
}

func NewService(sessions Sessions) *Service {
	return &Service{sessions: sessions}
}

func (s *Service) ListSessions(ctx context.Context, req *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	return connect.NewResponse(&ListSessionsResponse{Sessions: s.sessions.List()}), nil
}

func (s *Service) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[GetSessionResponse], error) {
	state, err := s.sessions.Get(req.Msg.StudentID)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, rpcutil.Mapping{Err: session.ErrNotFound, Code: connect.CodeNotFound})
	}
	return connect.NewResponse(&GetSessionResponse{Session: state.Snapshot()}), nil
}

// NewHandler mounts the service's procedures.
func NewHandler(s *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpcutil.HandlerOptions(opts...)
	mux := rpcutil.NewServiceMux(ServiceName)
	mux.Handle("ListSessions", connect.NewUnaryHandler(mux.Procedure("ListSessions"), s.ListSessions, opts...))
	mux.Handle("GetSession", connect.NewUnaryHandler(mux.Procedure("GetSession"), s.GetSession, opts...))
	return mux.Path()
}
