// Package editor accepts code and language changes for a student's session
// buffer.
package editor

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/proctor/session"
	"github.com/mcdev12/proctor/go/internal/rpcutil"
)

// ServiceName is the Connect service name.
const ServiceName = "proctor.v1.EditorService"

// SessionLookup finds the live session of a student.
type SessionLookup interface {
	Get(studentID string) (*session.State, error)
}

type UpdateCodeRequest struct {
	StudentID string `json:"student_id"`
	Code      string `json:"code"`
}

type UpdateCodeResponse struct{}

type SetLanguageRequest struct {
	StudentID string `json:"student_id"`
	Language  string `json:"language"`
}

type SetLanguageResponse struct {
	Language models.Language `json:"language"`
	Code     string          `json:"code"`
}

// Service implements the EditorService Connect interface
type Service struct {
	sessions SessionLookup
}

func NewService(sessions SessionLookup) *Service {
	return &Service{sessions: sessions}
}

var errorMappings = []rpcutil.Mapping{
	{Err: session.ErrNotFound, Code: connect.CodeNotFound},
	{Err: session.ErrLocked, Code: connect.CodeFailedPrecondition},
	{Err: session.ErrClosed, Code: connect.CodeFailedPrecondition},
}

func (s *Service) UpdateCode(ctx context.Context, req *connect.Request[UpdateCodeRequest]) (*connect.Response[UpdateCodeResponse], error) {
	state, err := s.sessions.Get(req.Msg.StudentID)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	if err := state.UpdateCode(req.Msg.Code); err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&UpdateCodeResponse{}), nil
}

func (s *Service) SetLanguage(ctx context.Context, req *connect.Request[SetLanguageRequest]) (*connect.Response[SetLanguageResponse], error) {
	lang, err := models.ParseLanguage(req.Msg.Language)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	state, err := s.sessions.Get(req.Msg.StudentID)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	if err := state.SetLanguage(lang); err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	code, lang := state.Code()
	log.Debug().Str("student_id", req.Msg.StudentID).Str("language", string(lang)).Msg("Editor language changed")
	return connect.NewResponse(&SetLanguageResponse{Language: lang, Code: code}), nil
}

// NewHandler mounts the service's procedures.
func NewHandler(s *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpcutil.HandlerOptions(opts...)
	mux := rpcutil.NewServiceMux(ServiceName)
	mux.Handle("UpdateCode", connect.NewUnaryHandler(mux.Procedure("UpdateCode"), s.UpdateCode, opts...))
	mux.Handle("SetLanguage", connect.NewUnaryHandler(mux.Procedure("SetLanguage"), s.SetLanguage, opts...))
	return mux.Path()
}
