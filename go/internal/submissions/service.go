package submissions

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/proctor/session"
	"github.com/mcdev12/proctor/go/internal/rpcutil"
	"github.com/mcdev12/proctor/go/internal/students"
)

// ServiceName is the Connect service name.
const ServiceName = "proctor.v1.SubmissionService"

// SubmissionsApp defines what the service layer needs from the submissions application
type SubmissionsApp interface {
	Submit(ctx context.Context, studentID string) (*models.Submission, error)
	Run(ctx context.Context, studentID string) (*models.RunResult, error)
	List(ctx context.Context, f Filter) ([]*View, error)
	Get(ctx context.Context, id uuid.UUID) (*View, error)
	Grade(ctx context.Context, id uuid.UUID, score int) (*models.Submission, error)
	ToggleFlag(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Rerun(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	Analytics(ctx context.Context) (*Analytics, error)
}

// Service implements the SubmissionService Connect interface
type Service struct {
	app SubmissionsApp
}

// NewService creates a new submissions service
func NewService(app SubmissionsApp) *Service {
	return &Service{app: app}
}

var errorMappings = []rpcutil.Mapping{
	{Err: ErrNotFound, Code: connect.CodeNotFound},
	{Err: ErrInvalidCode, Code: connect.CodeInvalidArgument},
	{Err: ErrInvalidScore, Code: connect.CodeInvalidArgument},
	{Err: ErrAlreadySubmitted, Code: connect.CodeAlreadyExists},
	{Err: students.ErrNotFound, Code: connect.CodeNotFound},
	{Err: session.ErrNotFound, Code: connect.CodeNotFound},
	{Err: session.ErrLocked, Code: connect.CodeFailedPrecondition},
	{Err: session.ErrClosed, Code: connect.CodeFailedPrecondition},
}

func (s *Service) Submit(ctx context.Context, req *connect.Request[SubmitRequest]) (*connect.Response[SubmitResponse], error) {
	sub, err := s.app.Submit(ctx, req.Msg.StudentID)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&SubmitResponse{Submission: sub}), nil
}

func (s *Service) Run(ctx context.Context, req *connect.Request[RunRequest]) (*connect.Response[RunResponse], error) {
	res, err := s.app.Run(ctx, req.Msg.StudentID)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&RunResponse{Result: res}), nil
}

func (s *Service) List(ctx context.Context, req *connect.Request[ListRequest]) (*connect.Response[ListResponse], error) {
	list, err := s.app.List(ctx, req.Msg.Filter)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&ListResponse{Submissions: list}), nil
}

func (s *Service) Get(ctx context.Context, req *connect.Request[GetRequest]) (*connect.Response[GetResponse], error) {
	v, err := s.app.Get(ctx, req.Msg.ID)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&GetResponse{Submission: v}), nil
}

func (s *Service) Grade(ctx context.Context, req *connect.Request[GradeRequest]) (*connect.Response[GradeResponse], error) {
	sub, err := s.app.Grade(ctx, req.Msg.ID, req.Msg.Score)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&GradeResponse{Submission: sub}), nil
}

func (s *Service) ToggleFlag(ctx context.Context, req *connect.Request[ToggleFlagRequest]) (*connect.Response[ToggleFlagResponse], error) {
	sub, err := s.app.ToggleFlag(ctx, req.Msg.ID)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&ToggleFlagResponse{Submission: sub}), nil
}

func (s *Service) Rerun(ctx context.Context, req *connect.Request[RerunRequest]) (*connect.Response[RerunResponse], error) {
	sub, err := s.app.Rerun(ctx, req.Msg.ID)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&RerunResponse{Submission: sub}), nil
}

func (s *Service) Analytics(ctx context.Context, req *connect.Request[AnalyticsRequest]) (*connect.Response[AnalyticsResponse], error) {
	a, err := s.app.Analytics(ctx)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&AnalyticsResponse{Analytics: a}), nil
}

// NewHandler mounts the service's procedures.
func NewHandler(s *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpcutil.HandlerOptions(opts...)
	mux := rpcutil.NewServiceMux(ServiceName)
	mux.Handle("Submit", connect.NewUnaryHandler(mux.Procedure("Submit"), s.Submit, opts...))
	mux.Handle("Run", connect.NewUnaryHandler(mux.Procedure("Run"), s.Run, opts...))
	mux.Handle("List", connect.NewUnaryHandler(mux.Procedure("List"), s.List, opts...))
	mux.Handle("Get", connect.NewUnaryHandler(mux.Procedure("Get"), s.Get, opts...))
	mux.Handle("Grade", connect.NewUnaryHandler(mux.Procedure("Grade"), s.Grade, opts...))
	mux.Handle("ToggleFlag", connect.NewUnaryHandler(mux.Procedure("ToggleFlag"), s.ToggleFlag, opts...))
	mux.Handle("Rerun", connect.NewUnaryHandler(mux.Procedure("Rerun"), s.Rerun, opts...))
	mux.Handle("Analytics", connect.NewUnaryHandler(mux.Procedure("Analytics"), s.Analytics, opts...))
	return mux.Path()
}
