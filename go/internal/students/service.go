package students

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/rpcutil"
)

// ServiceName is the Connect service name.
const ServiceName = "proctor.v1.StudentService"

// StudentsApp defines what the service layer needs from the students application
type StudentsApp interface {
	Login(ctx context.Context, in LoginInput) (*models.Student, bool, error)
	Logout(ctx context.Context, studentID string) error
	GetAssignedQuestion(ctx context.Context, studentID string) (*models.Question, error)
	ListStudents(ctx context.Context) ([]*models.Student, error)
}

// Service implements the StudentService Connect interface
type Service struct {
	app StudentsApp
}

// NewService creates a new students service
func NewService(app StudentsApp) *Service {
	return &Service{app: app}
}

var errorMappings = []rpcutil.Mapping{
	{Err: ErrNotFound, Code: connect.CodeNotFound},
	{Err: ErrInvalidCredentials, Code: connect.CodeUnauthenticated},
}

func (s *Service) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	student, registered, err := s.app.Login(ctx, LoginInput{
		Email:    req.Msg.Email,
		Password: req.Msg.Password,
		IP:       rpcutil.ClientIP(req.Header(), req.Peer().Addr),
		Device:   rpcutil.DeviceFromUserAgent(req.Header().Get("User-Agent")),
	})
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&LoginResponse{Student: student, Registered: registered}), nil
}

func (s *Service) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	if err := s.app.Logout(ctx, req.Msg.StudentID); err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&LogoutResponse{}), nil
}

func (s *Service) GetAssignedQuestion(ctx context.Context, req *connect.Request[GetAssignedQuestionRequest]) (*connect.Response[GetAssignedQuestionResponse], error) {
	q, err := s.app.GetAssignedQuestion(ctx, req.Msg.StudentID)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&GetAssignedQuestionResponse{Question: q}), nil
}

func (s *Service) List(ctx context.Context, req *connect.Request[ListStudentsRequest]) (*connect.Response[ListStudentsResponse], error) {
	list, err := s.app.ListStudents(ctx)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&ListStudentsResponse{Students: list}), nil
}

// NewHandler mounts the service's procedures.
func NewHandler(s *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpcutil.HandlerOptions(opts...)
	mux := rpcutil.NewServiceMux(ServiceName)
	mux.Handle("Login", connect.NewUnaryHandler(mux.Procedure("Login"), s.Login, opts...))
	mux.Handle("Logout", connect.NewUnaryHandler(mux.Procedure("Logout"), s.Logout, opts...))
	mux.Handle("GetAssignedQuestion", connect.NewUnaryHandler(mux.Procedure("GetAssignedQuestion"), s.GetAssignedQuestion, opts...))
	mux.Handle("List", connect.NewUnaryHandler(mux.Procedure("List"), s.List, opts...))
	return mux.Path()
}
