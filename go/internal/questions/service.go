package questions

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/rpcutil"
)

// ServiceName is the Connect service name.
const ServiceName = "proctor.v1.QuestionService"

// QuestionsApp defines what the service layer needs from the questions application
type QuestionsApp interface {
	ListQuestions(ctx context.Context) ([]*models.Question, error)
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	CreateQuestion(ctx context.Context, id string, in QuestionInput) (*models.Question, error)
	UpdateQuestion(ctx context.Context, id string, in QuestionInput) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

// Service implements the QuestionService Connect interface
type Service struct {
	app QuestionsApp
}

// NewService creates a new questions service
func NewService(app QuestionsApp) *Service {
	return &Service{app: app}
}

var errorMappings = []rpcutil.Mapping{
	{Err: ErrNotFound, Code: connect.CodeNotFound},
	{Err: ErrInvalidInput, Code: connect.CodeInvalidArgument},
	{Err: ErrExists, Code: connect.CodeAlreadyExists},
	{Err: ErrEmptyBank, Code: connect.CodeFailedPrecondition},
}

func (s *Service) List(ctx context.Context, req *connect.Request[ListQuestionsRequest]) (*connect.Response[ListQuestionsResponse], error) {
	qs, err := s.app.ListQuestions(ctx)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&ListQuestionsResponse{Questions: qs}), nil
}

func (s *Service) Get(ctx context.Context, req *connect.Request[GetQuestionRequest]) (*connect.Response[GetQuestionResponse], error) {
	q, err := s.app.GetQuestion(ctx, req.Msg.ID)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&GetQuestionResponse{Question: q}), nil
}

func (s *Service) Create(ctx context.Context, req *connect.Request[CreateQuestionRequest]) (*connect.Response[CreateQuestionResponse], error) {
	q, err := s.app.CreateQuestion(ctx, req.Msg.ID, req.Msg.Question)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&CreateQuestionResponse{Question: q}), nil
}

func (s *Service) Update(ctx context.Context, req *connect.Request[UpdateQuestionRequest]) (*connect.Response[UpdateQuestionResponse], error) {
	q, err := s.app.UpdateQuestion(ctx, req.Msg.ID, req.Msg.Question)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&UpdateQuestionResponse{Question: q}), nil
}

func (s *Service) Delete(ctx context.Context, req *connect.Request[DeleteQuestionRequest]) (*connect.Response[DeleteQuestionResponse], error) {
	if err := s.app.DeleteQuestion(ctx, req.Msg.ID); err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&DeleteQuestionResponse{}), nil
}

// NewHandler mounts the service's procedures.
func NewHandler(s *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpcutil.HandlerOptions(opts...)
	mux := rpcutil.NewServiceMux(ServiceName)
	mux.Handle("List", connect.NewUnaryHandler(mux.Procedure("List"), s.List, opts...))
	mux.Handle("Get", connect.NewUnaryHandler(mux.Procedure("Get"), s.Get, opts...))
	mux.Handle("Create", connect.NewUnaryHandler(mux.Procedure("Create"), s.Create, opts...))
	mux.Handle("Update", connect.NewUnaryHandler(mux.Procedure("Update"), s.Update, opts...))
	mux.Handle("Delete", connect.NewUnaryHandler(mux.Procedure("Delete"), s.Delete, opts...))
	return mux.Path()
}
