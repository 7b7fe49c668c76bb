package contest

import (
	"context"
	"net/http"
	"strconv"

	"connectrpc.com/connect"

	"github.com/mcdev12/proctor/go/internal/proctor/session"
	"github.com/mcdev12/proctor/go/internal/rpcutil"
)

// ServiceName is the Connect service name.
const ServiceName = "proctor.v1.ContestService"

// AttemptsRemainingHeader carries the passkey attempts left on failure.
const AttemptsRemainingHeader = "X-Attempts-Remaining"

// ContestApp defines what the service layer needs from the contest application
type ContestApp interface {
	GetSettings(ctx context.Context) (*SettingsView, error)
	VerifyPasskey(ctx context.Context, studentID, key string) (*session.State, int, error)
	AdminLogin(ctx context.Context, username, password string) (string, error)
	UpdateSettings(ctx context.Context, in UpdateSettingsInput) (*SettingsView, error)
	Extend(ctx context.Context, minutes int) (*SettingsView, error)
	Reduce(ctx context.Context, minutes int) (*SettingsView, error)
	Restart(ctx context.Context, durationMinutes int) (*SettingsView, error)
	EndNow(ctx context.Context) (*SettingsView, error)
}

// Service implements the ContestService Connect interface
type Service struct {
	app ContestApp
}

// NewService creates a new contest service
func NewService(app ContestApp) *Service {
	return &Service{app: app}
}

var errorMappings = []rpcutil.Mapping{
	{Err: ErrInvalidPasskey, Code: connect.CodePermissionDenied},
	{Err: ErrTooManyAttempts, Code: connect.CodeResourceExhausted},
	{Err: ErrInvalidCredentials, Code: connect.CodeUnauthenticated},
	{Err: ErrInvalidSettings, Code: connect.CodeInvalidArgument},
	{Err: ErrUnknownStudent, Code: connect.CodeNotFound},
}

func (s *Service) GetSettings(ctx context.Context, req *connect.Request[GetSettingsRequest]) (*connect.Response[GetSettingsResponse], error) {
	v, err := s.app.GetSettings(ctx)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&GetSettingsResponse{Contest: *v}), nil
}

func (s *Service) VerifyPasskey(ctx context.Context, req *connect.Request[VerifyPasskeyRequest]) (*connect.Response[VerifyPasskeyResponse], error) {
	state, remaining, err := s.app.VerifyPasskey(ctx, req.Msg.StudentID, req.Msg.PassKey)
	if err != nil {
		cerr := rpcutil.ToConnectError(err, errorMappings...)
		if ce, ok := cerr.(*connect.Error); ok && remaining > 0 {
			ce.Meta().Set(AttemptsRemainingHeader, strconv.Itoa(remaining))
		}
		return nil, cerr
	}
	return connect.NewResponse(&VerifyPasskeyResponse{
		Session:           state.Snapshot(),
		AttemptsRemaining: remaining,
	}), nil
}

func (s *Service) AdminLogin(ctx context.Context, req *connect.Request[AdminLoginRequest]) (*connect.Response[AdminLoginResponse], error) {
	username, err := s.app.AdminLogin(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&AdminLoginResponse{Username: username}), nil
}

func (s *Service) UpdateSettings(ctx context.Context, req *connect.Request[UpdateSettingsRequest]) (*connect.Response[SettingsResponse], error) {
	return respond(s.app.UpdateSettings(ctx, req.Msg.Update))
}

func (s *Service) Extend(ctx context.Context, req *connect.Request[AdjustDurationRequest]) (*connect.Response[SettingsResponse], error) {
	return respond(s.app.Extend(ctx, req.Msg.Minutes))
}

func (s *Service) Reduce(ctx context.Context, req *connect.Request[AdjustDurationRequest]) (*connect.Response[SettingsResponse], error) {
	return respond(s.app.Reduce(ctx, req.Msg.Minutes))
}

func (s *Service) Restart(ctx context.Context, req *connect.Request[RestartRequest]) (*connect.Response[SettingsResponse], error) {
	return respond(s.app.Restart(ctx, req.Msg.DurationMinutes))
}

func (s *Service) EndNow(ctx context.Context, req *connect.Request[EndNowRequest]) (*connect.Response[SettingsResponse], error) {
	return respond(s.app.EndNow(ctx))
}

func respond(v *SettingsView, err error) (*connect.Response[SettingsResponse], error) {
	if err != nil {
		return nil, rpcutil.ToConnectError(err, errorMappings...)
	}
	return connect.NewResponse(&SettingsResponse{Contest: *v}), nil
}

// NewHandler mounts the service's procedures.
func NewHandler(s *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpcutil.HandlerOptions(opts...)
	mux := rpcutil.NewServiceMux(ServiceName)
	mux.Handle("GetSettings", connect.NewUnaryHandler(mux.Procedure("GetSettings"), s.GetSettings, opts...))
	mux.Handle("VerifyPasskey", connect.NewUnaryHandler(mux.Procedure("VerifyPasskey"), s.VerifyPasskey, opts...))
	mux.Handle("AdminLogin", connect.NewUnaryHandler(mux.Procedure("AdminLogin"), s.AdminLogin, opts...))
	mux.Handle("UpdateSettings", connect.NewUnaryHandler(mux.Procedure("UpdateSettings"), s.UpdateSettings, opts...))
	mux.Handle("Extend", connect.NewUnaryHandler(mux.Procedure("Extend"), s.Extend, opts...))
	mux.Handle("Reduce", connect.NewUnaryHandler(mux.Procedure("Reduce"), s.Reduce, opts...))
	mux.Handle("Restart", connect.NewUnaryHandler(mux.Procedure("Restart"), s.Restart, opts...))
	mux.Handle("EndNow", connect.NewUnaryHandler(mux.Procedure("EndNow"), s.EndNow, opts...))
	return mux.Path()
}
