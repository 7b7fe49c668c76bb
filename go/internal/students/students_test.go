package students

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/proctor/go/internal/latency"
	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/proctor/session"
	"github.com/mcdev12/proctor/go/internal/questions"
	"github.com/mcdev12/proctor/go/internal/rpcutil"
)

type fakeSessions struct {
	ended []string
	err   error
}

func (f *fakeSessions) End(studentID, reason string) error {
	f.ended = append(f.ended, studentID+":"+reason)
	return f.err
}

func newTestApp(t *testing.T) (*App, *fakeSessions, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	qs := questions.NewApp(questions.NewRepository([]models.Question{
		{ID: "q1", Title: "Two Sum", Difficulty: models.DifficultyEasy},
		{ID: "q2", Title: "Reverse Linked List", Difficulty: models.DifficultyEasy},
	}))
	repo := NewRepository([]models.Student{
		{ID: "s1", Name: "Aarav Sharma", Email: "aarav@csjmu.ac.in", Password: "pass123", AssignedQuestionID: "q2"},
	})
	sessions := &fakeSessions{}
	app := NewApp(repo, qs, sessions, clock, latency.Off(), rand.New(rand.NewPCG(1, 2)))
	return app, sessions, clock
}

func TestLogin_Seeded(t *testing.T) {
	app, _, clock := newTestApp(t)
	ctx := context.Background()

	s, registered, err := app.Login(ctx, LoginInput{Email: "AARAV@csjmu.ac.in", Password: "pass123", IP: "10.0.0.7", Device: "Chrome/Linux"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if registered {
		t.Error("seeded login reported as registration")
	}
	if s.ID != "s1" || s.Status != models.StudentStatusActive || s.IP != "10.0.0.7" || !s.LoginTime.Equal(clock.Now()) {
		t.Errorf("student = %+v", s)
	}

	if _, _, err := app.Login(ctx, LoginInput{Email: "aarav@csjmu.ac.in", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_DynamicRegistration(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	s, registered, err := app.Login(ctx, LoginInput{Email: "rahul.kumar99@it.example.edu", Password: "secret"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !registered {
		t.Error("expected registration")
	}
	if !strings.HasPrefix(s.ID, "dynamic_") {
		t.Errorf("ID = %q", s.ID)
	}
	if s.Name != "Rahul Kumar" {
		t.Errorf("Name = %q, want Rahul Kumar", s.Name)
	}
	if s.Branch != "Information Technology" {
		t.Errorf("Branch = %q", s.Branch)
	}
	if !strings.HasPrefix(s.RollNo, "UIET/CS/2024/") || len(s.RollNo) != len("UIET/CS/2024/123") {
		t.Errorf("RollNo = %q", s.RollNo)
	}
	if s.AssignedQuestionID != "q1" && s.AssignedQuestionID != "q2" {
		t.Errorf("AssignedQuestionID = %q", s.AssignedQuestionID)
	}

	again, registered, err := app.Login(ctx, LoginInput{Email: "Rahul.Kumar99@it.example.edu", Password: "secret"})
	if err != nil || registered || again.ID != s.ID {
		t.Errorf("re-login = %+v, %v, %v", again, registered, err)
	}
	if _, _, err := app.Login(ctx, LoginInput{Email: "rahul.kumar99@it.example.edu", Password: "other"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("re-login with wrong password error = %v", err)
	}
}

func TestLogin_Rejected(t *testing.T) {
	app, _, _ := newTestApp(t)
	tests := []struct {
		name string
		in   LoginInput
	}{
		{"empty email", LoginInput{Password: "secret"}},
		{"short password", LoginInput{Email: "new@gmail.com", Password: "abc"}},
		{"blank password", LoginInput{Email: "new@gmail.com", Password: "      "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := app.Login(context.Background(), tt.in); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestNameFromEmail(t *testing.T) {
	tests := map[string]string{
		"rahul.kumar":   "Rahul Kumar",
		"priya_singh-2": "Priya Singh",
		"12345":         "12345",
		"amit":          "Amit",
	}
	for in, want := range tests {
		if got := NameFromEmail(in); got != want {
			t.Errorf("NameFromEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBranchFromDomain(t *testing.T) {
	tests := map[string]string{
		"csjmu.ac.in":   "Computer Science",
		"gmail.com":     "Computer Science",
		"it.uiet.edu":   "Information Technology",
		"example.org":   "Computer Science",
		"cs.college.in": "Computer Science",
	}
	for in, want := range tests {
		if got := BranchFromDomain(in); got != want {
			t.Errorf("BranchFromDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogout(t *testing.T) {
	app, sessions, _ := newTestApp(t)
	ctx := context.Background()
	if _, _, err := app.Login(ctx, LoginInput{Email: "aarav@csjmu.ac.in", Password: "pass123"}); err != nil {
		t.Fatal(err)
	}

	sessions.err = session.ErrNotFound
	if err := app.Logout(ctx, "s1"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if len(sessions.ended) != 1 || sessions.ended[0] != "s1:"+session.EndReasonLogout {
		t.Errorf("ended = %v", sessions.ended)
	}
	s, _ := app.GetStudent(ctx, "s1")
	if s.Status != models.StudentStatusOffline {
		t.Errorf("Status = %q, want offline", s.Status)
	}
}

func TestGetAssignedQuestion(t *testing.T) {
	app, _, _ := newTestApp(t)
	q, err := app.GetAssignedQuestion(context.Background(), "s1")
	if err != nil || q.ID != "q2" {
		t.Fatalf("GetAssignedQuestion() = %+v, %v", q, err)
	}
	if _, err := app.GetAssignedQuestion(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown student error = %v", err)
	}
}

func TestService_LoginOverConnect(t *testing.T) {
	app, _, _ := newTestApp(t)
	mux := http.NewServeMux()
	mux.Handle(NewHandler(NewService(app)))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := connect.NewClient[LoginRequest, LoginResponse](
		srv.Client(), srv.URL+"/"+ServiceName+"/Login", rpcutil.ClientOptions()...,
	)
	req := connect.NewRequest(&LoginRequest{Email: "aarav@csjmu.ac.in", Password: "pass123"})
	req.Header().Set("X-Forwarded-For", "203.0.113.9")
	res, err := client.CallUnary(context.Background(), req)
	if err != nil {
		t.Fatalf("Login error = %v", err)
	}
	if res.Msg.Student.IP != "203.0.113.9" {
		t.Errorf("IP = %q", res.Msg.Student.IP)
	}

	_, err = client.CallUnary(context.Background(), connect.NewRequest(&LoginRequest{Email: "aarav@csjmu.ac.in", Password: "nope"}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("bad login code = %v", connect.CodeOf(err))
	}
}
