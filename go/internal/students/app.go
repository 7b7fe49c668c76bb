package students

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/latency"
	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/proctor/session"
)

// MinPasswordLength applies to dynamically registered students.
const MinPasswordLength = 4

// DefaultCompetition labels dynamically registered students.
const DefaultCompetition = "CSJMU Annual"

const rollNoFormat = "UIET/CS/2024/%03d"

// StudentsRepository defines what the app layer needs from the repository
type StudentsRepository interface {
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	GetStudentByEmail(ctx context.Context, email string) (*models.Student, error)
	ListStudents(ctx context.Context) ([]*models.Student, error)
	SaveStudent(ctx context.Context, s *models.Student) error
	UpdateStudent(ctx context.Context, id string, fn func(*models.Student)) (*models.Student, error)
}

// QuestionsApp is what students need from the question bank.
type QuestionsApp interface {
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	RandomQuestionID(ctx context.Context, rng *rand.Rand) (string, error)
}

// SessionEnder tears down a student's proctoring session on logout.
type SessionEnder interface {
	End(studentID, reason string) error
}

// App handles student login and logout
type App struct {
	repo      StudentsRepository
	questions QuestionsApp
	sessions  SessionEnder
	clock     clockwork.Clock
	latency   *latency.Simulator

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewApp creates a new students App
func NewApp(repo StudentsRepository, questions QuestionsApp, sessions SessionEnder, clock clockwork.Clock, sim *latency.Simulator, rng *rand.Rand) *App {
	return &App{
		repo:      repo,
		questions: questions,
		sessions:  sessions,
		clock:     clock,
		latency:   sim,
		rng:       rng,
	}
}

// Login signs a student in. A known email needs its exact password; an
// unknown email with a long enough password registers a new student.
func (a *App) Login(ctx context.Context, in LoginInput) (*models.Student, bool, error) {
	if err := a.latency.Wait(ctx, latency.Login); err != nil {
		return nil, false, err
	}

	email := strings.TrimSpace(in.Email)
	existing, err := a.repo.GetStudentByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Password != in.Password {
			return nil, false, ErrInvalidCredentials
		}
		s, err := a.markLoggedIn(ctx, existing.ID, in)
		return s, false, err
	case !errors.Is(err, ErrNotFound):
		return nil, false, fmt.Errorf("failed to look up student: %w", err)
	}

	if email == "" || len(strings.TrimSpace(in.Password)) < MinPasswordLength {
		return nil, false, ErrInvalidCredentials
	}

	s, err := a.register(ctx, email, in)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (a *App) markLoggedIn(ctx context.Context, id string, in LoginInput) (*models.Student, error) {
	now := a.clock.Now()
	s, err := a.repo.UpdateStudent(ctx, id, func(s *models.Student) {
		s.LoginTime = now
		s.Status = models.StudentStatusActive
		if in.IP != "" {
			s.IP = in.IP
		}
		if in.Device != "" {
			s.Device = in.Device
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update student: %w", err)
	}
	log.Info().Str("student_id", s.ID).Str("ip", s.IP).Msg("Student logged in")
	return s, nil
}

func (a *App) register(ctx context.Context, email string, in LoginInput) (*models.Student, error) {
	a.rngMu.Lock()
	questionID, err := a.questions.RandomQuestionID(ctx, a.rng)
	roll := a.rng.IntN(900) + 100
	a.rngMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to assign question: %w", err)
	}

	prefix, domain, _ := strings.Cut(email, "@")
	s := &models.Student{
		ID:                 "dynamic_" + uuid.NewString()[:8],
		Name:               NameFromEmail(prefix),
		RollNo:             fmt.Sprintf(rollNoFormat, roll),
		Branch:             BranchFromDomain(domain),
		Competition:        DefaultCompetition,
		Email:              strings.ToLower(email),
		Password:           in.Password,
		AssignedQuestionID: questionID,
		LoginTime:          a.clock.Now(),
		IP:                 in.IP,
		Device:             in.Device,
		Status:             models.StudentStatusActive,
	}
	if err := a.repo.SaveStudent(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save student: %w", err)
	}
	log.Info().
		Str("student_id", s.ID).
		Str("email", s.Email).
		Str("question_id", questionID).
		Msg("Registered new student")
	return s, nil
}

// NameFromEmail turns "rahul.kumar99" into "Rahul Kumar".
func NameFromEmail(prefix string) string {
	fields := strings.FieldsFunc(prefix, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || unicode.IsDigit(r)
	})
	for i, f := range fields {
		runes := []rune(f)
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	if len(fields) == 0 {
		return prefix
	}
	return strings.Join(fields, " ")
}

// BranchFromDomain guesses a branch from the email domain.
func BranchFromDomain(domain string) string {
	d := strings.ToLower(domain)
	switch {
	case strings.Contains(d, "csjmu"), strings.Contains(d, "gmail"), strings.Contains(d, "cs"):
		return "Computer Science"
	case strings.Contains(d, "it"):
		return "Information Technology"
	default:
		return "Computer Science"
	}
}

// Logout ends the student's session unconditionally and marks them offline.
func (a *App) Logout(ctx context.Context, studentID string) error {
	if err := a.sessions.End(studentID, session.EndReasonLogout); err != nil && !errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if _, err := a.repo.UpdateStudent(ctx, studentID, func(s *models.Student) {
		s.Status = models.StudentStatusOffline
	}); err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	log.Info().Str("student_id", studentID).Msg("Student logged out")
	return nil
}

// MarkSubmitted records that the student has submitted.
func (a *App) MarkSubmitted(ctx context.Context, studentID string) error {
	_, err := a.repo.UpdateStudent(ctx, studentID, func(s *models.Student) {
		s.Status = models.StudentStatusSubmitted
	})
	return err
}

func (a *App) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	s, err := a.repo.GetStudent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

func (a *App) ListStudents(ctx context.Context) ([]*models.Student, error) {
	return a.repo.ListStudents(ctx)
}

// GetAssignedQuestion returns the question the student must solve.
func (a *App) GetAssignedQuestion(ctx context.Context, studentID string) (*models.Question, error) {
	s, err := a.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	q, err := a.questions.GetQuestion(ctx, s.AssignedQuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assigned question: %w", err)
	}
	return q, nil
}
