package submissions

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/latency"
	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/proctor/session"
)

const (
	minCodeLength       = 20
	relevanceCheckAfter = 50
	syntaxErrorMarker   = "syntaxError"
	compileErrorOutput  = "Error: Compilation failed\nline 1: unexpected token"
	acceptedOutput      = "Test cases passed: 3/3"
	rerunOutput         = "Re-evaluated: Test cases passed 3/3"
	flagTabSwitchLimit  = 2
)

var runOutputs = map[models.Language]string{
	models.LanguageCPP:    "// Program executed successfully\n[0, 1]\n[1, 2]\n[0, 1]",
	models.LanguagePython: "# Program executed successfully\n[0, 1]\n[1, 2]\n[0, 1]",
	models.LanguageJava:   "// Program executed successfully\n[0, 1]",
	models.LanguageC:      "// Program executed successfully\n0 1",
}

// SubmissionsRepository defines what the app layer needs from the repository
type SubmissionsRepository interface {
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	GetSubmissionByStudent(ctx context.Context, studentID string) (*models.Submission, error)
	ListSubmissions(ctx context.Context) ([]*models.Submission, error)
	UpdateSubmission(ctx context.Context, id uuid.UUID, fn func(*models.Submission)) (*models.Submission, error)
}

// SessionLookup finds the live proctoring session of a student.
type SessionLookup interface {
	Get(studentID string) (*session.State, error)
}

// StudentDirectory is what submissions need from the students app.
type StudentDirectory interface {
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	ListStudents(ctx context.Context) ([]*models.Student, error)
	MarkSubmitted(ctx context.Context, studentID string) error
}

// QuestionLookup resolves question details.
type QuestionLookup interface {
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
}

// App handles submissions, mock runs and grading
type App struct {
	repo      SubmissionsRepository
	sessions  SessionLookup
	students  StudentDirectory
	questions QuestionLookup
	clock     clockwork.Clock
	latency   *latency.Simulator

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewApp creates a new submissions App
func NewApp(repo SubmissionsRepository, sessions SessionLookup, students StudentDirectory, questions QuestionLookup, clock clockwork.Clock, sim *latency.Simulator, rng *rand.Rand) *App {
	return &App{
		repo:      repo,
		sessions:  sessions,
		students:  students,
		questions: questions,
		clock:     clock,
		latency:   sim,
		rng:       rng,
	}
}

// between returns a uniform integer in [lo, hi].
func (a *App) between(lo, hi int) int {
	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return lo + a.rng.IntN(hi-lo+1)
}

// ValidateCode rejects code that is too short, or long code that mentions
// none of the question's keywords.
func ValidateCode(code string, q *models.Question) error {
	if len(strings.TrimSpace(code)) < minCodeLength {
		return fmt.Errorf("%w: code is too short, write a complete solution", ErrInvalidCode)
	}
	if q == nil || len(q.Keywords) == 0 {
		return nil
	}
	lower := strings.ToLower(code)
	for _, kw := range q.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return nil
		}
	}
	if len(code) > relevanceCheckAfter {
		return fmt.Errorf("%w: code does not appear to address %q", ErrInvalidCode, q.Title)
	}
	return nil
}

// Submit validates the student's editor buffer and locks their session.
func (a *App) Submit(ctx context.Context, studentID string) (*models.Submission, error) {
	student, err := a.students.GetStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	state, err := a.sessions.Get(studentID)
	if err != nil {
		return nil, err
	}
	if _, err := a.repo.GetSubmissionByStudent(ctx, studentID); err == nil {
		return nil, ErrAlreadySubmitted
	}
	q, err := a.questions.GetQuestion(ctx, student.AssignedQuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if err := a.latency.Wait(ctx, latency.Submit); err != nil {
		return nil, err
	}

	final, err := state.Submit(func(code string, _ models.Language) error {
		return ValidateCode(code, q)
	})
	if err != nil {
		return nil, err
	}

	sub := a.fromFinal(final, student.AssignedQuestionID)
	sub.Status = models.SubmissionStatusAccepted
	sub.ExecutionTimeMs = a.between(20, 119)
	sub.Output = acceptedOutput
	sub.Score = a.between(80, 99)
	sub.PlagiarismScore = a.between(0, 14)

	if err := a.store(ctx, sub); err != nil {
		return nil, err
	}
	log.Info().
		Str("student_id", studentID).
		Str("submission_id", sub.ID.String()).
		Int("score", sub.Score).
		Int("tab_switches", sub.TabSwitches).
		Msg("Submission accepted")
	return sub, nil
}

// AutoSubmit records the buffer of a session locked by contest expiry.
func (a *App) AutoSubmit(ctx context.Context, final session.FinalState) error {
	studentID := final.Snapshot.Student.ID
	if _, err := a.repo.GetSubmissionByStudent(ctx, studentID); err == nil {
		return ErrAlreadySubmitted
	}
	sub := a.fromFinal(final, final.Snapshot.Student.AssignedQuestionID)
	sub.Status = models.SubmissionStatusPending
	sub.AutoSubmitted = true
	return a.store(ctx, sub)
}

func (a *App) fromFinal(final session.FinalState, questionID string) *models.Submission {
	return &models.Submission{
		ID:          uuid.New(),
		StudentID:   final.Snapshot.Student.ID,
		QuestionID:  questionID,
		Code:        final.Code,
		Language:    final.Language,
		SubmittedAt: a.clock.Now(),
		Warnings:    final.Snapshot.Violations,
		TabSwitches: final.Snapshot.TabSwitchCount,
	}
}

func (a *App) store(ctx context.Context, sub *models.Submission) error {
	if err := a.repo.CreateSubmission(ctx, sub); err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	if err := a.students.MarkSubmitted(ctx, sub.StudentID); err != nil {
		log.Warn().Err(err).Str("student_id", sub.StudentID).Msg("Failed to mark student submitted")
	}
	return nil
}

// Run executes the editor buffer against the mock judge.
func (a *App) Run(ctx context.Context, studentID string) (*models.RunResult, error) {
	state, err := a.sessions.Get(studentID)
	if err != nil {
		return nil, err
	}
	if err := state.CheckEditable(); err != nil {
		return nil, err
	}
	if err := a.latency.Wait(ctx, latency.Run); err != nil {
		return nil, err
	}

	code, lang := state.Code()
	res := &models.RunResult{ExecutionTimeMs: a.between(20, 99)}
	if strings.Contains(code, syntaxErrorMarker) || len(strings.TrimSpace(code)) < minCodeLength {
		res.Status = models.RunStatusError
		res.Error = compileErrorOutput
	} else {
		res.Status = models.RunStatusSuccess
		res.Output = runOutputs[lang]
	}
	log.Debug().
		Str("student_id", studentID).
		Str("language", string(lang)).
		Str("status", string(res.Status)).
		Msg("Code run")
	return res, nil
}

// List returns submissions matching f.
func (a *App) List(ctx context.Context, f Filter) ([]*View, error) {
	subs, err := a.repo.ListSubmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]*View, 0, len(subs))
	for _, sub := range subs {
		if f.Status != "" && sub.Status != f.Status {
			continue
		}
		v := a.view(ctx, sub)
		if search != "" &&
			!strings.Contains(strings.ToLower(v.StudentName), search) &&
			!strings.Contains(strings.ToLower(v.RollNo), search) {
			continue
		}
		out = append(out, v)
	}

	switch f.Sort {
	case SortByScore:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	case SortByPlagiarism:
		sort.SliceStable(out, func(i, j int) bool { return out[i].PlagiarismScore > out[j].PlagiarismScore })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	}
	return out, nil
}

func (a *App) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	sub, err := a.repo.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.view(ctx, sub), nil
}

func (a *App) view(ctx context.Context, sub *models.Submission) *View {
	v := &View{Submission: *sub, StudentName: sub.StudentID}
	if s, err := a.students.GetStudent(ctx, sub.StudentID); err == nil {
		v.StudentName = s.Name
		v.RollNo = s.RollNo
	}
	if q, err := a.questions.GetQuestion(ctx, sub.QuestionID); err == nil {
		v.QuestionTitle = q.Title
	}
	return v
}

// Grade overrides the score of a submission.
func (a *App) Grade(ctx context.Context, id uuid.UUID, score int) (*models.Submission, error) {
	if score < 0 || score > 100 {
		return nil, ErrInvalidScore
	}
	sub, err := a.repo.UpdateSubmission(ctx, id, func(s *models.Submission) {
		s.Score = score
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("submission_id", id.String()).Int("score", score).Msg("Submission graded")
	return sub, nil
}

// ToggleFlag moves a submission between flagged and accepted.
func (a *App) ToggleFlag(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	sub, err := a.repo.UpdateSubmission(ctx, id, func(s *models.Submission) {
		if s.Status == models.SubmissionStatusFlagged {
			s.Status = models.SubmissionStatusAccepted
		} else {
			s.Status = models.SubmissionStatusFlagged
		}
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("submission_id", id.String()).Str("status", string(sub.Status)).Msg("Submission flag toggled")
	return sub, nil
}

// Rerun re-evaluates a submission against the mock judge.
func (a *App) Rerun(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	if _, err := a.repo.GetSubmission(ctx, id); err != nil {
		return nil, err
	}
	if err := a.latency.Wait(ctx, latency.Rerun); err != nil {
		return nil, err
	}
	execMs := a.between(15, 94)
	return a.repo.UpdateSubmission(ctx, id, func(s *models.Submission) {
		s.Status = models.SubmissionStatusAccepted
		s.ExecutionTimeMs = execMs
		s.Output = rerunOutput
	})
}

// Analytics aggregates the dashboard counters.
func (a *App) Analytics(ctx context.Context) (*Analytics, error) {
	students, err := a.students.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	subs, err := a.repo.ListSubmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	out := &Analytics{TotalStudents: len(students), TotalSubmissions: len(subs)}
	total := 0
	for _, sub := range subs {
		total += sub.Score
		for _, w := range sub.Warnings {
			out.TotalWarnings += w.Count
		}
		if sub.TabSwitches > flagTabSwitchLimit {
			out.Flagged++
		}
	}
	if len(subs) > 0 {
		out.AverageScore = float64(total) / float64(len(subs))
	}
	return out, nil
}
