package contest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/latency"
	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/proctor/session"
	"github.com/mcdev12/proctor/go/internal/proctor/timer"
	"github.com/mcdev12/proctor/go/internal/validation"
)

// MaxPasskeyAttempts is how many wrong passkeys a student may enter.
const MaxPasskeyAttempts = 3

// ContestRepository defines what the app layer needs from the repository
type ContestRepository interface {
	GetSettings(ctx context.Context) (models.ContestSettings, error)
	UpdateSettings(ctx context.Context, fn func(*models.ContestSettings) error) (before, after models.ContestSettings, err error)
	ListAdmins(ctx context.Context) ([]AdminCredential, error)
	FailedAttempts(ctx context.Context, studentID string) (int, error)
	RecordFailedAttempt(ctx context.Context, studentID string) (int, error)
	ResetAttempts(ctx context.Context, studentID string) error
}

// StudentLookup resolves the student entering the passkey.
type StudentLookup interface {
	GetStudent(ctx context.Context, id string) (*models.Student, error)
}

// SessionStarter opens a proctoring session once the passkey is accepted.
type SessionStarter interface {
	Start(student models.Student, endTime time.Time) *session.State
}

// EndTimeListener is told about every change to the contest end time.
type EndTimeListener interface {
	ContestEndTimeChanged(endTime time.Time)
}

// App handles contest configuration business logic
type App struct {
	repo     ContestRepository
	students StudentLookup
	sessions SessionStarter
	clock    clockwork.Clock
	latency  *latency.Simulator

	mu        sync.RWMutex
	listeners []EndTimeListener
	// endedDuration is the duration EndNow replaced, restored by Restart.
	endedDuration int
}

// NewApp creates a new contest App
func NewApp(repo ContestRepository, students StudentLookup, sessions SessionStarter, clock clockwork.Clock, sim *latency.Simulator) *App {
	return &App{
		repo:     repo,
		students: students,
		sessions: sessions,
		clock:    clock,
		latency:  sim,
	}
}

// AddEndTimeListener registers l for end time changes.
func (a *App) AddEndTimeListener(l EndTimeListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

// EndTime returns the current contest end time.
func (a *App) EndTime(ctx context.Context) (time.Time, error) {
	s, err := a.repo.GetSettings(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return s.EndTime(), nil
}

// GetSettings returns the settings with the countdown derived at now.
func (a *App) GetSettings(ctx context.Context) (*SettingsView, error) {
	s, err := a.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return a.view(s), nil
}

func (a *App) view(s models.ContestSettings) *SettingsView {
	remaining := timer.Remaining(s.EndTime(), a.clock.Now())
	return &SettingsView{
		Settings:         s,
		EndTime:          s.EndTime(),
		SecondsRemaining: remaining,
		Formatted:        timer.Format(remaining),
		Urgency:          timer.UrgencyFor(remaining),
		ProgressPercent:  timer.Progress(time.Duration(s.DurationMinutes)*time.Minute, remaining),
	}
}

// VerifyPasskey checks a student's passkey and starts their session. The
// comparison ignores surrounding space and case.
func (a *App) VerifyPasskey(ctx context.Context, studentID, key string) (*session.State, int, error) {
	if err := a.latency.Wait(ctx, latency.Passkey); err != nil {
		return nil, 0, err
	}

	student, err := a.students.GetStudent(ctx, studentID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnknownStudent, err)
	}

	failed, err := a.repo.FailedAttempts(ctx, studentID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read attempts: %w", err)
	}
	if failed >= MaxPasskeyAttempts {
		return nil, 0, ErrTooManyAttempts
	}

	settings, err := a.repo.GetSettings(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get settings: %w", err)
	}

	if !strings.EqualFold(strings.TrimSpace(key), strings.TrimSpace(settings.PassKey)) {
		failed, err = a.repo.RecordFailedAttempt(ctx, studentID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to record attempt: %w", err)
		}
		remaining := MaxPasskeyAttempts - failed
		log.Warn().Str("student_id", studentID).Int("attempts_remaining", remaining).Msg("Wrong passkey")
		if remaining <= 0 {
			return nil, 0, ErrTooManyAttempts
		}
		return nil, remaining, ErrInvalidPasskey
	}

	if err := a.repo.ResetAttempts(ctx, studentID); err != nil {
		return nil, 0, fmt.Errorf("failed to reset attempts: %w", err)
	}
	state := a.sessions.Start(*student, settings.EndTime())
	return state, MaxPasskeyAttempts, nil
}

// AdminLogin matches the username case-insensitively and the password
// exactly.
func (a *App) AdminLogin(ctx context.Context, username, password string) (string, error) {
	admins, err := a.repo.ListAdmins(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list admins: %w", err)
	}
	for _, cred := range admins {
		if strings.EqualFold(cred.Username, username) && cred.Password == password {
			log.Info().Str("username", cred.Username).Msg("Admin logged in")
			return cred.Username, nil
		}
	}
	return "", ErrInvalidCredentials
}

// UpdateSettings applies a partial update. An empty passkey keeps the
// current one.
func (a *App) UpdateSettings(ctx context.Context, in UpdateSettingsInput) (*SettingsView, error) {
	if err := validation.Struct(ErrInvalidSettings, in); err != nil {
		return nil, err
	}
	return a.update(ctx, "update", func(s *models.ContestSettings) error {
		if in.Name != nil {
			s.Name = strings.TrimSpace(*in.Name)
		}
		if in.DurationMinutes != nil {
			s.DurationMinutes = *in.DurationMinutes
		}
		if in.PassKey != nil && strings.TrimSpace(*in.PassKey) != "" {
			s.PassKey = strings.TrimSpace(*in.PassKey)
		}
		if in.Status != nil {
			s.Status = *in.Status
		}
		if in.StartTime != nil {
			s.StartTime = *in.StartTime
		}
		return nil
	})
}

// Extend adds minutes to the contest duration.
func (a *App) Extend(ctx context.Context, minutes int) (*SettingsView, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: minutes must be positive", ErrInvalidSettings)
	}
	return a.update(ctx, "extend", func(s *models.ContestSettings) error {
		if minutes > models.MaxDurationMinutes-s.DurationMinutes {
			return fmt.Errorf("%w: duration would exceed %d minutes", ErrInvalidSettings, models.MaxDurationMinutes)
		}
		s.DurationMinutes += minutes
		return nil
	})
}

// Reduce removes minutes from the contest duration, keeping at least one.
func (a *App) Reduce(ctx context.Context, minutes int) (*SettingsView, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: minutes must be positive", ErrInvalidSettings)
	}
	return a.update(ctx, "reduce", func(s *models.ContestSettings) error {
		s.DurationMinutes = max(1, s.DurationMinutes-minutes)
		return nil
	})
}

// Restart starts the contest clock again from now. A positive
// durationMinutes replaces the duration; zero keeps it, or brings back the
// duration in force before EndNow.
func (a *App) Restart(ctx context.Context, durationMinutes int) (*SettingsView, error) {
	if durationMinutes < 0 || durationMinutes > models.MaxDurationMinutes {
		return nil, fmt.Errorf("%w: duration must be between 0 and %d minutes", ErrInvalidSettings, models.MaxDurationMinutes)
	}
	return a.update(ctx, "restart", func(s *models.ContestSettings) error {
		switch {
		case durationMinutes > 0:
			s.DurationMinutes = durationMinutes
		case s.DurationMinutes == 0:
			a.mu.RLock()
			s.DurationMinutes = a.endedDuration
			a.mu.RUnlock()
		}
		if s.DurationMinutes == 0 {
			return fmt.Errorf("%w: restart needs a duration", ErrInvalidSettings)
		}
		s.StartTime = a.clock.Now()
		s.Status = models.ContestStatusActive
		return nil
	})
}

// EndNow zeroes the duration; every live session expires on its next tick.
func (a *App) EndNow(ctx context.Context) (*SettingsView, error) {
	return a.update(ctx, "end_now", func(s *models.ContestSettings) error {
		if s.DurationMinutes > 0 {
			a.mu.Lock()
			a.endedDuration = s.DurationMinutes
			a.mu.Unlock()
		}
		s.DurationMinutes = 0
		s.Status = models.ContestStatusEnded
		return nil
	})
}

func (a *App) update(ctx context.Context, op string, fn func(*models.ContestSettings) error) (*SettingsView, error) {
	before, after, err := a.repo.UpdateSettings(ctx, fn)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("op", op).
		Int("duration_minutes", after.DurationMinutes).
		Str("status", string(after.Status)).
		Time("end_time", after.EndTime()).
		Msg("Contest settings changed")

	if !before.EndTime().Equal(after.EndTime()) {
		a.notifyEndTime(after.EndTime())
	}
	return a.view(after), nil
}

func (a *App) notifyEndTime(endTime time.Time) {
	a.mu.RLock()
	listeners := append([]EndTimeListener(nil), a.listeners...)
	a.mu.RUnlock()
	for _, l := range listeners {
		l.ContestEndTimeChanged(endTime)
	}
}
