package contest

import (
	"context"
	"sync"

	"github.com/mcdev12/proctor/go/internal/models"
)

// Repository holds the contest configuration in memory.
type Repository struct {
	mu       sync.RWMutex
	settings models.ContestSettings
	admins   []AdminCredential
	attempts map[string]int
}

// NewRepository creates a repository with the initial settings and admins.
func NewRepository(settings models.ContestSettings, admins []AdminCredential) *Repository {
	return &Repository{
		settings: settings,
		admins:   append([]AdminCredential(nil), admins...),
		attempts: make(map[string]int),
	}
}

func (r *Repository) GetSettings(ctx context.Context) (models.ContestSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings, nil
}

// UpdateSettings applies fn to the settings atomically and returns the
// settings before and after.
func (r *Repository) UpdateSettings(ctx context.Context, fn func(*models.ContestSettings) error) (before, after models.ContestSettings, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before = r.settings
	next := r.settings
	if err := fn(&next); err != nil {
		return before, before, err
	}
	r.settings = next
	return before, next, nil
}

func (r *Repository) ListAdmins(ctx context.Context) ([]AdminCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]AdminCredential(nil), r.admins...), nil
}

func (r *Repository) FailedAttempts(ctx context.Context, studentID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.attempts[studentID], nil
}

func (r *Repository) RecordFailedAttempt(ctx context.Context, studentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[studentID]++
	return r.attempts[studentID], nil
}

func (r *Repository) ResetAttempts(ctx context.Context, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, studentID)
	return nil
}
