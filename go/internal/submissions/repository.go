package submissions

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mcdev12/proctor/go/internal/models"
)

// Repository keeps submissions in memory in arrival order. A student has at
// most one submission.
type Repository struct {
	mu        sync.RWMutex
	order     []uuid.UUID
	byID      map[uuid.UUID]*models.Submission
	byStudent map[string]uuid.UUID
}

func NewRepository() *Repository {
	return &Repository{
		byID:      make(map[uuid.UUID]*models.Submission),
		byStudent: make(map[string]uuid.UUID),
	}
}

// CreateSubmission stores sub, failing if the student already has one.
func (r *Repository) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byStudent[sub.StudentID]; ok {
		return ErrAlreadySubmitted
	}
	c := clone(sub)
	r.byID[sub.ID] = c
	r.byStudent[sub.StudentID] = sub.ID
	r.order = append(r.order, sub.ID)
	return nil
}

func (r *Repository) GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return clone(sub), nil
}

func (r *Repository) GetSubmissionByStudent(ctx context.Context, studentID string) (*models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byStudent[studentID]
	if !ok {
		return nil, fmt.Errorf("submission for %s: %w", studentID, ErrNotFound)
	}
	return clone(r.byID[id]), nil
}

func (r *Repository) ListSubmissions(ctx context.Context) ([]*models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Submission, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.byID[id]))
	}
	return out, nil
}

// UpdateSubmission applies fn to a stored submission.
func (r *Repository) UpdateSubmission(ctx context.Context, id uuid.UUID, fn func(*models.Submission)) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	fn(sub)
	return clone(sub), nil
}

func clone(s *models.Submission) *models.Submission {
	c := *s
	c.Warnings = append([]models.ViolationRecord(nil), s.Warnings...)
	return &c
}
