package students

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mcdev12/proctor/go/internal/models"
)

// Repository keeps students in memory, indexed by ID and by lower-cased
// email.
type Repository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Student
	byEmail map[string]string
}

// NewRepository creates a repository holding the seeded students.
func NewRepository(seed []models.Student) *Repository {
	r := &Repository{
		byID:    make(map[string]*models.Student),
		byEmail: make(map[string]string),
	}
	for i := range seed {
		s := seed[i]
		if s.Status == "" {
			s.Status = models.StudentStatusOffline
		}
		r.byID[s.ID] = &s
		r.byEmail[strings.ToLower(s.Email)] = s.ID
	}
	return r
}

func (r *Repository) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("student %s: %w", id, ErrNotFound)
	}
	c := *s
	return &c, nil
}

func (r *Repository) GetStudentByEmail(ctx context.Context, email string) (*models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, fmt.Errorf("student %s: %w", email, ErrNotFound)
	}
	c := *r.byID[id]
	return &c, nil
}

func (r *Repository) ListStudents(ctx context.Context) ([]*models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Student, 0, len(r.byID))
	for _, s := range r.byID {
		c := *s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveStudent inserts or replaces a student.
func (r *Repository) SaveStudent(ctx context.Context, s *models.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *s
	r.byID[s.ID] = &c
	r.byEmail[strings.ToLower(s.Email)] = s.ID
	return nil
}

// UpdateStudent applies fn to a stored student.
func (r *Repository) UpdateStudent(ctx context.Context, id string, fn func(*models.Student)) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("student %s: %w", id, ErrNotFound)
	}
	fn(s)
	c := *s
	return &c, nil
}
