package questions

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcdev12/proctor/go/internal/models"
)

// Repository is the in-memory question bank. Order of insertion is kept for
// listing.
type Repository struct {
	mu        sync.RWMutex
	questions map[string]*models.Question
	order     []string
}

// NewRepository creates a repository seeded with questions.
func NewRepository(seed []models.Question) *Repository {
	r := &Repository{questions: make(map[string]*models.Question)}
	for i := range seed {
		q := seed[i]
		r.questions[q.ID] = &q
		r.order = append(r.order, q.ID)
	}
	return r
}

func (r *Repository) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Question, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.questions[id]))
	}
	return out, nil
}

func (r *Repository) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return clone(q), nil
}

func (r *Repository) CreateQuestion(ctx context.Context, q *models.Question) (*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[q.ID]; ok {
		return nil, fmt.Errorf("question %s: %w", q.ID, ErrExists)
	}
	stored := clone(q)
	r.questions[q.ID] = stored
	r.order = append(r.order, q.ID)
	return clone(stored), nil
}

func (r *Repository) UpdateQuestion(ctx context.Context, q *models.Question) (*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[q.ID]; !ok {
		return nil, fmt.Errorf("question %s: %w", q.ID, ErrNotFound)
	}
	stored := clone(q)
	r.questions[q.ID] = stored
	return clone(stored), nil
}

func (r *Repository) DeleteQuestion(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[id]; !ok {
		return fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	delete(r.questions, id)
	for i, qid := range r.order {
		if qid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func clone(q *models.Question) *models.Question {
	c := *q
	c.Constraints = append([]string(nil), q.Constraints...)
	c.Examples = append([]models.Example(nil), q.Examples...)
	c.TestCases = append([]models.TestCase(nil), q.TestCases...)
	c.Tags = append([]string(nil), q.Tags...)
	c.Keywords = append([]string(nil), q.Keywords...)
	return &c
}
