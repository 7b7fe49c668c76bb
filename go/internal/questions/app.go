package questions

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/validation"
)

// QuestionsRepository defines what the app layer needs from the repository
type QuestionsRepository interface {
	ListQuestions(ctx context.Context) ([]*models.Question, error)
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	CreateQuestion(ctx context.Context, q *models.Question) (*models.Question, error)
	UpdateQuestion(ctx context.Context, q *models.Question) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

// App handles question bank business logic
type App struct {
	repo QuestionsRepository
}

// NewApp creates a new questions App
func NewApp(repo QuestionsRepository) *App {
	return &App{repo: repo}
}

func (a *App) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	qs, err := a.repo.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return qs, nil
}

func (a *App) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	q, err := a.repo.GetQuestion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// CreateQuestion adds a question. An empty id gets a generated one.
func (a *App) CreateQuestion(ctx context.Context, id string, in QuestionInput) (*models.Question, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if id == "" {
		id = "q_" + uuid.NewString()[:8]
	}
	q, err := a.repo.CreateQuestion(ctx, fromInput(id, in))
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	log.Info().Str("question_id", q.ID).Str("title", q.Title).Msg("Created question")
	return q, nil
}

func (a *App) UpdateQuestion(ctx context.Context, id string, in QuestionInput) (*models.Question, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	q, err := a.repo.UpdateQuestion(ctx, fromInput(id, in))
	if err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	log.Info().Str("question_id", q.ID).Msg("Updated question")
	return q, nil
}

func (a *App) DeleteQuestion(ctx context.Context, id string) error {
	if err := a.repo.DeleteQuestion(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	log.Info().Str("question_id", id).Msg("Deleted question")
	return nil
}

// RandomQuestionID picks a question for a newly registered student.
func (a *App) RandomQuestionID(ctx context.Context, rng *rand.Rand) (string, error) {
	qs, err := a.repo.ListQuestions(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list questions: %w", err)
	}
	if len(qs) == 0 {
		return "", ErrEmptyBank
	}
	return qs[rng.IntN(len(qs))].ID, nil
}

func validateInput(in QuestionInput) error {
	return validation.Struct(ErrInvalidInput, in)
}

func fromInput(id string, in QuestionInput) *models.Question {
	return &models.Question{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Difficulty:  in.Difficulty,
		Description: in.Description,
		Constraints: in.Constraints,
		Examples:    in.Examples,
		TestCases:   in.TestCases,
		Tags:        in.Tags,
		Keywords:    in.Keywords,
		TimeLimit:   in.TimeLimit,
		MemoryLimit: in.MemoryLimit,
	}
}
