package questions

import "github.com/mcdev12/proctor/go/internal/models"

// QuestionInput carries the editable fields of a question.
type QuestionInput struct {
	Title       string            `json:"title" validate:"notblank"`
	Difficulty  models.Difficulty `json:"difficulty" validate:"oneof=Easy Medium Hard"`
	Description string            `json:"description"`
	Constraints []string          `json:"constraints"`
	Examples    []models.Example  `json:"examples"`
	TestCases   []models.TestCase `json:"test_cases"`
	Tags        []string          `json:"tags"`
	Keywords    []string          `json:"keywords"`
	TimeLimit   int               `json:"time_limit" validate:"gte=0"`
	MemoryLimit int               `json:"memory_limit" validate:"gte=0"`
}

type ListQuestionsRequest struct{}

type ListQuestionsResponse struct {
	Questions []*models.Question `json:"questions"`
}

type GetQuestionRequest struct {
	ID string `json:"id"`
}

type GetQuestionResponse struct {
	Question *models.Question `json:"question"`
}

type CreateQuestionRequest struct {
	ID       string        `json:"id,omitempty"`
	Question QuestionInput `json:"question"`
}

type CreateQuestionResponse struct {
	Question *models.Question `json:"question"`
}

type UpdateQuestionRequest struct {
	ID       string        `json:"id"`
	Question QuestionInput `json:"question"`
}

type UpdateQuestionResponse struct {
	Question *models.Question `json:"question"`
}

type DeleteQuestionRequest struct {
	ID string `json:"id"`
}

type DeleteQuestionResponse struct{}
