package students

import "github.com/mcdev12/proctor/go/internal/models"

// LoginInput is a student login attempt.
type LoginInput struct {
	Email    string
	Password string
	IP       string
	Device   string
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Student    *models.Student `json:"student"`
	Registered bool            `json:"registered"`
}

type LogoutRequest struct {
	StudentID string `json:"student_id"`
}

type LogoutResponse struct{}

type GetAssignedQuestionRequest struct {
	StudentID string `json:"student_id"`
}

type GetAssignedQuestionResponse struct {
	Question *models.Question `json:"question"`
}

type ListStudentsRequest struct{}

type ListStudentsResponse struct {
	Students []*models.Student `json:"students"`
}
