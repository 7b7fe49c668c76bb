package submissions

import (
	"github.com/google/uuid"

	"github.com/mcdev12/proctor/go/internal/models"
)

// SortOrder orders submission listings.
type SortOrder string

const (
	SortByTime       SortOrder = "time"
	SortByScore      SortOrder = "score"
	SortByPlagiarism SortOrder = "plagiarism"
)

// Filter narrows a submission listing.
type Filter struct {
	Status models.SubmissionStatus `json:"status,omitempty"`
	Search string                  `json:"search,omitempty"`
	Sort   SortOrder               `json:"sort,omitempty"`
}

// View is a submission joined with its student and question.
type View struct {
	models.Submission
	StudentName   string `json:"student_name"`
	RollNo        string `json:"roll_no"`
	QuestionTitle string `json:"question_title"`
}

// Analytics summarises the contest for the admin dashboard.
type Analytics struct {
	TotalStudents    int     `json:"total_students"`
	TotalSubmissions int     `json:"total_submissions"`
	Flagged          int     `json:"flagged"`
	AverageScore     float64 `json:"average_score"`
	TotalWarnings    int     `json:"total_warnings"`
}

type SubmitRequest struct {
	StudentID string `json:"student_id"`
}

type SubmitResponse struct {
	Submission *models.Submission `json:"submission"`
}

type RunRequest struct {
	StudentID string `json:"student_id"`
}

type RunResponse struct {
	Result *models.RunResult `json:"result"`
}

type ListRequest struct {
	Filter
}

type ListResponse struct {
	Submissions []*View `json:"submissions"`
}

type GetRequest struct {
	ID uuid.UUID `json:"id"`
}

type GetResponse struct {
	Submission *View `json:"submission"`
}

type GradeRequest struct {
	ID    uuid.UUID `json:"id"`
	Score int       `json:"score"`
}

type GradeResponse struct {
	Submission *models.Submission `json:"submission"`
}

type ToggleFlagRequest struct {
	ID uuid.UUID `json:"id"`
}

type ToggleFlagResponse struct {
	Submission *models.Submission `json:"submission"`
}

type RerunRequest struct {
	ID uuid.UUID `json:"id"`
}

type RerunResponse struct {
	Submission *models.Submission `json:"submission"`
}

type AnalyticsRequest struct{}

type AnalyticsResponse struct {
	Analytics *Analytics `json:"analytics"`
}
