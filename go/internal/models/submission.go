package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus is the (mock) judging verdict.
type SubmissionStatus string

const (
	SubmissionStatusPending      SubmissionStatus = "pending"
	SubmissionStatusAccepted     SubmissionStatus = "accepted"
	SubmissionStatusWrongAnswer  SubmissionStatus = "wrong_answer"
	SubmissionStatusRuntimeError SubmissionStatus = "runtime_error"
	SubmissionStatusTimeLimit    SubmissionStatus = "time_limit"
	SubmissionStatusFlagged      SubmissionStatus = "flagged"
)

// Submission is a locked-in solution.
type Submission struct {
	ID              uuid.UUID         `json:"id"`
	StudentID       string            `json:"student_id"`
	QuestionID      string            `json:"question_id"`
	Code            string            `json:"code"`
	Language        Language          `json:"language"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	Status          SubmissionStatus  `json:"status"`
	ExecutionTimeMs int               `json:"execution_time_ms"`
	Output          string            `json:"output"`
	Score           int               `json:"score"`
	PlagiarismScore int               `json:"plagiarism_score"`
	Warnings        []ViolationRecord `json:"warnings"`
	TabSwitches     int               `json:"tab_switches"`
	AutoSubmitted   bool              `json:"auto_submitted"`
}

// RunStatus is the outcome of a mock code run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusError   RunStatus = "error"
	RunStatusTimeout RunStatus = "timeout"
)

// RunResult is the output of a mock code run.
type RunResult struct {
	Output          string    `json:"output"`
	Error           string    `json:"error"`
	ExecutionTimeMs int       `json:"execution_time_ms"`
	Status          RunStatus `json:"status"`
}
