package models

import "time"

// StudentStatus is the coarse presence status of a student.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusIdle      StudentStatus = "idle"
	StudentStatusSubmitted StudentStatus = "submitted"
	StudentStatusOffline   StudentStatus = "offline"
)

// Student represents a contest participant
type Student struct {
	ID                 string        `json:"id" yaml:"id"`
	Name               string        `json:"name" yaml:"name"`
	RollNo             string        `json:"roll_no" yaml:"roll_no"`
	Branch             string        `json:"branch" yaml:"branch"`
	Competition        string        `json:"competition" yaml:"competition"`
	Email              string        `json:"email" yaml:"email"`
	Password           string        `json:"-" yaml:"password"`
	AssignedQuestionID string        `json:"assigned_question_id" yaml:"assigned_question_id"`
	LoginTime          time.Time     `json:"login_time" yaml:"-"`
	IP                 string        `json:"ip" yaml:"-"`
	Device             string        `json:"device" yaml:"-"`
	Status             StudentStatus `json:"status" yaml:"-"`
}
