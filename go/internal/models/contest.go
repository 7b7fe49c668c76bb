package models

import "time"

// ContestStatus defines the lifecycle status of a contest.
type ContestStatus string

const (
	ContestStatusUpcoming ContestStatus = "upcoming"
	ContestStatusActive   ContestStatus = "active"
	ContestStatusEnded    ContestStatus = "ended"
)

// MaxDurationMinutes caps the contest length at one week.
const MaxDurationMinutes = 7 * 24 * 60

// ContestSettings is the administrative contest configuration.
type ContestSettings struct {
	ID              string        `json:"id" yaml:"id"`
	Name            string        `json:"name" yaml:"name"`
	DurationMinutes int           `json:"duration_minutes" yaml:"duration_minutes"`
	StartTime       time.Time     `json:"start_time" yaml:"start_time"`
	PassKey         string        `json:"pass_key" yaml:"pass_key"`
	Status          ContestStatus `json:"status" yaml:"status"`
}

// EndTime is the fixed instant the contest closes.
func (c ContestSettings) EndTime() time.Time {
	return c.StartTime.Add(time.Duration(c.DurationMinutes) * time.Minute)
}
