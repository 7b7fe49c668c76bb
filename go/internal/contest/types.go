package contest

import (
	"time"

	"github.com/mcdev12/proctor/go/internal/models"
	"github.com/mcdev12/proctor/go/internal/proctor/session"
	"github.com/mcdev12/proctor/go/internal/proctor/timer"
)

// AdminCredential is one configured admin login.
type AdminCredential struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// UpdateSettingsInput is a partial update; nil fields are left alone.
type UpdateSettingsInput struct {
	Name            *string               `json:"name,omitempty" validate:"omitempty,notblank"`
	DurationMinutes *int                  `json:"duration_minutes,omitempty" validate:"omitempty,gte=0,lte=10080"`
	PassKey         *string               `json:"pass_key,omitempty"`
	Status          *models.ContestStatus `json:"status,omitempty" validate:"omitempty,oneof=upcoming active ended"`
	StartTime       *time.Time            `json:"start_time,omitempty"`
}

// SettingsView is the settings plus the derived countdown.
type SettingsView struct {
	Settings         models.ContestSettings `json:"settings"`
	EndTime          time.Time              `json:"end_time"`
	SecondsRemaining int                    `json:"seconds_remaining"`
	Formatted        string                 `json:"formatted"`
	Urgency          timer.Urgency          `json:"urgency"`
	ProgressPercent  float64                `json:"progress_percent"`
}

type GetSettingsRequest struct{}

type GetSettingsResponse struct {
	Contest SettingsView `json:"contest"`
}

type VerifyPasskeyRequest struct {
	StudentID string `json:"student_id"`
	PassKey   string `json:"pass_key"`
}

type VerifyPasskeyResponse struct {
	Session           session.Snapshot `json:"session"`
	AttemptsRemaining int              `json:"attempts_remaining"`
}

type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Username string `json:"username"`
}

type UpdateSettingsRequest struct {
	Update UpdateSettingsInput `json:"update"`
}

type AdjustDurationRequest struct {
	Minutes int `json:"minutes"`
}

// RestartRequest optionally sets a new duration; zero keeps the current one.
type RestartRequest struct {
	DurationMinutes int `json:"duration_minutes,omitempty"`
}

type EndNowRequest struct{}

type SettingsResponse struct {
	Contest SettingsView `json:"contest"`
}
