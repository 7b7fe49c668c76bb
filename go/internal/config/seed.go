package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/proctor/go/internal/contest"
	"github.com/mcdev12/proctor/go/internal/models"
)

// Seed is the initial data the server starts with.
type Seed struct {
	Contest struct {
		models.ContestSettings `yaml:",inline"`
		// StartedMinutesAgo places the start relative to boot when
		// start_time is not set.
		StartedMinutesAgo int `yaml:"started_minutes_ago"`
	} `yaml:"contest"`
	Admins    []contest.AdminCredential  `yaml:"admins"`
	Students  []models.Student           `yaml:"students"`
	Questions []models.Question          `yaml:"questions"`
	Templates map[models.Language]string `yaml:"templates"`
}

// LoadSeed reads and validates the seed file at path.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	if err := seed.validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (s *Seed) validate() error {
	if s.Contest.DurationMinutes < 0 || s.Contest.DurationMinutes > models.MaxDurationMinutes {
		return fmt.Errorf("invalid seed: contest duration %d out of range", s.Contest.DurationMinutes)
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("invalid seed: no questions")
	}
	questions := make(map[string]bool, len(s.Questions))
	for _, q := range s.Questions {
		questions[q.ID] = true
	}
	for _, st := range s.Students {
		if st.AssignedQuestionID != "" && !questions[st.AssignedQuestionID] {
			return fmt.Errorf("invalid seed: student %s assigned unknown question %s", st.ID, st.AssignedQuestionID)
		}
	}
	for lang := range s.Templates {
		if _, err := models.ParseLanguage(string(lang)); err != nil {
			return fmt.Errorf("invalid seed: %w", err)
		}
	}
	return nil
}

// ContestSettings resolves the contest start against now.
func (s *Seed) ContestSettings(now time.Time) models.ContestSettings {
	settings := s.Contest.ContestSettings
	if settings.StartTime.IsZero() {
		settings.StartTime = now.Add(-time.Duration(s.Contest.StartedMinutesAgo) * time.Minute)
	}
	if settings.Status == "" {
		settings.Status = models.ContestStatusActive
	}
	return settings
}

// EditorTemplates merges the seeded templates over the built-in ones.
func (s *Seed) EditorTemplates() map[models.Language]string {
	out := make(map[models.Language]string, len(models.DefaultTemplates))
	for lang, code := range models.DefaultTemplates {
		out[lang] = code
	}
	for lang, code := range s.Templates {
		out[lang] = code
	}
	return out
}
