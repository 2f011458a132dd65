package domain

import (
	"encoding/json"
	"fmt"
)

const (
	DefaultQuestionCount   = 10
	DefaultDurationMinutes = 30
)

// QuizConfig is the typed form of a quiz's free-form configuration blob.
type QuizConfig struct {
	QuestionCount   int
	DurationMinutes int
	TypeFilter      string
}

// rawQuizConfig accepts both snake_case and camelCase keys written by the CMS.
// Keys not listed here are ignored.
type rawQuizConfig struct {
	QuestionCount      *int   `json:"question_count"`
	QuestionCountCamel *int   `json:"questionCount"`
	Duration           *int   `json:"duration"`
	TypeFilter         string `json:"type_filter"`
	TypeFilterCamel    string `json:"typeFilter"`
}

// ParseQuizConfig decodes raw and applies defaults.
func ParseQuizConfig(raw json.RawMessage) (QuizConfig, error) {
	cfg := QuizConfig{
		QuestionCount:   DefaultQuestionCount,
		DurationMinutes: DefaultDurationMinutes,
	}
	if len(raw) == 0 || string(raw) == "null" {
		return cfg, nil
	}

	var in rawQuizConfig
	if err := json.Unmarshal(raw, &in); err != nil {
		return QuizConfig{}, fmt.Errorf("%w: %v", ErrInvalidQuizConfig, err)
	}

	count := in.QuestionCount
	if count == nil {
		count = in.QuestionCountCamel
	}
	if count != nil {
		if *count < 0 {
			return QuizConfig{}, fmt.Errorf("%w: negative question count", ErrInvalidQuizConfig)
		}
		if *count > 0 {
			cfg.QuestionCount = *count
		}
	}
	if in.Duration != nil {
		if *in.Duration < 0 {
			return QuizConfig{}, fmt.Errorf("%w: negative duration", ErrInvalidQuizConfig)
		}
		if *in.Duration > 0 {
			cfg.DurationMinutes = *in.Duration
		}
	}
	cfg.TypeFilter = in.TypeFilter
	if cfg.TypeFilter == "" {
		cfg.TypeFilter = in.TypeFilterCamel
	}
	return cfg, nil
}
