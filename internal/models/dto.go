// internal/models/dto.go
package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNoQuiz is returned when a lesson has no stored questions.
var ErrNoQuiz = errors.New("no quiz available")

// DecodeQuiz parses the stored quiz_questions column.
func (l InteractiveLesson) DecodeQuiz() (*QuizPayload, error) {
	if len(l.QuizQuestions) == 0 {
		return nil, ErrNoQuiz
	}
	var payload QuizPayload
	if err := json.Unmarshal(l.QuizQuestions, &payload); err != nil {
		return nil, err
	}
	if payload.Questions == nil {
		payload.Questions = []QuizQuestion{}
	}
	return &payload, nil
}

// QuizResultDTO is what the live results feed broadcasts.
type QuizResultDTO struct {
	LessonID       uint      `json:"lesson_id"`
	UserEmail      string    `json:"user_email"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CompletedAt    time.Time `json:"completed_at"`
}

func (r QuizResult) ToDTO() QuizResultDTO {
	return QuizResultDTO{
		LessonID:       r.LessonID,
		UserEmail:      r.UserEmail,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		CompletedAt:    r.CompletedAt,
	}
}
