// internal/models/quiz.go
package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type InteractiveLesson struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Title         string         `json:"title"`
	Content       string         `json:"content" gorm:"type:text"`
	Grade         int            `json:"grade" gorm:"index"`
	CADFileURL    string         `json:"cad_file_url" gorm:"column:cad_file_url"`
	QuizQuestions datatypes.JSON `json:"-" gorm:"column:quiz_questions"`
}

func (InteractiveLesson) TableName() string {
	return "interactive_lessons"
}

// QuizQuestion is one multiple-choice question as stored inside
// interactive_lessons.quiz_questions and served by the quiz API.
type QuizQuestion struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"min=2,max=4,dive,required"`
	CorrectAnswer int      `json:"correct_answer" validate:"gte=0"`
}

type QuizPayload struct {
	Questions []QuizQuestion `json:"questions"`
}

// Encode produces the column value for quiz_questions.
func (p QuizPayload) Encode() (datatypes.JSON, error) {
	if p.Questions == nil {
		p.Questions = []QuizQuestion{}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

type QuizResult struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	LessonID       uint              `json:"lesson_id" gorm:"index;not null"`
	Lesson         InteractiveLesson `json:"-" gorm:"foreignKey:LessonID"`
	UserEmail      string            `json:"user_email" gorm:"index"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"total_questions"`
	CompletedAt    time.Time         `json:"completed_at" gorm:"autoCreateTime"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

// ProgressRow is one quiz result joined with the lesson it belongs to.
type ProgressRow struct {
	LessonID       uint      `json:"lesson_id"`
	LessonTitle    string    `json:"lesson_title"`
	Grade          int       `json:"grade"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CompletedAt    time.Time `json:"completed_at"`
}
