// internal/models/content.go
package models

import "time"

type Simulation struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Title        string `json:"title"`
	Link         string `json:"link"`
	Description  string `json:"description" gorm:"type:text"`
	SolutionLink string `json:"solution_link"`
	Grade        int    `json:"grade"`
}

func (Simulation) TableName() string {
	return "simulations"
}

type Lesson struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Title   string `json:"title"`
	Content string `json:"content" gorm:"type:text"`
	Grade   int    `json:"grade" gorm:"index"`
}

func (Lesson) TableName() string {
	return "lessons"
}

type Feedback struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Message string `json:"message" gorm:"type:text"`
	Email   string `json:"email"`
}

func (Feedback) TableName() string {
	return "feedback"
}

// Admin grants the admin capability to a login email.
type Admin struct {
	Email     string    `json:"email" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

func (Admin) TableName() string {
	return "admins"
}

// DefaultSimulationGrade is used when the admin form leaves grade empty.
const DefaultSimulationGrade = 8

var departments = map[int]string{
	5: "Marketing",
	6: "3D & CAD",
	7: "Hardware",
	8: "Programming",
}

// DepartmentLabel maps a grade code to its reporting label.
func DepartmentLabel(grade int) string {
	if name, ok := departments[grade]; ok {
		return name
	}
	return "Unknown"
}

// All returns every model migrated at startup.
func All() []interface{} {
	return []interface{}{
		&Simulation{},
		&Lesson{},
		&Feedback{},
		&InteractiveLesson{},
		&QuizResult{},
		&Admin{},
	}
}
