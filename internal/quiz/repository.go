// internal/quiz/repository.go
package quiz

import (
	"edu-portal/internal/models"
	"edu-portal/pkg/logger"

	"gorm.io/gorm"
)

const excerptLength = 500

type Repository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepository(db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{db: db, log: logger.OrNop(log)}
}

// ListExcerpts returns interactive lessons newest first with truncated
// content. A zero grade means every grade.
func (r *Repository) ListExcerpts(grade int) ([]models.InteractiveLesson, error) {
	var lessons []models.InteractiveLesson
	q := r.db.Model(&models.InteractiveLesson{}).
		Select("id, title, SUBSTR(content, 1, ?) AS content, grade, cad_file_url", excerptLength).
		Order("id DESC")
	if grade != 0 {
		q = q.Where("grade = ?", grade)
	}
	if err := q.Find(&lessons).Error; err != nil {
		r.log.Error("listing interactive lessons failed", "grade", grade, "error", err)
		return nil, err
	}
	return lessons, nil
}

func (r *Repository) ListAll() ([]models.InteractiveLesson, error) {
	var lessons []models.InteractiveLesson
	if err := r.db.Order("id DESC").Find(&lessons).Error; err != nil {
		r.log.Error("listing interactive lessons failed", "error", err)
		return nil, err
	}
	return lessons, nil
}

func (r *Repository) GetByID(id uint) (*models.InteractiveLesson, error) {
	var lesson models.InteractiveLesson
	if err := r.db.First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

// GetQuizColumn loads only the stored questions of a lesson.
func (r *Repository) GetQuizColumn(id uint) (*models.InteractiveLesson, error) {
	var lesson models.InteractiveLesson
	if err := r.db.Select("id, quiz_questions").First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *Repository) GetCADFileURL(id uint) (string, error) {
	var lesson models.InteractiveLesson
	if err := r.db.Select("id, cad_file_url").First(&lesson, id).Error; err != nil {
		return "", err
	}
	return lesson.CADFileURL, nil
}

func (r *Repository) Exists(id uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.InteractiveLesson{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) Create(lesson *models.InteractiveLesson) error {
	if err := r.db.Create(lesson).Error; err != nil {
		r.log.Error("creating interactive lesson failed", "title", lesson.Title, "error", err)
		return err
	}
	return nil
}

func (r *Repository) CreateResult(result *models.QuizResult) error {
	if err := r.db.Omit("Lesson").Create(result).Error; err != nil {
		r.log.Error("storing quiz result failed", "lesson_id", result.LessonID, "email", result.UserEmail, "error", err)
		return err
	}
	return nil
}
