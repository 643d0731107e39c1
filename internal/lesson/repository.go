// internal/lesson/repository.go
package lesson

import (
	"edu-portal/internal/models"
	"edu-portal/pkg/logger"

	"gorm.io/gorm"
)

// ExcerptLength is how much lesson content the listing shows.
const ExcerptLength = 500

type Repository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepository(db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{db: db, log: logger.OrNop(log)}
}

// ListExcerpts returns lessons newest first with truncated content. A zero
// grade means every grade.
func (r *Repository) ListExcerpts(grade int) ([]models.Lesson, error) {
	var lessons []models.Lesson
	q := r.db.Model(&models.Lesson{}).
		Select("id, title, SUBSTR(content, 1, ?) AS content, grade", ExcerptLength).
		Order("id DESC")
	if grade != 0 {
		q = q.Where("grade = ?", grade)
	}
	if err := q.Find(&lessons).Error; err != nil {
		r.log.Error("listing lessons failed", "grade", grade, "error", err)
		return nil, err
	}
	return lessons, nil
}

func (r *Repository) ListAll() ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := r.db.Order("id DESC").Find(&lessons).Error; err != nil {
		r.log.Error("listing lessons failed", "error", err)
		return nil, err
	}
	return lessons, nil
}

func (r *Repository) GetByID(id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *Repository) Create(lesson *models.Lesson) error {
	return r.db.Create(lesson).Error
}
