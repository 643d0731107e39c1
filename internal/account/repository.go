package account

import (
	"edu-portal/internal/models"
	"edu-portal/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepository(db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{db: db, log: logger.OrNop(log)}
}

// Progress returns every quiz result of email joined with its lesson,
// newest first.
func (r *Repository) Progress(email string) ([]models.ProgressRow, error) {
	var rows []models.ProgressRow
	err := r.db.Table("quiz_results AS qr").
		Select("qr.lesson_id, il.title AS lesson_title, il.grade, qr.score, qr.total_questions, qr.completed_at").
		Joins("JOIN interactive_lessons il ON qr.lesson_id = il.id").
		Where("qr.user_email = ?", email).
		Order("qr.completed_at DESC").
		Scan(&rows).Error
	if err != nil {
		r.log.Error("loading progress failed", "email", email, "error", err)
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CountInteractiveLessons() (int64, error) {
	var n int64
	if err := r.db.Model(&models.InteractiveLesson{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
