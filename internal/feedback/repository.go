// internal/feedback/repository.go
package feedback

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

func (r *Repository) Create(fb *models.Feedback) error {
	if err := r.db.Create(fb).Error; err != nil {
		r.log.Error("storing feedback failed", "error", err)
		return err
	}
	return nil
}

// List returns every message in insertion order.
func (r *Repository) List() ([]models.Feedback, error) {
	var items []models.Feedback
	if err := r.db.Order("id ASC").Find(&items).Error; err != nil {
		r.log.Error("listing feedback failed", "error", err)
		return nil, err
	}
	return items, nil
}
