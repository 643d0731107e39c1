// internal/simulation/repository.go
package simulation

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

func (r *Repository) List() ([]models.Simulation, error) {
	var sims []models.Simulation
	if err := r.db.Order("id ASC").Find(&sims).Error; err != nil {
		r.log.Error("listing simulations failed", "error", err)
		return nil, err
	}
	return sims, nil
}

func (r *Repository) GetByID(id uint) (*models.Simulation, error) {
	var sim models.Simulation
	if err := r.db.First(&sim, id).Error; err != nil {
		return nil, err
	}
	return &sim, nil
}

func (r *Repository) Create(sim *models.Simulation) error {
	if err := r.db.Create(sim).Error; err != nil {
		r.log.Error("creating simulation failed", "title", sim.Title, "error", err)
		return err
	}
	return nil
}
