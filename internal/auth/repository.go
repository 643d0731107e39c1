// internal/auth/repository.go
package auth

import (
	"strings"

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

// SeedAdmins makes sure every listed email holds the admin capability.
func (r *Repository) SeedAdmins(emails []string) error {
	for _, email := range emails {
		email = normalizeEmail(email)
		if email == "" {
			continue
		}
		admin := models.Admin{Email: email}
		if err := r.db.Where(models.Admin{Email: email}).FirstOrCreate(&admin).Error; err != nil {
			r.log.Error("seeding admin failed", "email", email, "error", err)
			return err
		}
	}
	return nil
}

func (r *Repository) IsAdmin(email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, nil
	}
	var count int64
	if err := r.db.Model(&models.Admin{}).Where("email = ?", email).Count(&count).Error; err != nil {
		r.log.Error("admin lookup failed", "email", email, "error", err)
		return false, err
	}
	return count > 0, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
