// internal/lesson/service.go
package lesson

import (
	"context"
	"fmt"
	"os"

	"edu-portal/internal/models"
	"edu-portal/pkg/logger"
	"edu-portal/pkg/pdfgen"
)

type Service struct {
	repo      *Repository
	pdf       *pdfgen.Generator
	staticDir string
	log       *logger.Logger
}

func NewService(repo *Repository, pdf *pdfgen.Generator, staticDir string, log *logger.Logger) *Service {
	return &Service{repo: repo, pdf: pdf, staticDir: staticDir, log: logger.OrNop(log)}
}

func (s *Service) List(grade int) ([]models.Lesson, error) {
	return s.repo.ListExcerpts(grade)
}

func (s *Service) ListAll() ([]models.Lesson, error) {
	return s.repo.ListAll()
}

func (s *Service) Get(id uint) (*models.Lesson, error) {
	return s.repo.GetByID(id)
}

// Create stores the lesson and then exports it under the static dir. The
// export is best effort: the lesson exists even when it fails.
func (s *Service) Create(ctx context.Context, title, content string, grade int) (*models.Lesson, error) {
	lesson := &models.Lesson{Title: title, Content: content, Grade: grade}
	if err := s.repo.Create(lesson); err != nil {
		s.log.Error("creating lesson failed", "title", title, "error", err)
		return nil, err
	}

	if path, err := s.pdf.WriteStatic(ctx, s.staticDir, title, content); err != nil {
		s.log.Warn("static lesson export failed", "lesson_id", lesson.ID, "error", err)
	} else {
		s.log.Info("lesson exported", "lesson_id", lesson.ID, "path", path)
	}
	return lesson, nil
}

// RenderPDF builds the download for a lesson through a temp file that is
// always removed.
func (s *Service) RenderPDF(ctx context.Context, lesson *models.Lesson) ([]byte, error) {
	tmp, err := os.CreateTemp("", "lesson-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp pdf: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.pdf.Render(ctx, lesson.Title, lesson.Content, tmp); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp pdf: %w", err)
	}
	return os.ReadFile(tmp.Name())
}
