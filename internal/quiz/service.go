// internal/quiz/service.go
package quiz

import (
	"context"
	"errors"
	"fmt"

	"edu-portal/internal/models"
	"edu-portal/pkg/cache"
	"edu-portal/pkg/fetch"
	"edu-portal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	ErrInvalidQuiz      = errors.New("invalid quiz data")
	ErrNoCADFile        = errors.New("cad file not found")
	ErrLessonNotFound   = errors.New("interactive lesson not found")
	ErrInvalidQuestions = errors.New("invalid quiz questions")
)

// QuizCache is the optional read-through cache for quiz payloads.
type QuizCache interface {
	GetQuiz(ctx context.Context, lessonID uint) (*models.QuizPayload, error)
	SetQuiz(ctx context.Context, lessonID uint, quiz *models.QuizPayload) error
}

type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

type Downloader interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

type Service struct {
	repo      *Repository
	cache     QuizCache
	hub       Broadcaster
	fetcher   Downloader
	validator *validator.Validate
	log       *logger.Logger
}

// NewService accepts nil cache and hub.
func NewService(repo *Repository, cache QuizCache, hub Broadcaster, fetcher Downloader, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		hub:       hub,
		fetcher:   fetcher,
		validator: validator.New(),
		log:       logger.OrNop(log),
	}
}

func (s *Service) List(grade int) ([]models.InteractiveLesson, error) {
	return s.repo.ListExcerpts(grade)
}

func (s *Service) ListAll() ([]models.InteractiveLesson, error) {
	return s.repo.ListAll()
}

func (s *Service) Get(id uint) (*models.InteractiveLesson, error) {
	return s.repo.GetByID(id)
}

// GetQuiz returns the questions of a lesson, from the cache when possible.
// Lessons never change after creation, so cached entries need no invalidation.
func (s *Service) GetQuiz(ctx context.Context, lessonID uint) (*models.QuizPayload, error) {
	if s.cache != nil {
		quiz, err := s.cache.GetQuiz(ctx, lessonID)
		if err == nil {
			return quiz, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("quiz cache read failed", "lesson_id", lessonID, "error", err)
		}
	}

	lesson, err := s.repo.GetQuizColumn(lessonID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNoQuiz
	}
	if err != nil {
		return nil, err
	}
	quiz, err := lesson.DecodeQuiz()
	if errors.Is(err, models.ErrNoQuiz) {
		return nil, err
	}
	if err != nil {
		s.log.Warn("stored quiz is not valid json", "lesson_id", lessonID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}

	if s.cache != nil {
		if err := s.cache.SetQuiz(ctx, lessonID, quiz); err != nil {
			s.log.Warn("quiz cache write failed", "lesson_id", lessonID, "error", err)
		}
	}
	return quiz, nil
}

// SubmitResult records a finished quiz and pushes it to the live feed.
func (s *Service) SubmitResult(email string, lessonID uint, score, total int) (*models.QuizResult, error) {
	ok, err := s.repo.Exists(lessonID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLessonNotFound
	}

	result := &models.QuizResult{
		LessonID:       lessonID,
		UserEmail:      email,
		Score:          score,
		TotalQuestions: total,
	}
	if err := s.repo.CreateResult(result); err != nil {
		return nil, err
	}
	if s.hub != nil {
		s.hub.Broadcast("quiz_result", result.ToDTO())
	}
	return result, nil
}

// ValidateQuestions checks every question and that each correct answer
// points at one of its options.
func (s *Service) ValidateQuestions(questions []models.QuizQuestion) error {
	for i, q := range questions {
		if err := s.validator.Struct(q); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrInvalidQuestions, i+1, err)
		}
		if q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("%w: question %d: correct answer %d out of range", ErrInvalidQuestions, i+1, q.CorrectAnswer)
		}
	}
	return nil
}

func (s *Service) CreateLesson(title, content string, grade int, cadURL string, questions []models.QuizQuestion) (*models.InteractiveLesson, error) {
	if err := s.ValidateQuestions(questions); err != nil {
		return nil, err
	}
	encoded, err := models.QuizPayload{Questions: questions}.Encode()
	if err != nil {
		return nil, err
	}
	lesson := &models.InteractiveLesson{
		Title:         title,
		Content:       content,
		Grade:         grade,
		CADFileURL:    cadURL,
		QuizQuestions: encoded,
	}
	if err := s.repo.Create(lesson); err != nil {
		return nil, err
	}
	s.log.Info("interactive lesson created", "lesson_id", lesson.ID, "questions", len(questions))
	return lesson, nil
}

func (s *Service) CADFileURL(lessonID uint) (string, error) {
	url, err := s.repo.GetCADFileURL(lessonID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && url == "") {
		return "", ErrNoCADFile
	}
	return url, err
}

// FetchCADFile downloads the lesson's CAD file in full.
func (s *Service) FetchCADFile(ctx context.Context, lessonID uint) (*fetch.Response, error) {
	url, err := s.CADFileURL(lessonID)
	if err != nil {
		return nil, err
	}
	return s.fetcher.Get(ctx, url)
}
