package account

import (
	"edu-portal/internal/auth"
	"edu-portal/internal/models"
	"edu-portal/pkg/logger"
)

// Summary is everything the account page shows.
type Summary struct {
	UserName     string
	UserEmail    string
	Results      []models.ProgressRow
	TotalQuizzes int
	TotalLessons int64
	AverageScore float64
	BestScore    int
	Departments  map[string]int
}

type Service struct {
	repo *Repository
	log  *logger.Logger
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: logger.OrNop(log)}
}

func (s *Service) Summary(id *auth.Identity) (*Summary, error) {
	sum := &Summary{
		UserName:    id.Name,
		UserEmail:   id.Email,
		Departments: map[string]int{},
	}
	if sum.UserName == "" {
		sum.UserName = "Unknown User"
	}
	if sum.UserEmail == "" {
		sum.UserEmail = "unknown"
	}

	rows, err := s.repo.Progress(sum.UserEmail)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountInteractiveLessons()
	if err != nil {
		return nil, err
	}
	sum.Results = rows
	sum.TotalQuizzes = len(rows)
	sum.TotalLessons = total
	Aggregate(sum)
	return sum, nil
}

// Aggregate fills the score statistics and department tally from Results.
func Aggregate(sum *Summary) {
	if sum.Departments == nil {
		sum.Departments = map[string]int{}
	}
	if len(sum.Results) == 0 {
		return
	}
	total := 0
	for i, row := range sum.Results {
		total += row.Score
		if i == 0 || row.Score > sum.BestScore {
			sum.BestScore = row.Score
		}
		sum.Departments[models.DepartmentLabel(row.Grade)]++
	}
	sum.AverageScore = float64(total) / float64(len(sum.Results))
}
