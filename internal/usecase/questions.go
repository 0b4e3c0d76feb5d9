package usecase

import (
	"fmt"

	"github.com/gradeworks/answer-evaluator/internal/domain"
	"github.com/gradeworks/answer-evaluator/pkg/textx"
)

// QuestionService fronts the question catalog with an optional read-through
// cache. Every mutation invalidates the cache explicitly.
type QuestionService struct {
	Repo  domain.QuestionRepository
	Cache domain.QuestionCache // nil disables caching
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(repo domain.QuestionRepository, cache domain.QuestionCache) *QuestionService {
	return &QuestionService{Repo: repo, Cache: cache}
}

// Get returns a question by id, consulting the cache first.
func (s *QuestionService) Get(ctx domain.Context, id string) (domain.Question, error) {
	if s.Cache != nil {
		if q, ok := s.Cache.Get(ctx, id); ok {
			return q, nil
		}
	}
	q, err := s.Repo.Get(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if s.Cache != nil {
		s.Cache.Set(ctx, q)
	}
	return q, nil
}

// List returns the whole catalog, consulting the cache first.
func (s *QuestionService) List(ctx domain.Context) ([]domain.Question, error) {
	if s.Cache != nil {
		if qs, ok := s.Cache.GetAll(ctx); ok {
			return qs, nil
		}
	}
	qs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil {
		s.Cache.SetAll(ctx, qs)
	}
	return qs, nil
}

// Create validates and stores a new question.
func (s *QuestionService) Create(ctx domain.Context, q domain.Question) (domain.Question, error) {
	if err := validateQuestion(&q); err != nil {
		return domain.Question{}, err
	}
	id, err := s.Repo.Create(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	q.ID = id
	s.invalidate(ctx)
	return q, nil
}

// Update validates and overwrites an existing question.
func (s *QuestionService) Update(ctx domain.Context, q domain.Question) error {
	if q.ID == "" {
		return fmt.Errorf("%w: question id required", domain.ErrInvalidArgument)
	}
	if err := validateQuestion(&q); err != nil {
		return err
	}
	if err := s.Repo.Update(ctx, q); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx domain.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Count returns the catalog size.
func (s *QuestionService) Count(ctx domain.Context) (int64, error) {
	return s.Repo.Count(ctx)
}

func (s *QuestionService) invalidate(ctx domain.Context) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx)
	}
}

func validateQuestion(q *domain.Question) error {
	q.Title = textx.Sanitize(q.Title)
	q.Prompt = textx.Sanitize(q.Prompt)
	if q.Title == "" || q.Prompt == "" {
		return fmt.Errorf("%w: title and prompt required", domain.ErrInvalidArgument)
	}
	if !q.Type.Valid() {
		return fmt.Errorf("%w: unknown question type %q", domain.ErrInvalidArgument, q.Type)
	}
	if q.Points < 0 {
		return fmt.Errorf("%w: points must be non-negative", domain.ErrInvalidArgument)
	}
	if q.Type != domain.QuestionMultipleChoice && len(q.Keywords) == 0 {
		return fmt.Errorf("%w: keywords required for %s questions", domain.ErrInvalidArgument, q.Type)
	}
	if q.Type == domain.QuestionMultipleChoice && q.CorrectAnswer == "" {
		return fmt.Errorf("%w: correct answer required for multiple-choice questions", domain.ErrInvalidArgument)
	}
	return nil
}
