// Package mocks provides testify mocks for the domain ports.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/gradeworks/answer-evaluator/internal/domain"
)

// MockQuestionRepository mocks domain.QuestionRepository.
type MockQuestionRepository struct{ mock.Mock }

func (m *MockQuestionRepository) Create(ctx domain.Context, q domain.Question) (string, error) {
	args := m.Called(ctx, q)
	return args.String(0), args.Error(1)
}

func (m *MockQuestionRepository) Get(ctx domain.Context, id string) (domain.Question, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Question), args.Error(1)
}

func (m *MockQuestionRepository) List(ctx domain.Context) ([]domain.Question, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.Question), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuestionRepository) Update(ctx domain.Context, q domain.Question) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockQuestionRepository) Delete(ctx domain.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockQuestionRepository) Count(ctx domain.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockEvaluationRepository mocks domain.EvaluationRepository.
type MockEvaluationRepository struct{ mock.Mock }

func (m *MockEvaluationRepository) Create(ctx domain.Context, e domain.Evaluation) (string, error) {
	args := m.Called(ctx, e)
	return args.String(0), args.Error(1)
}

func (m *MockEvaluationRepository) Get(ctx domain.Context, id string) (domain.Evaluation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Evaluation), args.Error(1)
}

func (m *MockEvaluationRepository) List(ctx domain.Context) ([]domain.Evaluation, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.Evaluation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvaluationRepository) UpdateStatus(ctx domain.Context, id string, status domain.EvaluationStatus, feedback *string, score *int) error {
	return m.Called(ctx, id, status, feedback, score).Error(0)
}

// MockRemoteGrader mocks domain.RemoteGrader.
type MockRemoteGrader struct{ mock.Mock }

func (m *MockRemoteGrader) Grade(ctx domain.Context, q domain.Question, studentAnswer string) (domain.RemoteGrade, error) {
	args := m.Called(ctx, q, studentAnswer)
	return args.Get(0).(domain.RemoteGrade), args.Error(1)
}

// MockQuestionCache mocks domain.QuestionCache.
type MockQuestionCache struct{ mock.Mock }

func (m *MockQuestionCache) Get(ctx domain.Context, id string) (domain.Question, bool) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Question), args.Bool(1)
}

func (m *MockQuestionCache) Set(ctx domain.Context, q domain.Question) { m.Called(ctx, q) }

func (m *MockQuestionCache) GetAll(ctx domain.Context) ([]domain.Question, bool) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.Question), args.Bool(1)
	}
	return nil, args.Bool(1)
}

func (m *MockQuestionCache) SetAll(ctx domain.Context, qs []domain.Question) { m.Called(ctx, qs) }

func (m *MockQuestionCache) Invalidate(ctx domain.Context) { m.Called(ctx) }

// MockEventPublisher mocks domain.EventPublisher.
type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) EvaluationCompleted(ctx domain.Context, e domain.Evaluation) {
	m.Called(ctx, e)
}
