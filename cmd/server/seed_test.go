package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gradeworks/answer-evaluator/internal/domain"
	"github.com/gradeworks/answer-evaluator/internal/domain/mocks"
	"github.com/gradeworks/answer-evaluator/internal/usecase"
)

const seedYAML = `questions:
  - title: Basic Math
    prompt: What is 2 + 2?
    type: short-answer
    points: 5
    keywords: ["4", "four"]
  - title: Capital City
    prompt: Capital of France?
    type: multiple-choice
    points: 2
    correct_answer: Paris
`

func writeSeedFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))
	return path
}

func TestSeedQuestions_EmptyCatalog(t *testing.T) {
	repo := &mocks.MockQuestionRepository{}
	repo.On("Count", mock.Anything).Return(int64(0), nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(q domain.Question) bool {
		return q.Title == "Basic Math" && q.Type == domain.QuestionShortAnswer
	})).Return("1", nil).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(q domain.Question) bool {
		return q.Title == "Capital City" && q.CorrectAnswer == "Paris"
	})).Return("2", nil).Once()

	svc := usecase.NewQuestionService(repo, nil)
	require.NoError(t, seedQuestions(context.Background(), svc, writeSeedFile(t)))
	repo.AssertExpectations(t)
}

func TestSeedQuestions_PopulatedCatalogIsNoop(t *testing.T) {
	repo := &mocks.MockQuestionRepository{}
	repo.On("Count", mock.Anything).Return(int64(3), nil)

	svc := usecase.NewQuestionService(repo, nil)
	require.NoError(t, seedQuestions(context.Background(), svc, writeSeedFile(t)))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSeedQuestions_MissingFile(t *testing.T) {
	repo := &mocks.MockQuestionRepository{}
	repo.On("Count", mock.Anything).Return(int64(0), nil)

	svc := usecase.NewQuestionService(repo, nil)
	require.Error(t, seedQuestions(context.Background(), svc, filepath.Join(t.TempDir(), "missing.yaml")))
}
