package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gradeworks/answer-evaluator/internal/domain"
	"github.com/gradeworks/answer-evaluator/internal/usecase"
)

type seedQuestion struct {
	Title         string   `yaml:"title"`
	Prompt        string   `yaml:"prompt"`
	Type          string   `yaml:"type"`
	Points        int      `yaml:"points"`
	Rubric        string   `yaml:"rubric"`
	SampleAnswer  string   `yaml:"sample_answer"`
	CorrectAnswer string   `yaml:"correct_answer"`
	Keywords      []string `yaml:"keywords"`
}

type seedFile struct {
	Questions []seedQuestion `yaml:"questions"`
}

// seedQuestions loads the YAML seed file and inserts its questions when the
// catalog is empty. Re-running against a populated catalog is a no-op.
func seedQuestions(ctx context.Context, svc *usecase.QuestionService, path string) error {
	count, err := svc.Count(ctx)
	if err != nil {
		return fmt.Errorf("op=seed.count: %w", err)
	}
	if count > 0 {
		slog.Info("question catalog already populated, skipping seed", slog.Int64("count", count))
		return nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from operator config.
	if err != nil {
		return fmt.Errorf("op=seed.read: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("op=seed.parse: %w", err)
	}
	for _, sq := range sf.Questions {
		q := domain.Question{
			Title:         sq.Title,
			Prompt:        sq.Prompt,
			Type:          domain.QuestionType(sq.Type),
			Points:        sq.Points,
			Rubric:        sq.Rubric,
			SampleAnswer:  sq.SampleAnswer,
			CorrectAnswer: sq.CorrectAnswer,
			Keywords:      sq.Keywords,
		}
		created, err := svc.Create(ctx, q)
		if err != nil {
			return fmt.Errorf("op=seed.create title=%q: %w", sq.Title, err)
		}
		slog.Info("seeded question", slog.String("id", created.ID), slog.String("title", created.Title))
	}
	slog.Info("question seeding complete", slog.Int("count", len(sf.Questions)))
	return nil
}
