package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/gradeworks/answer-evaluator/internal/domain"
)

// QuestionRepo persists and loads questions from PostgreSQL.
type QuestionRepo struct{ Pool PgxPool }

// NewQuestionRepo constructs a QuestionRepo with the given pool.
func NewQuestionRepo(p PgxPool) *QuestionRepo { return &QuestionRepo{Pool: p} }

// Create inserts a new question and returns its id.
func (r *QuestionRepo) Create(ctx domain.Context, q domain.Question) (string, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Create")
	defer span.End()
	id := q.ID
	if id == "" {
		id = uuid.New().String()
	}
	sql := `INSERT INTO questions (id, title, prompt, type, points, rubric, sample_answer, correct_answer, keywords, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.Pool.Exec(ctx, sql, id, q.Title, q.Prompt, q.Type, q.Points, q.Rubric, q.SampleAnswer, q.CorrectAnswer, q.Keywords, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=question.create: %w", err)
	}
	return id, nil
}

// Get loads a question by id.
func (r *QuestionRepo) Get(ctx domain.Context, id string) (domain.Question, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Get")
	defer span.End()
	sql := `SELECT id, title, prompt, type, points, rubric, sample_answer, correct_answer, keywords, created_at FROM questions WHERE id=$1`
	q, err := scanQuestion(r.Pool.QueryRow(ctx, sql, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Question{}, fmt.Errorf("op=question.get: %w", domain.ErrNotFound)
		}
		return domain.Question{}, fmt.Errorf("op=question.get: %w", err)
	}
	return q, nil
}

// List returns all questions, newest first.
func (r *QuestionRepo) List(ctx domain.Context) ([]domain.Question, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.List")
	defer span.End()
	sql := `SELECT id, title, prompt, type, points, rubric, sample_answer, correct_answer, keywords, created_at FROM questions ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("op=question.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("op=question.list: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=question.list: %w", err)
	}
	return out, nil
}

// Update overwrites a question's mutable fields.
func (r *QuestionRepo) Update(ctx domain.Context, q domain.Question) error {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Update")
	defer span.End()
	sql := `UPDATE questions SET title=$2, prompt=$3, type=$4, points=$5, rubric=$6, sample_answer=$7, correct_answer=$8, keywords=$9 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, sql, q.ID, q.Title, q.Prompt, q.Type, q.Points, q.Rubric, q.SampleAnswer, q.CorrectAnswer, q.Keywords)
	if err != nil {
		return fmt.Errorf("op=question.update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=question.update: %w", domain.ErrNotFound)
	}
	return nil
}

// Delete removes a question by id.
func (r *QuestionRepo) Delete(ctx domain.Context, id string) error {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Delete")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("op=question.delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=question.delete: %w", domain.ErrNotFound)
	}
	return nil
}

// Count returns the total number of questions.
func (r *QuestionRepo) Count(ctx domain.Context) (int64, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Count")
	defer span.End()
	var n int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("op=question.count: %w", err)
	}
	return n, nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	err := row.Scan(&q.ID, &q.Title, &q.Prompt, &q.Type, &q.Points, &q.Rubric, &q.SampleAnswer, &q.CorrectAnswer, &q.Keywords, &q.CreatedAt)
	return q, err
}
