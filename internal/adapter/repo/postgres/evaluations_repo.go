package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/gradeworks/answer-evaluator/internal/domain"
)

// EvaluationRepo persists and loads evaluations from PostgreSQL.
type EvaluationRepo struct{ Pool PgxPool }

// NewEvaluationRepo constructs an EvaluationRepo with the given pool.
func NewEvaluationRepo(p PgxPool) *EvaluationRepo { return &EvaluationRepo{Pool: p} }

const evaluationColumns = `id, file_id, student_name, question_id, question_title, extracted_answer, score, max_points, confidence, feedback, rubric_match, status, created_at, updated_at`

// Create inserts a new evaluation and returns its id.
func (r *EvaluationRepo) Create(ctx domain.Context, e domain.Evaluation) (string, error) {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.Create")
	defer span.End()
	id := e.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	sql := `INSERT INTO evaluations (` + evaluationColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.Pool.Exec(ctx, sql, id, e.FileID, e.StudentName, e.QuestionID, e.QuestionTitle,
		e.ExtractedAnswer, e.Score, e.MaxPoints, e.Confidence, e.Feedback, e.RubricMatch, e.Status, now, now)
	if err != nil {
		return "", fmt.Errorf("op=evaluation.create: %w", err)
	}
	return id, nil
}

// Get loads an evaluation by id.
func (r *EvaluationRepo) Get(ctx domain.Context, id string) (domain.Evaluation, error) {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.Get")
	defer span.End()
	sql := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id=$1`
	e, err := scanEvaluation(r.Pool.QueryRow(ctx, sql, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Evaluation{}, fmt.Errorf("op=evaluation.get: %w", domain.ErrNotFound)
		}
		return domain.Evaluation{}, fmt.Errorf("op=evaluation.get: %w", err)
	}
	return e, nil
}

// List returns all evaluations, newest first.
func (r *EvaluationRepo) List(ctx domain.Context) ([]domain.Evaluation, error) {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.List")
	defer span.End()
	sql := `SELECT ` + evaluationColumns + ` FROM evaluations ORDER BY created_at DESC`
	rows, err := r.Pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("op=evaluation.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("op=evaluation.list: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=evaluation.list: %w", err)
	}
	return out, nil
}

// UpdateStatus applies a reviewer transition, optionally overriding feedback
// and score. Nil overrides leave the stored values untouched.
func (r *EvaluationRepo) UpdateStatus(ctx domain.Context, id string, status domain.EvaluationStatus, feedback *string, score *int) error {
	tracer := otel.Tracer("repo.evaluations")
	ctx, span := tracer.Start(ctx, "evaluations.UpdateStatus")
	defer span.End()
	sql := `UPDATE evaluations SET status=$2, feedback=COALESCE($3, feedback), score=COALESCE($4, score), updated_at=$5 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, sql, id, status, feedback, score, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=evaluation.update_status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=evaluation.update_status: %w", domain.ErrNotFound)
	}
	return nil
}

func scanEvaluation(row pgx.Row) (domain.Evaluation, error) {
	var e domain.Evaluation
	err := row.Scan(&e.ID, &e.FileID, &e.StudentName, &e.QuestionID, &e.QuestionTitle,
		&e.ExtractedAnswer, &e.Score, &e.MaxPoints, &e.Confidence, &e.Feedback,
		&e.RubricMatch, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
