package usecase

import (
	"fmt"

	"github.com/gradeworks/answer-evaluator/internal/domain"
	"github.com/gradeworks/answer-evaluator/pkg/textx"
)

// ReviewService applies reviewer transitions to evaluations. Reviewers own
// all post-creation mutation; the engine never re-grades.
type ReviewService struct {
	Evaluations domain.EvaluationRepository
}

// NewReviewService constructs a ReviewService.
func NewReviewService(evals domain.EvaluationRepository) ReviewService {
	return ReviewService{Evaluations: evals}
}

// UpdateStatus transitions an evaluation per the reviewer state machine,
// optionally overriding score and feedback. Illegal transitions return
// ErrConflict; an override score outside [0, MaxPoints] returns
// ErrInvalidArgument.
func (s ReviewService) UpdateStatus(ctx domain.Context, id string, status domain.EvaluationStatus, feedback *string, score *int) (domain.Evaluation, error) {
	if !status.Valid() {
		return domain.Evaluation{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, status)
	}
	ev, err := s.Evaluations.Get(ctx, id)
	if err != nil {
		return domain.Evaluation{}, err
	}
	if !domain.CanTransition(ev.Status, status) {
		return domain.Evaluation{}, fmt.Errorf("%w: cannot transition %s to %s", domain.ErrConflict, ev.Status, status)
	}
	if score != nil && (*score < 0 || *score > ev.MaxPoints) {
		return domain.Evaluation{}, fmt.Errorf("%w: score %d outside [0, %d]", domain.ErrInvalidArgument, *score, ev.MaxPoints)
	}
	if feedback != nil {
		fb := textx.Sanitize(*feedback)
		feedback = &fb
	}
	if err := s.Evaluations.UpdateStatus(ctx, id, status, feedback, score); err != nil {
		return domain.Evaluation{}, err
	}
	ev.Status = status
	if feedback != nil {
		ev.Feedback = *feedback
	}
	if score != nil {
		ev.Score = *score
	}
	return ev, nil
}

// Get returns a single evaluation.
func (s ReviewService) Get(ctx domain.Context, id string) (domain.Evaluation, error) {
	return s.Evaluations.Get(ctx, id)
}

// List returns all evaluations, newest first.
func (s ReviewService) List(ctx domain.Context) ([]domain.Evaluation, error) {
	return s.Evaluations.List(ctx)
}
