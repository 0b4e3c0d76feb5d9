// Package usecase contains application business logic services.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gradeworks/answer-evaluator/internal/adapter/observability"
	"github.com/gradeworks/answer-evaluator/internal/domain"
	"github.com/gradeworks/answer-evaluator/internal/scoring"
	"github.com/gradeworks/answer-evaluator/pkg/textx"
)

// defaultSubmitter labels evaluations whose submitter name sanitized to empty.
const defaultSubmitter = "Anonymous"

// EvaluateService is the single grading entry point. It orchestrates
// sanitization, keyword matching, remote or local scoring, feedback
// generation, and persistence of the resulting Evaluation.
type EvaluateService struct {
	Questions   *QuestionService
	Evaluations domain.EvaluationRepository
	// Remote is optional; nil disables remote grading entirely.
	Remote domain.RemoteGrader
	// Events is optional; nil disables completion events.
	Events        domain.EventPublisher
	Policy        *scoring.Policy
	RemoteTimeout time.Duration
}

// NewEvaluateService constructs an EvaluateService with its dependencies.
func NewEvaluateService(questions *QuestionService, evals domain.EvaluationRepository, remote domain.RemoteGrader, events domain.EventPublisher, policy *scoring.Policy, remoteTimeout time.Duration) EvaluateService {
	return EvaluateService{
		Questions:     questions,
		Evaluations:   evals,
		Remote:        remote,
		Events:        events,
		Policy:        policy,
		RemoteTimeout: remoteTimeout,
	}
}

// Evaluate grades rawText against the question and persists the resulting
// record. On persistence failure the computed Evaluation is still returned
// alongside the error so the caller can retry the write.
func (s EvaluateService) Evaluate(ctx domain.Context, fileID, questionID, studentName, rawText string) (domain.Evaluation, error) {
	if questionID == "" {
		return domain.Evaluation{}, fmt.Errorf("%w: question id required", domain.ErrInvalidArgument)
	}
	q, err := s.Questions.Get(ctx, questionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Evaluation{}, fmt.Errorf("%w: question %s", domain.ErrNotFound, questionID)
		}
		return domain.Evaluation{}, err
	}

	text := textx.Sanitize(rawText)
	name := textx.Sanitize(studentName)
	if name == "" {
		name = defaultSubmitter
	}
	if fileID == "" {
		fileID = uuid.New().String()
	}

	matched := scoring.Match(text, q.Keywords)

	score, confidence, feedback, source := s.grade(ctx, q, text, matched)

	now := time.Now().UTC()
	ev := domain.Evaluation{
		ID:              uuid.New().String(),
		FileID:          fileID,
		StudentName:     name,
		QuestionID:      q.ID,
		QuestionTitle:   q.Title,
		ExtractedAnswer: text,
		Score:           score,
		MaxPoints:       q.Points,
		Confidence:      confidence,
		Feedback:        feedback,
		RubricMatch:     matched,
		Status:          domain.EvaluationPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	id, err := s.Evaluations.Create(ctx, ev)
	if err != nil {
		// The computed record goes back to the caller so persistence can be
		// retried without re-grading.
		return ev, fmt.Errorf("op=evaluate.persist: %w: %v", domain.ErrPersistence, err)
	}
	ev.ID = id

	observability.ObserveEvaluation(string(q.Type), source, ev.Score, ev.MaxPoints, ev.Confidence)
	if s.Events != nil {
		s.Events.EvaluationCompleted(ctx, ev)
	}
	return ev, nil
}

// grade scores the sanitized text, preferring the remote grader when
// configured and falling back to the local policy on any remote failure.
// The fallback is logged and counted; it is never silent.
func (s EvaluateService) grade(ctx domain.Context, q domain.Question, text string, matched []string) (score, confidence int, feedback, source string) {
	if s.Remote != nil {
		rctx := ctx
		if s.RemoteTimeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(ctx, s.RemoteTimeout)
			defer cancel()
		}
		rg, err := s.Remote.Grade(rctx, q, text)
		if err == nil {
			score = scaleRemoteScore(rg.Score, q.Points)
			confidence = clampPercent(rg.Confidence)
			feedback = textx.Sanitize(rg.Feedback)
			return score, confidence, feedback, "remote"
		}
		reason := fallbackReason(err)
		slog.Warn("remote grading failed, falling back to local keyword scoring",
			slog.String("question_id", q.ID),
			slog.String("reason", reason),
			slog.Any("error", err))
		observability.RemoteFallbackTotal.WithLabelValues(reason).Inc()
	}

	out := s.Policy.Score(text, q, matched)
	feedback = scoring.Feedback(out.Score, q.Points, matched, q.Keywords, q.Type)
	return out.Score, out.Confidence, feedback, "local"
}

// scaleRemoteScore maps the remote 0..100 scale onto the question's points,
// clamped so the Evaluation invariant holds regardless of what the remote
// returned.
func scaleRemoteScore(remoteScore, points int) int {
	s := int(math.Floor(float64(points) * float64(remoteScore) / 100))
	if s < 0 {
		return 0
	}
	if s > points {
		return points
	}
	return s
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// fallbackReason labels a remote failure for the fallback metric. Timeouts
// are checked before the unavailable sentinel because the grader wraps both
// into the same chain.
func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrRemoteSchemaInvalid):
		return "schema_invalid"
	case errors.Is(err, domain.ErrMalformedRemoteResponse):
		return "malformed_response"
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}
