// Package domain holds the core entities and ports of the answer evaluator.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrNotFound                = errors.New("not found")
	ErrConflict                = errors.New("conflict")
	ErrRemoteUnavailable       = errors.New("remote grader unavailable")
	ErrMalformedRemoteResponse = errors.New("malformed remote response")
	ErrRemoteSchemaInvalid     = errors.New("remote response schema invalid")
	ErrPersistence             = errors.New("persistence failure")
	ErrInternal                = errors.New("internal error")
)

// QuestionType enumerates the supported question kinds. Scoring and
// feedback behavior differ per type.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionShortAnswer    QuestionType = "short-answer"
	QuestionEssay          QuestionType = "essay"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionShortAnswer, QuestionEssay:
		return true
	}
	return false
}

// Question is a gradable prompt with its rubric metadata.
// Invariants: Points >= 0; Keywords should be non-empty for
// short-answer/essay questions for ratio scoring to be meaningful.
// CorrectAnswer holds the expected option for multiple-choice questions.
type Question struct {
	ID            string
	Title         string
	Prompt        string
	Type          QuestionType
	Points        int
	Rubric        string
	SampleAnswer  string
	CorrectAnswer string
	Keywords      []string
	CreatedAt     time.Time
}

// EvaluationStatus is the reviewer lifecycle state of an Evaluation.
type EvaluationStatus string

const (
	EvaluationPending  EvaluationStatus = "pending"
	EvaluationReviewed EvaluationStatus = "reviewed"
	EvaluationApproved EvaluationStatus = "approved"
)

// Valid reports whether s is a known evaluation status.
func (s EvaluationStatus) Valid() bool {
	switch s {
	case EvaluationPending, EvaluationReviewed, EvaluationApproved:
		return true
	}
	return false
}

// CanTransition reports whether a reviewer may move an evaluation from one
// status to another. Approved is terminal; pending may go straight to
// approved without an intermediate review.
func CanTransition(from, to EvaluationStatus) bool {
	switch from {
	case EvaluationPending:
		return to == EvaluationReviewed || to == EvaluationApproved
	case EvaluationReviewed:
		return to == EvaluationApproved
	}
	return false
}

// Evaluation is the graded record for one submitted answer against one
// Question. It is created once by the engine and afterwards mutated only by
// reviewer transitions. Invariants: 0 <= Score <= MaxPoints;
// 0 <= Confidence <= 100; RubricMatch is a subset of the question's
// keywords in discovery order.
type Evaluation struct {
	ID              string
	FileID          string
	StudentName     string
	QuestionID      string
	QuestionTitle   string
	ExtractedAnswer string
	Score           int
	MaxPoints       int
	Confidence      int
	Feedback        string
	RubricMatch     []string
	Status          EvaluationStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RemoteGrade is the validated result of the external grading service.
// Score and Confidence are on the remote 0..100 scale.
type RemoteGrade struct {
	IsCorrect  bool
	Score      int
	Confidence int
	Feedback   string
}

// Repositories (ports)

type QuestionRepository interface {
	Create(ctx Context, q Question) (string, error)
	Get(ctx Context, id string) (Question, error)
	List(ctx Context) ([]Question, error)
	Update(ctx Context, q Question) error
	Delete(ctx Context, id string) error
	Count(ctx Context) (int64, error)
}

type EvaluationRepository interface {
	Create(ctx Context, e Evaluation) (string, error)
	Get(ctx Context, id string) (Evaluation, error)
	List(ctx Context) ([]Evaluation, error)
	UpdateStatus(ctx Context, id string, status EvaluationStatus, feedback *string, score *int) error
}

// RemoteGrader (port) delegates grading to an external language-model
// service. Implementations must return one of the remote error sentinels on
// failure and must not retry; callers fall back to local scoring.
type RemoteGrader interface {
	Grade(ctx Context, q Question, studentAnswer string) (RemoteGrade, error)
}

// QuestionCache (port) is a best-effort read-through cache for the question
// catalog. Misses and backend errors are indistinguishable to callers.
type QuestionCache interface {
	Get(ctx Context, id string) (Question, bool)
	Set(ctx Context, q Question)
	GetAll(ctx Context) ([]Question, bool)
	SetAll(ctx Context, qs []Question)
	Invalidate(ctx Context)
}

// EventPublisher (port) emits completed evaluations for downstream
// consumers (reports, dashboards). Publishing is fire-and-forget.
type EventPublisher interface {
	EvaluationCompleted(ctx Context, e Evaluation)
}

// Context is an alias so the domain package stays decoupled from call-site
// plumbing; adapters and usecases pass context.Context through.
type Context = context.Context
