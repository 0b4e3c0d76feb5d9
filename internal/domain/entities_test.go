package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()
	cases := []struct {
		from, to EvaluationStatus
		ok       bool
	}{
		{EvaluationPending, EvaluationReviewed, true},
		{EvaluationPending, EvaluationApproved, true},
		{EvaluationReviewed, EvaluationApproved, true},
		{EvaluationApproved, EvaluationReviewed, false},
		{EvaluationApproved, EvaluationPending, false},
		{EvaluationApproved, EvaluationApproved, false},
		{EvaluationReviewed, EvaluationPending, false},
		{EvaluationPending, EvaluationPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestQuestionTypeValid(t *testing.T) {
	t.Parallel()
	assert.True(t, QuestionEssay.Valid())
	assert.True(t, QuestionShortAnswer.Valid())
	assert.True(t, QuestionMultipleChoice.Valid())
	assert.False(t, QuestionType("true-false").Valid())
}
