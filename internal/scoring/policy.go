package scoring

import (
	"math"
	"math/rand"
	"strings"
	"unicode/utf8"

	"github.com/gradeworks/answer-evaluator/internal/domain"
)

// essayLengthThreshold is the character count above which an essay earns the
// detail bonus.
const essayLengthThreshold = 50

// essayLengthBonus is the ratio bonus applied to essays longer than the
// threshold.
const essayLengthBonus = 0.1

// Rand is the injected randomness source for confidence jitter. Tests pin
// outcomes by seeding a math/rand.Rand.
type Rand interface {
	Float64() float64
}

// Outcome is the bounded result of the local scoring policy.
type Outcome struct {
	Score      int
	Confidence int
}

// Policy maps keyword matches to a bounded score and a confidence estimate
// per question type. It is a pure function of its inputs except for the
// confidence jitter drawn from the injected Rand.
type Policy struct {
	rng Rand
}

// NewPolicy constructs a Policy with the given randomness source. A nil rng
// falls back to an unseeded math/rand source.
func NewPolicy(rng Rand) *Policy {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63())) //nolint:gosec
	}
	return &Policy{rng: rng}
}

// Score grades text against q given the already-matched keywords.
// The returned score is clamped to [0, q.Points] and confidence to [0, 100].
func (p *Policy) Score(text string, q domain.Question, matched []string) Outcome {
	var score int
	var confidence float64

	switch q.Type {
	case domain.QuestionShortAnswer:
		// A short answer containing the designated correct value earns full
		// credit outright; the keyword ratio is the fallback for questions
		// without one (or answers that miss it).
		if containsCorrectValue(text, q.CorrectAnswer) {
			score = q.Points
		} else {
			score = ratioScore(q.Points, len(matched), len(q.Keywords), 0)
		}
		if len(matched) > 0 {
			confidence = 85 + p.rng.Float64()*15
		} else {
			confidence = 60 + p.rng.Float64()*25
		}
	case domain.QuestionEssay:
		bonus := 0.0
		if utf8.RuneCountInString(text) > essayLengthThreshold {
			bonus = essayLengthBonus
		}
		score = ratioScore(q.Points, len(matched), len(q.Keywords), bonus)
		confidence = math.Min(95, float64(70+5*len(matched)))
	case domain.QuestionMultipleChoice:
		if answerMatchesOption(text, q.CorrectAnswer) {
			score = q.Points
		}
		confidence = 95
	}

	return Outcome{
		Score:      clampScore(score, q.Points),
		Confidence: clampConfidence(confidence),
	}
}

// ratioScore computes floor(points * (matched/total + bonus)). An empty
// keyword list yields a zero ratio rather than a division by zero.
func ratioScore(points, matched, total int, bonus float64) int {
	ratio := 0.0
	if total > 0 {
		ratio = float64(matched) / float64(total)
	}
	return int(math.Floor(float64(points) * (ratio + bonus)))
}

// containsCorrectValue reports whether the answer contains the question's
// correct value as a case-insensitive substring. An empty value never
// matches.
func containsCorrectValue(text, correct string) bool {
	correct = strings.TrimSpace(correct)
	if correct == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(correct))
}

// answerMatchesOption compares a sanitized answer against the designated
// correct option, trimmed and case-insensitively. An empty correct option
// never matches.
func answerMatchesOption(text, correct string) bool {
	correct = strings.TrimSpace(correct)
	if correct == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(text), correct)
}

func clampScore(score, points int) int {
	if score < 0 {
		return 0
	}
	if score > points {
		return points
	}
	return score
}

func clampConfidence(c float64) int {
	r := int(math.Round(c))
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}
