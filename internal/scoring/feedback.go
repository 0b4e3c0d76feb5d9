package scoring

import (
	"strings"

	"github.com/gradeworks/answer-evaluator/internal/domain"
)

// Feedback maps a score band to a human-readable message. Bands apply in
// order, first match wins: >=90%, >=70%, >=50%, below. Essay feedback
// additionally lists missed keywords regardless of band; multiple-choice
// feedback is binary on full marks. A zero maxPoints is treated as 0%.
func Feedback(score, maxPoints int, matched, allKeywords []string, typ domain.QuestionType) string {
	if typ == domain.QuestionMultipleChoice {
		if score == maxPoints {
			return "Correct answer!"
		}
		return "Incorrect answer."
	}

	pct := 0.0
	if maxPoints > 0 {
		pct = float64(score) / float64(maxPoints) * 100
	}

	if typ == domain.QuestionEssay {
		return essayFeedback(pct, matched, allKeywords)
	}
	return shortAnswerFeedback(pct, matched)
}

func shortAnswerFeedback(pct float64, matched []string) string {
	switch {
	case pct >= 90:
		return "Excellent! Your answer is correct and complete."
	case pct >= 70:
		return "Good work! You got most of it right. Key concepts identified: " + strings.Join(matched, ", ")
	case pct >= 50:
		return "Partial credit. Your answer shows some understanding but could be more complete."
	default:
		return "Your answer needs improvement. Please review the question and try to include the key concepts."
	}
}

func essayFeedback(pct float64, matched, allKeywords []string) string {
	var b strings.Builder
	switch {
	case pct >= 90:
		b.WriteString("Excellent essay! You covered all the key concepts comprehensively.")
	case pct >= 70:
		b.WriteString("Good essay with solid understanding. You mentioned: " + strings.Join(matched, ", ") + ".")
	case pct >= 50:
		b.WriteString("Your essay shows basic understanding but could be expanded.")
	default:
		b.WriteString("Your essay needs significant improvement.")
	}
	if missed := missedKeywords(matched, allKeywords); len(missed) > 0 {
		b.WriteString(" Consider including: " + strings.Join(missed, ", ") + ".")
	}
	return b.String()
}

// missedKeywords is the set difference allKeywords - matched, preserving
// allKeywords order.
func missedKeywords(matched, allKeywords []string) []string {
	seen := make(map[string]struct{}, len(matched))
	for _, m := range matched {
		seen[m] = struct{}{}
	}
	missed := make([]string, 0, len(allKeywords))
	for _, kw := range allKeywords {
		if _, ok := seen[kw]; !ok {
			missed = append(missed, kw)
		}
	}
	return missed
}
