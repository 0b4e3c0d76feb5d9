// Package openai implements the external grader against an OpenAI-compatible
// chat-completions API.
package openai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gradeworks/answer-evaluator/internal/adapter/ai/tokencount"
	"github.com/gradeworks/answer-evaluator/internal/domain"
)

const systemDirective = "You are an expert educational evaluator. Always respond with valid JSON."

const promptTemplate = `
You are an expert educational evaluator. Please evaluate the student's answer against the expected answer.

Question: %s
Expected Answer: %s
Student Answer: %s

Please provide a comprehensive evaluation with the following criteria:
1. Accuracy and completeness of the answer
2. Understanding of key concepts
3. Clarity and coherence of explanation
4. Use of relevant terminology

Respond in the following JSON format:
{
  "isCorrect": boolean,
  "score": number (0-100),
  "confidence": number (0-100),
  "feedback": "detailed feedback explaining the evaluation"
}

The score should reflect how well the student answered the question, and confidence should indicate how certain you are about your evaluation.
`

// Grader delegates grading to a chat-completions endpoint and strictly
// validates the response shape. It makes exactly one attempt per call; the
// caller owns the fallback to local scoring.
type Grader struct {
	client          *openai.Client
	model           string
	maxAnswerTokens int
	counter         *tokencount.Counter
}

// New constructs a Grader. baseURL overrides the default API endpoint when
// non-empty; maxAnswerTokens bounds the student-answer portion of the prompt
// (<= 0 disables truncation).
func New(apiKey, baseURL, model string, maxAnswerTokens int) *Grader {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return fmt.Sprintf("Grade %s %s", r.Method, r.URL.Host)
			}),
		),
		Timeout: 60 * time.Second,
	}
	return &Grader{
		client:          openai.NewClientWithConfig(cfg),
		model:           model,
		maxAnswerTokens: maxAnswerTokens,
		counter:         tokencount.NewCounter(),
	}
}

// Grade sends the structured grading prompt and validates the reply.
// Failures map onto the remote error sentinels: transport or API errors to
// ErrRemoteUnavailable, unparseable bodies to ErrMalformedRemoteResponse,
// and wrong field shapes to ErrRemoteSchemaInvalid.
func (g *Grader) Grade(ctx domain.Context, q domain.Question, studentAnswer string) (domain.RemoteGrade, error) {
	answer := g.truncateAnswer(studentAnswer)
	prompt := fmt.Sprintf(promptTemplate, q.Prompt, q.SampleAnswer, answer)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.3,
		MaxTokens:   500,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemDirective},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		// Double-wrap so callers can still see context.DeadlineExceeded
		// behind the sentinel.
		return domain.RemoteGrade{}, fmt.Errorf("op=remote.grade: %w: %w", domain.ErrRemoteUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return domain.RemoteGrade{}, fmt.Errorf("op=remote.grade: %w: no choices", domain.ErrMalformedRemoteResponse)
	}
	return parseGrade(resp.Choices[0].Message.Content)
}

// parseGrade validates the four-field JSON contract of the grading service.
func parseGrade(content string) (domain.RemoteGrade, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.RemoteGrade{}, fmt.Errorf("op=remote.parse: %w: empty content", domain.ErrMalformedRemoteResponse)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return domain.RemoteGrade{}, fmt.Errorf("op=remote.parse: %w: %v", domain.ErrMalformedRemoteResponse, err)
	}

	var g domain.RemoteGrade
	if err := requireField(fields, "isCorrect", &g.IsCorrect); err != nil {
		return domain.RemoteGrade{}, err
	}
	var score, confidence float64
	if err := requireField(fields, "score", &score); err != nil {
		return domain.RemoteGrade{}, err
	}
	if err := requireField(fields, "confidence", &confidence); err != nil {
		return domain.RemoteGrade{}, err
	}
	if err := requireField(fields, "feedback", &g.Feedback); err != nil {
		return domain.RemoteGrade{}, err
	}
	if score < 0 || score > 100 || confidence < 0 || confidence > 100 {
		return domain.RemoteGrade{}, fmt.Errorf("op=remote.parse: %w: score/confidence out of range", domain.ErrRemoteSchemaInvalid)
	}
	g.Score = int(math.Round(score))
	g.Confidence = int(math.Round(confidence))
	return g, nil
}

func requireField(fields map[string]json.RawMessage, name string, dst any) error {
	raw, ok := fields[name]
	if !ok {
		return fmt.Errorf("op=remote.parse: %w: missing field %q", domain.ErrRemoteSchemaInvalid, name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("op=remote.parse: %w: field %q: %v", domain.ErrRemoteSchemaInvalid, name, err)
	}
	return nil
}

// truncateAnswer caps the student answer by token count so oversized
// submissions cannot blow the prompt budget.
func (g *Grader) truncateAnswer(answer string) string {
	if g.maxAnswerTokens <= 0 {
		return answer
	}
	truncated, err := g.counter.TruncateTokens(answer, g.model, g.maxAnswerTokens)
	if err != nil {
		slog.Warn("token truncation failed, sending answer as-is", slog.Any("error", err))
		return answer
	}
	return truncated
}
