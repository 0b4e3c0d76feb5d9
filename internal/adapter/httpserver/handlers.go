package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gradeworks/answer-evaluator/internal/config"
	"github.com/gradeworks/answer-evaluator/internal/domain"
	"github.com/gradeworks/answer-evaluator/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Questions  *usecase.QuestionService
	Evaluate   usecase.EvaluateService
	Reviews    usecase.ReviewService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, questions *usecase.QuestionService, eval usecase.EvaluateService, reviews usecase.ReviewService, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Questions: questions, Evaluate: eval, Reviews: reviews, DBCheck: dbCheck, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

type questionJSON struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Prompt        string    `json:"prompt"`
	Type          string    `json:"type"`
	Points        int       `json:"points"`
	Rubric        string    `json:"rubric,omitempty"`
	SampleAnswer  string    `json:"sample_answer,omitempty"`
	CorrectAnswer string    `json:"correct_answer,omitempty"`
	Keywords      []string  `json:"keywords"`
	CreatedAt     time.Time `json:"created_at"`
}

type evaluationJSON struct {
	ID              string    `json:"id"`
	FileID          string    `json:"file_id"`
	StudentName     string    `json:"student_name"`
	QuestionID      string    `json:"question_id"`
	QuestionTitle   string    `json:"question_title"`
	ExtractedAnswer string    `json:"extracted_answer"`
	Score           int       `json:"score"`
	MaxPoints       int       `json:"max_points"`
	Confidence      int       `json:"confidence"`
	Feedback        string    `json:"feedback"`
	RubricMatch     []string  `json:"rubric_match"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toQuestionJSON(q domain.Question) questionJSON {
	kw := q.Keywords
	if kw == nil {
		kw = []string{}
	}
	return questionJSON{
		ID: q.ID, Title: q.Title, Prompt: q.Prompt, Type: string(q.Type),
		Points: q.Points, Rubric: q.Rubric, SampleAnswer: q.SampleAnswer,
		CorrectAnswer: q.CorrectAnswer, Keywords: kw, CreatedAt: q.CreatedAt,
	}
}

func toEvaluationJSON(e domain.Evaluation) evaluationJSON {
	rm := e.RubricMatch
	if rm == nil {
		rm = []string{}
	}
	return evaluationJSON{
		ID: e.ID, FileID: e.FileID, StudentName: e.StudentName,
		QuestionID: e.QuestionID, QuestionTitle: e.QuestionTitle,
		ExtractedAnswer: e.ExtractedAnswer, Score: e.Score, MaxPoints: e.MaxPoints,
		Confidence: e.Confidence, Feedback: e.Feedback, RubricMatch: rm,
		Status: string(e.Status), CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || a == "*/*" || strings.Contains(a, "application/json") {
		return true
	}
	writeJSON(w, http.StatusNotAcceptable, errorEnvelope{Error: apiError{
		Code: "INVALID_ARGUMENT", Message: "not acceptable",
		Details: map[string]any{"accept": a},
	}})
	return false
}

// EvaluateHandler grades a submitted answer synchronously.
func (s *Server) EvaluateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var req struct {
			QuestionID  string `json:"question_id" validate:"required"`
			AnswerText  string `json:"answer_text" validate:"required"`
			StudentName string `json:"student_name" validate:"max=200"`
			FileID      string `json:"file_id" validate:"max=100"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			if ve, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}
		s.runEvaluation(w, r, req.FileID, req.QuestionID, req.StudentName, req.AnswerText)
	}
}

// SubmissionHandler accepts a multipart answer file and grades it.
// Only plain-text payloads are accepted; content is sniffed, not trusted
// from the filename.
func (s *Server) SubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code: "INVALID_ARGUMENT", Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		questionID := r.FormValue("question_id")
		if questionID == "" {
			writeError(w, r, fmt.Errorf("%w: question_id required", domain.ErrInvalidArgument), map[string]string{"field": "question_id"})
			return
		}
		file, header, err := r.FormFile("answer")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: answer file required", domain.ErrInvalidArgument), map[string]string{"field": "answer"})
			return
		}
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: answer read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		mt := mimetype.Detect(data)
		if !strings.HasPrefix(mt.String(), "text/") {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code: "INVALID_ARGUMENT", Message: "unsupported media type for answer",
				Details: map[string]any{"mime": mt.String(), "filename": header.Filename},
			}})
			return
		}
		s.runEvaluation(w, r, r.FormValue("file_id"), questionID, r.FormValue("student_name"), string(data))
	}
}

func (s *Server) runEvaluation(w http.ResponseWriter, r *http.Request, fileID, questionID, studentName, text string) {
	ev, err := s.Evaluate.Evaluate(r.Context(), fileID, questionID, studentName, text)
	if err != nil {
		// Persistence failures still carry the computed record so the
		// caller can retry without re-grading.
		if errors.Is(err, domain.ErrPersistence) {
			writeError(w, r, err, map[string]any{"evaluation": toEvaluationJSON(ev)})
			return
		}
		writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, toEvaluationJSON(ev))
}

// ListEvaluationsHandler returns all evaluations, newest first.
func (s *Server) ListEvaluationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		evs, err := s.Reviews.List(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]evaluationJSON, 0, len(evs))
		for _, e := range evs {
			out = append(out, toEvaluationJSON(e))
		}
		writeJSON(w, http.StatusOK, map[string]any{"evaluations": out})
	}
}

// GetEvaluationHandler returns a single evaluation by id.
func (s *Server) GetEvaluationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		ev, err := s.Reviews.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toEvaluationJSON(ev))
	}
}

// UpdateStatusHandler applies a reviewer transition with optional score and
// feedback overrides.
func (s *Server) UpdateStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Status   string  `json:"status" validate:"required"`
			Feedback *string `json:"feedback"`
			Score    *int    `json:"score"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: status required", domain.ErrInvalidArgument), nil)
			return
		}
		ev, err := s.Reviews.UpdateStatus(r.Context(), id, domain.EvaluationStatus(req.Status), req.Feedback, req.Score)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toEvaluationJSON(ev))
	}
}

// ListQuestionsHandler returns the question catalog.
func (s *Server) ListQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := s.Questions.List(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		out := make([]questionJSON, 0, len(qs))
		for _, q := range qs {
			out = append(out, toQuestionJSON(q))
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": out})
	}
}

// GetQuestionHandler returns a single question by id.
func (s *Server) GetQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		q, err := s.Questions.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toQuestionJSON(q))
	}
}

type questionRequest struct {
	Title         string   `json:"title" validate:"required,max=300"`
	Prompt        string   `json:"prompt" validate:"required,max=5000"`
	Type          string   `json:"type" validate:"required"`
	Points        int      `json:"points" validate:"min=0"`
	Rubric        string   `json:"rubric"`
	SampleAnswer  string   `json:"sample_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	Keywords      []string `json:"keywords"`
}

func (req questionRequest) toDomain() domain.Question {
	return domain.Question{
		Title: req.Title, Prompt: req.Prompt, Type: domain.QuestionType(req.Type),
		Points: req.Points, Rubric: req.Rubric, SampleAnswer: req.SampleAnswer,
		CorrectAnswer: req.CorrectAnswer, Keywords: req.Keywords,
	}
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (questionRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return req, false
	}
	if err := getValidator().Struct(req); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
		return req, false
	}
	return req, true
}

// CreateQuestionHandler adds a question to the catalog.
func (s *Server) CreateQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeQuestion(w, r)
		if !ok {
			return
		}
		q, err := s.Questions.Create(r.Context(), req.toDomain())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, toQuestionJSON(q))
	}
}

// UpdateQuestionHandler overwrites an existing question.
func (s *Server) UpdateQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		req, ok := decodeQuestion(w, r)
		if !ok {
			return
		}
		q := req.toDomain()
		q.ID = id
		if err := s.Questions.Update(r.Context(), q); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, toQuestionJSON(q))
	}
}

// DeleteQuestionHandler removes a question.
func (s *Server) DeleteQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.Questions.Delete(r.Context(), id); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ReadyzHandler reports readiness of the backing services.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := map[string]string{}
		healthy := true
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks["db"] = err.Error()
				healthy = false
			} else {
				checks["db"] = "ok"
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"healthy": healthy, "checks": checks})
	}
}
