package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpserver "github.com/gradeworks/answer-evaluator/internal/adapter/httpserver"
	"github.com/gradeworks/answer-evaluator/internal/config"
	"github.com/gradeworks/answer-evaluator/internal/domain"
	"github.com/gradeworks/answer-evaluator/internal/domain/mocks"
	"github.com/gradeworks/answer-evaluator/internal/scoring"
	"github.com/gradeworks/answer-evaluator/internal/usecase"
)

func testQuestion() domain.Question {
	return domain.Question{
		ID:            "1",
		Title:         "Basic Math",
		Prompt:        "What is 2 + 2?",
		Type:          domain.QuestionShortAnswer,
		Points:        5,
		CorrectAnswer: "4",
		Keywords:      []string{"4", "four", "2+2", "addition"},
	}
}

func newTestServer(qRepo *mocks.MockQuestionRepository, eRepo *mocks.MockEvaluationRepository) *httpserver.Server {
	cfg := config.Config{MaxUploadMB: 1}
	questions := usecase.NewQuestionService(qRepo, nil)
	policy := scoring.NewPolicy(rand.New(rand.NewSource(1))) //nolint:gosec
	eval := usecase.NewEvaluateService(questions, eRepo, nil, nil, policy, time.Second)
	reviews := usecase.NewReviewService(eRepo)
	return httpserver.NewServer(cfg, questions, eval, reviews, nil, nil)
}

func TestEvaluateHandler_Success(t *testing.T) {
	qRepo := &mocks.MockQuestionRepository{}
	eRepo := &mocks.MockEvaluationRepository{}
	qRepo.On("Get", mock.Anything, "1").Return(testQuestion(), nil)
	eRepo.On("Create", mock.Anything, mock.Anything).Return("ev-1", nil)
	s := newTestServer(qRepo, eRepo)

	body, _ := json.Marshal(map[string]any{
		"question_id":  "1",
		"answer_text":  "The answer is 4, which is the result of addition 2+2",
		"student_name": "Ada",
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/evaluations", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	rw := httptest.NewRecorder()
	s.EvaluateHandler()(rw, r)

	require.Equal(t, http.StatusCreated, rw.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&resp))
	assert.Equal(t, "ev-1", resp["id"])
	assert.EqualValues(t, 5, resp["score"])
	assert.Equal(t, "pending", resp["status"])
}

func TestEvaluateHandler_ValidationDetails(t *testing.T) {
	s := newTestServer(&mocks.MockQuestionRepository{}, &mocks.MockEvaluationRepository{})
	body, _ := json.Marshal(map[string]any{"question_id": "1"}) // missing answer_text
	r := httptest.NewRequest(http.MethodPost, "/v1/evaluations", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	rw := httptest.NewRecorder()
	s.EvaluateHandler()(rw, r)

	require.Equal(t, http.StatusBadRequest, rw.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&resp))
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, "INVALID_ARGUMENT", errObj["code"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "required", details["answertext"])
}

func TestEvaluateHandler_UnknownQuestion(t *testing.T) {
	qRepo := &mocks.MockQuestionRepository{}
	qRepo.On("Get", mock.Anything, "missing").Return(domain.Question{}, domain.ErrNotFound)
	s := newTestServer(qRepo, &mocks.MockEvaluationRepository{})

	body, _ := json.Marshal(map[string]any{"question_id": "missing", "answer_text": "x"})
	r := httptest.NewRequest(http.MethodPost, "/v1/evaluations", bytes.NewReader(body))
	rw := httptest.NewRecorder()
	s.EvaluateHandler()(rw, r)
	require.Equal(t, http.StatusNotFound, rw.Code)
}

func TestEvaluateHandler_PersistenceFailureCarriesRecord(t *testing.T) {
	qRepo := &mocks.MockQuestionRepository{}
	eRepo := &mocks.MockEvaluationRepository{}
	qRepo.On("Get", mock.Anything, "1").Return(testQuestion(), nil)
	eRepo.On("Create", mock.Anything, mock.Anything).Return("", assert.AnError)
	s := newTestServer(qRepo, eRepo)

	body, _ := json.Marshal(map[string]any{"question_id": "1", "answer_text": "four"})
	r := httptest.NewRequest(http.MethodPost, "/v1/evaluations", bytes.NewReader(body))
	rw := httptest.NewRecorder()
	s.EvaluateHandler()(rw, r)

	require.Equal(t, http.StatusBadGateway, rw.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&resp))
	errObj := resp["error"].(map[string]any)
	assert.Equal(t, "PERSISTENCE_FAILURE", errObj["code"])
	details := errObj["details"].(map[string]any)
	ev := details["evaluation"].(map[string]any)
	assert.EqualValues(t, 5, ev["max_points"])
}

func TestEvaluateHandler_NotAcceptable(t *testing.T) {
	s := newTestServer(&mocks.MockQuestionRepository{}, &mocks.MockEvaluationRepository{})
	r := httptest.NewRequest(http.MethodPost, "/v1/evaluations", nil)
	r.Header.Set("Accept", "text/html")
	rw := httptest.NewRecorder()
	s.EvaluateHandler()(rw, r)
	require.Equal(t, http.StatusNotAcceptable, rw.Code)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(fileField, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSubmissionHandler_Success(t *testing.T) {
	qRepo := &mocks.MockQuestionRepository{}
	eRepo := &mocks.MockEvaluationRepository{}
	qRepo.On("Get", mock.Anything, "1").Return(testQuestion(), nil)
	eRepo.On("Create", mock.Anything, mock.Anything).Return("ev-9", nil)
	s := newTestServer(qRepo, eRepo)

	buf, ct := multipartBody(t, map[string]string{"question_id": "1", "student_name": "Ada"},
		"answer", "answer.txt", []byte("The answer is four"))
	r := httptest.NewRequest(http.MethodPost, "/v1/submissions", buf)
	r.Header.Set("Content-Type", ct)
	rw := httptest.NewRecorder()
	s.SubmissionHandler()(rw, r)

	require.Equal(t, http.StatusCreated, rw.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&resp))
	assert.Equal(t, "ev-9", resp["id"])
}

func TestSubmissionHandler_RejectsBinaryContent(t *testing.T) {
	s := newTestServer(&mocks.MockQuestionRepository{}, &mocks.MockEvaluationRepository{})
	// PDF magic bytes, regardless of the .txt filename
	buf, ct := multipartBody(t, map[string]string{"question_id": "1"},
		"answer", "answer.txt", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"))
	r := httptest.NewRequest(http.MethodPost, "/v1/submissions", buf)
	r.Header.Set("Content-Type", ct)
	rw := httptest.NewRecorder()
	s.SubmissionHandler()(rw, r)
	require.Equal(t, http.StatusUnsupportedMediaType, rw.Code)
}

func TestSubmissionHandler_MissingFile(t *testing.T) {
	s := newTestServer(&mocks.MockQuestionRepository{}, &mocks.MockEvaluationRepository{})
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("question_id", "1"))
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(http.MethodPost, "/v1/submissions", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	rw := httptest.NewRecorder()
	s.SubmissionHandler()(rw, r)
	require.Equal(t, http.StatusBadRequest, rw.Code)
}

func withURLParam(r *http.Request, key, val string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, val)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestGetEvaluationHandler(t *testing.T) {
	eRepo := &mocks.MockEvaluationRepository{}
	eRepo.On("Get", mock.Anything, "ev-1").Return(domain.Evaluation{ID: "ev-1", Status: domain.EvaluationPending}, nil)
	s := newTestServer(&mocks.MockQuestionRepository{}, eRepo)

	r := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/evaluations/ev-1", nil), "id", "ev-1")
	rw := httptest.NewRecorder()
	s.GetEvaluationHandler()(rw, r)
	require.Equal(t, http.StatusOK, rw.Code)
}

func TestUpdateStatusHandler_Conflict(t *testing.T) {
	eRepo := &mocks.MockEvaluationRepository{}
	eRepo.On("Get", mock.Anything, "ev-1").Return(domain.Evaluation{ID: "ev-1", Status: domain.EvaluationApproved}, nil)
	s := newTestServer(&mocks.MockQuestionRepository{}, eRepo)

	body, _ := json.Marshal(map[string]any{"status": "reviewed"})
	r := withURLParam(httptest.NewRequest(http.MethodPatch, "/v1/evaluations/ev-1/status", bytes.NewReader(body)), "id", "ev-1")
	rw := httptest.NewRecorder()
	s.UpdateStatusHandler()(rw, r)

	require.Equal(t, http.StatusConflict, rw.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&resp))
	assert.Equal(t, "CONFLICT", resp["error"].(map[string]any)["code"])
}

func TestUpdateStatusHandler_Approve(t *testing.T) {
	eRepo := &mocks.MockEvaluationRepository{}
	eRepo.On("Get", mock.Anything, "ev-1").Return(domain.Evaluation{ID: "ev-1", Status: domain.EvaluationPending, MaxPoints: 5}, nil)
	eRepo.On("UpdateStatus", mock.Anything, "ev-1", domain.EvaluationApproved, (*string)(nil), (*int)(nil)).Return(nil)
	s := newTestServer(&mocks.MockQuestionRepository{}, eRepo)

	body, _ := json.Marshal(map[string]any{"status": "approved"})
	r := withURLParam(httptest.NewRequest(http.MethodPatch, "/v1/evaluations/ev-1/status", bytes.NewReader(body)), "id", "ev-1")
	rw := httptest.NewRecorder()
	s.UpdateStatusHandler()(rw, r)

	require.Equal(t, http.StatusOK, rw.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&resp))
	assert.Equal(t, "approved", resp["status"])
}

func TestCreateQuestionHandler(t *testing.T) {
	qRepo := &mocks.MockQuestionRepository{}
	qRepo.On("Create", mock.Anything, mock.Anything).Return("7", nil)
	s := newTestServer(qRepo, &mocks.MockEvaluationRepository{})

	body, _ := json.Marshal(map[string]any{
		"title":    "Basic Math",
		"prompt":   "What is 2 + 2?",
		"type":     "short-answer",
		"points":   5,
		"keywords": []string{"4", "four"},
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/questions", bytes.NewReader(body))
	rw := httptest.NewRecorder()
	s.CreateQuestionHandler()(rw, r)

	require.Equal(t, http.StatusCreated, rw.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&resp))
	assert.Equal(t, "7", resp["id"])
}

func TestCreateQuestionHandler_InvalidType(t *testing.T) {
	s := newTestServer(&mocks.MockQuestionRepository{}, &mocks.MockEvaluationRepository{})
	body, _ := json.Marshal(map[string]any{
		"title": "T", "prompt": "P", "type": "true-false", "points": 1,
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/questions", bytes.NewReader(body))
	rw := httptest.NewRecorder()
	s.CreateQuestionHandler()(rw, r)
	require.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestDeleteQuestionHandler(t *testing.T) {
	qRepo := &mocks.MockQuestionRepository{}
	qRepo.On("Delete", mock.Anything, "7").Return(nil)
	s := newTestServer(qRepo, &mocks.MockEvaluationRepository{})

	r := withURLParam(httptest.NewRequest(http.MethodDelete, "/v1/questions/7", nil), "id", "7")
	rw := httptest.NewRecorder()
	s.DeleteQuestionHandler()(rw, r)
	require.Equal(t, http.StatusNoContent, rw.Code)
}

func TestReadyzHandler_Degraded(t *testing.T) {
	s := newTestServer(&mocks.MockQuestionRepository{}, &mocks.MockEvaluationRepository{})
	s.DBCheck = func(context.Context) error { return assert.AnError }
	s.RedisCheck = func(context.Context) error { return nil }

	r := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rw := httptest.NewRecorder()
	s.ReadyzHandler()(rw, r)
	require.Equal(t, http.StatusServiceUnavailable, rw.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&resp))
	assert.Equal(t, false, resp["healthy"])
	checks := resp["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["redis"])
}
