// Package httpserver contains HTTP handlers and middleware.
//
// It exposes the REST API of the evaluator: submitting answers for
// grading, browsing evaluations, reviewer transitions, and the question
// catalog. HTTP concerns stay here; grading logic lives in usecase.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gradeworks/answer-evaluator/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		code = http.StatusConflict
		codeStr = "CONFLICT"
	case errors.Is(err, domain.ErrRemoteUnavailable):
		code = http.StatusServiceUnavailable
		codeStr = "REMOTE_UNAVAILABLE"
	case errors.Is(err, domain.ErrRemoteSchemaInvalid), errors.Is(err, domain.ErrMalformedRemoteResponse):
		code = http.StatusBadGateway
		codeStr = "REMOTE_SCHEMA_INVALID"
	case errors.Is(err, domain.ErrPersistence):
		code = http.StatusBadGateway
		codeStr = "PERSISTENCE_FAILURE"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
