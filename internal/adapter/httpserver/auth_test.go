package httpserver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	httpserver "github.com/gradeworks/answer-evaluator/internal/adapter/httpserver"
	"github.com/gradeworks/answer-evaluator/internal/config"
)

func TestAdminGuard(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	s := &httpserver.Server{Cfg: config.Config{AdminUsername: "admin", AdminPasswordHash: string(hash)}}

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	guarded := s.AdminGuard()(next)

	t.Run("no credentials", func(t *testing.T) {
		rw := httptest.NewRecorder()
		guarded.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/v1/questions", nil))
		require.Equal(t, http.StatusUnauthorized, rw.Code)
		require.NotEmpty(t, rw.Header().Get("WWW-Authenticate"))
	})

	t.Run("wrong password", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/questions", nil)
		r.SetBasicAuth("admin", "wrong")
		rw := httptest.NewRecorder()
		guarded.ServeHTTP(rw, r)
		require.Equal(t, http.StatusUnauthorized, rw.Code)
	})

	t.Run("wrong username", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/questions", nil)
		r.SetBasicAuth("root", "s3cret")
		rw := httptest.NewRecorder()
		guarded.ServeHTTP(rw, r)
		require.Equal(t, http.StatusUnauthorized, rw.Code)
	})

	t.Run("valid credentials", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/v1/questions", nil)
		r.SetBasicAuth("admin", "s3cret")
		rw := httptest.NewRecorder()
		guarded.ServeHTTP(rw, r)
		require.Equal(t, http.StatusNoContent, rw.Code)
	})

	t.Run("guard disabled without config", func(t *testing.T) {
		bare := &httpserver.Server{Cfg: config.Config{}}
		r := httptest.NewRequest(http.MethodPost, "/v1/questions", nil)
		r.SetBasicAuth("admin", "s3cret")
		rw := httptest.NewRecorder()
		bare.AdminGuard()(next).ServeHTTP(rw, r)
		require.Equal(t, http.StatusUnauthorized, rw.Code)
	})
}
