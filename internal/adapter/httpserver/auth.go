package httpserver

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// AdminGuard protects catalog mutation endpoints with HTTP Basic Auth.
// The configured password is stored as a bcrypt hash, never in plaintext.
func (s *Server) AdminGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !s.checkAdmin(user, pass) {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin", charset="UTF-8"`)
				writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: apiError{
					Code: "UNAUTHORIZED", Message: "admin credentials required",
				}})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) checkAdmin(user, pass string) bool {
	if s.Cfg.AdminUsername == "" || s.Cfg.AdminPasswordHash == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.Cfg.AdminUsername)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(s.Cfg.AdminPasswordHash), []byte(pass)) == nil
	return userOK && passOK
}
