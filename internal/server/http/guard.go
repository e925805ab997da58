package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/and161185/wefixit/internal/errs"
)

// requireAdmin resolves the bearer token to an admin and short-circuits the
// request on failure.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearerToken(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}
		a, err := s.auth.Authenticate(r.Context(), tok)
		if err != nil {
			switch {
			case errors.Is(err, errs.ErrAdminNotFound):
				writeDetail(w, http.StatusUnauthorized, msgAdminNotFound)
			case errors.Is(err, errs.ErrUnauthorized):
				writeDetail(w, http.StatusUnauthorized, msgBadCredentials)
			default:
				s.writeError(w, r, err, "", nil)
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), a)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	for _, v := range r.Header.Values("Authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			if t := strings.TrimSpace(v[7:]); t != "" {
				return t, true
			}
		}
	}
	return "", false
}
