package middleware

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"jukebox/internal/logging"
)

// BasicAuthUser is the only user name accepted by BasicAuth.
const BasicAuthUser = "jukebox"

// BasicAuth rejects requests whose basic-auth password does not match
// the bcrypt hash. An empty hash disables the check. Paths in open are
// always served, so probes keep working.
func BasicAuth(hash string, open ...string) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(open))
	for _, p := range open {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if ok && subtle.ConstantTimeCompare([]byte(user), []byte(BasicAuthUser)) == 1 &&
				bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass)) == nil {
				next.ServeHTTP(w, r)
				return
			}

			logging.Debug("Rejected unauthenticated request for %s", sanitizeLogField(r.URL.Path))
			w.Header().Set("WWW-Authenticate", `Basic realm="jukebox", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}
}
