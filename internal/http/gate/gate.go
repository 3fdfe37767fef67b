package gate

import (
	"net/http"
	"path"
	"strings"
)

const (
	CookieName  = "loggedIn"
	LandingPath = "/"
)

// New returns middleware that sends visitors without a session to the
// landing page when they request a protected path or anything below it.
func New(protected ...string) func(http.Handler) http.Handler {
	paths := make([]string, 0, len(protected))
	for _, p := range protected {
		paths = append(paths, path.Clean("/"+p))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProtected(paths, r.URL.Path) && !LoggedIn(r) {
				http.Redirect(w, r, LandingPath, http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isProtected(paths []string, reqPath string) bool {
	clean := path.Clean("/" + reqPath)

	for _, p := range paths {
		if clean == p || strings.HasPrefix(clean, p+"/") {
			return true
		}
	}

	return false
}

// LoggedIn reports whether the session cookie is present and not "false".
func LoggedIn(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}

	return c.Value != "false"
}
