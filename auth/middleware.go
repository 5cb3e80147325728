package auth

import (
	"net/http"
	"net/url"
	"strings"

	"blogFeed/domain"
	"blogFeed/errs"
	"blogFeed/logging"
)

// RememberCookie holds the remember token of a logged in client.
const RememberCookie = "remember_token"

// LoginPath is where anonymous clients are sent when they need to log in.
const LoginPath = "/auth/login/"

// UserMw looks up the user behind the remember token cookie and puts it into
// the request context. Requests without a valid cookie pass through anonymously.
type UserMw struct {
	domain.UserService
}

// Apply wraps next with the user lookup.
func (mw *UserMw) Apply(next http.Handler) http.Handler {
	return mw.ApplyFn(next.ServeHTTP)
}

// ApplyFn wraps next with the user lookup.
func (mw *UserMw) ApplyFn(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Media files are served the same way to everybody, so the
		// lookup is skipped for them.
		if strings.HasPrefix(r.URL.Path, "/media/") {
			next(w, r)
			return
		}
		cookie, err := r.Cookie(RememberCookie)
		if err != nil || cookie.Value == "" {
			next(w, r)
			return
		}
		user, err := mw.UserService.ByRemember(r.Context(), cookie.Value)
		if err != nil {
			if !errs.Is(err, errs.ENOTFOUND) {
				errs.LogError(r, err)
			}
			next(w, r)
			return
		}
		next(w, r.WithContext(SetUser(r.Context(), user)))
	})
}

// RequireUserMw assumes that UserMw has already been run,
// otherwise it will not work correctly.
type RequireUserMw struct{}

// ApplyFn redirects anonymous requests to the login page and lets logged in
// users through.
func (mw *RequireUserMw) ApplyFn(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) == nil {
			logging.Log.WithField("path", r.URL.Path).Debug("anonymous request redirected to login")
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next(w, r)
	})
}

// LoginURL returns the login page that sends the client back to next afterwards.
func LoginURL(next string) string {
	return LoginPath + "?" + url.Values{"next": {next}}.Encode()
}
