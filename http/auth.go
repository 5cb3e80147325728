package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"blogFeed/auth"
	"blogFeed/domain"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/auth/signup/", s.handleSignup).Methods("POST")
	r.HandleFunc("/auth/login/", s.handleLogin).Methods("POST")
	r.HandleFunc("/auth/logout/", s.requireUser.ApplyFn(s.handleLogout)).Methods("POST")
}

// handleSignup handles the route "POST /auth/signup/".
// It creates a new user from the signup form, signs them in and redirects home.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	user := domain.User{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if err := s.us.Create(r.Context(), &user); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.signIn(r.Context(), w, &user); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogin handles the route "POST /auth/login/".
// On success the client is sent back to the page named by the "next"
// parameter, or home.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.us.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.signIn(r.Context(), w, user); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, safeNext(r.FormValue("next")), http.StatusFound)
}

// handleLogout handles the route "POST /auth/logout/".
// It clears the cookie and rotates the remember token, so that copies of the
// old cookie stop working.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RememberCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
	})

	user := auth.GetUser(r.Context())
	token, err := s.us.MakeRememberToken()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user.Remember = token
	if err := s.us.Update(r.Context(), user); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// signIn is used to sign the given user in via cookies.
func (s *Server) signIn(ctx context.Context, w http.ResponseWriter, user *domain.User) error {
	if user.Remember == "" {
		token, err := s.us.MakeRememberToken()
		if err != nil {
			return err
		}
		user.Remember = token
		if err := s.us.Update(ctx, user); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RememberCookie,
		Value:    user.Remember,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// safeNext only allows redirects to local paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
