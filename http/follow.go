package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"blogFeed/auth"
)

func (s *Server) registerFollowRoutes(r *mux.Router) {
	r.HandleFunc("/profile/{username}/follow/", s.handleFollow).Methods("POST")
	r.HandleFunc("/profile/{username}/unfollow/", s.handleUnfollow).Methods("POST")
}

// handleFollow handles the route "POST /profile/{username}/follow/".
// Following an author twice is harmless.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	next, err := s.fs.Follow(r.Context(), auth.GetUser(r.Context()), mux.Vars(r)["username"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.wrote(r)
	http.Redirect(w, r, next, http.StatusFound)
}

// handleUnfollow handles the route "POST /profile/{username}/unfollow/".
// Unfollowing an author that isn't followed is harmless as well.
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	next, err := s.fs.Unfollow(r.Context(), auth.GetUser(r.Context()), mux.Vars(r)["username"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.wrote(r)
	http.Redirect(w, r, next, http.StatusFound)
}
