package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"blogFeed/auth"
	"blogFeed/errs"
)

func (s *Server) registerFeedRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/group/{slug}/", s.handleGroupFeed).Methods("GET")
	r.HandleFunc("/groups/", s.handleGroups).Methods("GET")
	r.HandleFunc("/profile/{username}/", s.handleProfile).Methods("GET")
	r.HandleFunc("/follow/", s.handleFollowFeed).Methods("GET")
}

// handleIndex handles the route "GET /".
// It returns a page of the global feed. Rendered pages are cached per resolved
// page number, so new, edited or deleted posts may show up late.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	number, err := s.feeds.GlobalPageNumber(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page := strconv.Itoa(number)
	compute := func(ctx context.Context) ([]byte, error) {
		feed, err := s.feeds.Global(ctx, page)
		if err != nil {
			return nil, err
		}
		return json.Marshal(feed)
	}

	var body []byte
	if s.feedCache != nil {
		body, err = s.feedCache.GetOrCompute(r.Context(), page, compute)
	} else {
		body, err = compute(r.Context())
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		errs.LogError(r, err)
	}
}

// handleGroupFeed handles the route "GET /group/{slug}/".
func (s *Server) handleGroupFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := s.feeds.Group(r.Context(), mux.Vars(r)["slug"], r.URL.Query().Get("page"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, feed)
}

// handleGroups handles the route "GET /groups/".
// It lists the groups a post can be published in.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.gs.All(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, groups)
}

// handleProfile handles the route "GET /profile/{username}/".
// It returns a page of the author's posts, their post count and whether the
// logged in user follows them.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	viewer := auth.GetUser(r.Context())
	feed, err := s.feeds.Author(r.Context(), mux.Vars(r)["username"], viewer, r.URL.Query().Get("page"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, feed)
}

// handleFollowFeed handles the route "GET /follow/".
// It returns a page of the posts of every author the logged in user follows.
func (s *Server) handleFollowFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := s.feeds.Followed(r.Context(), auth.GetUser(r.Context()), r.URL.Query().Get("page"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, feed)
}
