package http

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"blogFeed/auth"
	"blogFeed/domain"
	"blogFeed/errs"
)

func (s *Server) registerPostRoutes(r *mux.Router) {
	r.HandleFunc("/create/", s.handleCreatePost).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/", s.handlePostDetail).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/edit/", s.handleEditPost).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/delete/", s.handleDeletePost).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/comment/", s.handleAddComment).Methods("POST")
}

// handlePostDetail handles the route "GET /posts/{id}/".
// It returns the post, its comments and the number of posts of its author.
func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detail, err := s.ps.Detail(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

// handleCreatePost handles the route "POST /create/".
// It reads the post form, publishes the post and redirects to the author's profile.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	in, closeFn, err := parsePostForm(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer closeFn()

	_, next, err := s.ps.Create(r.Context(), auth.GetUser(r.Context()), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.wrote(r)
	http.Redirect(w, r, next, http.StatusFound)
}

// handleEditPost handles the route "POST /posts/{id}/edit/".
// Only the author of a post may edit it.
func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	in, closeFn, err := parsePostForm(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer closeFn()

	_, next, err := s.ps.Update(r.Context(), auth.GetUser(r.Context()), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.wrote(r)
	http.Redirect(w, r, next, http.StatusFound)
}

// handleDeletePost handles the route "POST /posts/{id}/delete/".
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	next, err := s.ps.Delete(r.Context(), auth.GetUser(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.wrote(r)
	http.Redirect(w, r, next, http.StatusFound)
}

// handleAddComment handles the route "POST /posts/{id}/comment/".
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	_, next, err := s.cs.Create(r.Context(), auth.GetUser(r.Context()), id, r.PostFormValue("text"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.wrote(r)
	http.Redirect(w, r, next, http.StatusFound)
}

// postID parses the post id from the url.
func postID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
	}
	return uint(id), nil
}

// parseForm parses urlencoded as well as multipart bodies. Upload sizes are
// checked by the image service, larger files are buffered on disk until then.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(domain.MaxUploadSize)
	if err == http.ErrNotMultipart {
		return nil
	}
	if err != nil {
		return errs.Errorf(errs.EINVALID, "The submitted form could not be read.")
	}
	return nil
}

// parsePostForm reads the fields of the post form: text, group, image and
// image-clear. The returned func closes the uploaded file, if there is one.
func parsePostForm(r *http.Request) (domain.PostInput, func(), error) {
	noop := func() {}
	if err := parseForm(r); err != nil {
		return domain.PostInput{}, noop, err
	}

	in := domain.PostInput{
		Text:       r.PostFormValue("text"),
		ClearImage: r.PostFormValue("image-clear") != "",
	}
	if raw := strings.TrimSpace(r.PostFormValue("group")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return domain.PostInput{}, noop, errs.Invalid("group", "Select a valid group. That choice is not one of the available choices.")
		}
		groupID := uint(id)
		in.GroupID = &groupID
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == http.ErrMissingFile || err == http.ErrNotMultipart:
		return in, noop, nil
	case err != nil:
		return domain.PostInput{}, noop, errs.Invalid("image", "The uploaded image could not be read.")
	}
	in.Image = upload(file, header)
	return in, func() { file.Close() }, nil
}

func upload(file multipart.File, header *multipart.FileHeader) *domain.Upload {
	return &domain.Upload{
		Filename: header.Filename,
		File:     file,
	}
}
