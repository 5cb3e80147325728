package http

import (
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
)

func (s *Server) registerMediaRoutes(r *mux.Router) {
	if s.opts.MediaRoot == "" {
		return
	}
	files := http.StripPrefix("/media/", http.FileServer(mediaDir{http.Dir(s.opts.MediaRoot)}))
	r.PathPrefix("/media/").Handler(files).Methods("GET", "HEAD")
}

// mediaDir serves the files below the media root but never lists directories.
type mediaDir struct {
	root http.Dir
}

func (d mediaDir) Open(name string) (http.File, error) {
	if strings.HasSuffix(name, "/") {
		return nil, os.ErrNotExist
	}
	f, err := d.root.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
