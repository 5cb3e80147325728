package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"blogFeed/auth"
	"blogFeed/cache"
	"blogFeed/crud"
	"blogFeed/domain"
	"blogFeed/errs"
	"blogFeed/logging"
)

// Options are the settings of the http layer that don't come with the services.
type Options struct {
	// CSRFKey enables csrf protection of all unsafe requests when set. It must
	// be 32 bytes long.
	CSRFKey string
	// Secure marks cookies as https only.
	Secure bool
	// MediaRoot is the directory image references are resolved against.
	MediaRoot string
	// InvalidateFeedOnWrite evicts the cached global feed after every
	// successful write instead of waiting for it to expire.
	InvalidateFeedOnWrite bool
}

// Server provides the http surface of the blog, namely routing, request
// handling, and middleware. It resolves the logged in user and hands the
// actual work over to the crud services.
type Server struct {
	router *mux.Router
	opts   Options

	us domain.UserService
	gs domain.GroupService
	ps domain.PostService
	cs domain.CommentService
	fs domain.FollowService
	feeds domain.FeedService

	feedCache   *cache.FeedCache
	requireUser *auth.RequireUserMw
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the services passed in.
func NewServer(services *crud.Services, feedCache *cache.FeedCache, opts Options) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		opts:        opts,
		us:          services.User,
		gs:          services.Group,
		ps:          services.Post,
		cs:          services.Comment,
		fs:          services.Follow,
		feeds:       services.Feed,
		feedCache:   feedCache,
		requireUser: &auth.RequireUserMw{},
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errs.ReturnError(w, r, errs.Errorf(errs.ENOTFOUND, "Page not found."))
	})

	// Register routes of the auth system.
	s.registerAuthRoutes(s.router)

	// Register routes of the blog.
	s.registerFeedRoutes(s.router)
	s.registerPostRoutes(s.router)
	s.registerFollowRoutes(s.router)
	s.registerMediaRoutes(s.router)

	// Set up middleware that needs to run on every request.
	userMw := &auth.UserMw{UserService: s.us}
	mws := []mux.MiddlewareFunc{logRequests}
	if opts.CSRFKey != "" {
		csrfMw := csrf.Protect([]byte(opts.CSRFKey), csrf.Secure(opts.Secure), csrf.Path("/"))
		mws = append(mws, csrfMw, exposeCSRFToken)
	}
	mws = append(mws, userMw.Apply)
	s.router.Use(mws...)
	return s
}

// ServeHTTP lets the server be used as a plain http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run starts to listen and serve on the specified port until ctx is done.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Log.WithError(err).Error("http shutdown")
		}
	}()
	logging.Log.WithField("port", port).Info("listening")
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// logRequests logs every request once it has been served.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.Log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

// exposeCSRFToken hands the csrf token to json clients on every response.
func exposeCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CSRF-Token", csrf.Token(r))
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes v as the json body of a response.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errs.LogError(r, err)
	}
}

// fail reports err to the client. Anonymous clients that hit an action
// requiring a login are sent to the login page instead.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errs.Is(err, errs.EUNAUTHORIZED) && auth.GetUser(r.Context()) == nil {
		http.Redirect(w, r, auth.LoginURL(r.URL.RequestURI()), http.StatusFound)
		return
	}
	errs.ReturnError(w, r, err)
}

// wrote is called after every successful write.
func (s *Server) wrote(r *http.Request) {
	if !s.opts.InvalidateFeedOnWrite || s.feedCache == nil {
		return
	}
	if err := s.feedCache.Invalidate(r.Context()); err != nil {
		errs.LogError(r, err)
	}
}
