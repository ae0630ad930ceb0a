// Package httpserver serves a local JSON API over a session for a
// presentation layer.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/blackmichael/skygazer/internal/config"
	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/firehose"
	"github.com/blackmichael/skygazer/internal/pager"
	"github.com/blackmichael/skygazer/internal/session"
)

// AuthorWatcher follows new and deleted posts by a set of authors.
// *firehose.Subscriber implements it.
type AuthorWatcher interface {
	SetAuthors(dids []string)
}

// Server is the HTTP server that exposes the session's feed, post, user and
// interaction operations.
type Server struct {
	session    *session.Session
	watcher    AuthorWatcher
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP server over sess. watcher may be nil.
func NewServer(cfg *config.Config, sess *session.Session, watcher AuthorWatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		session: sess,
		watcher: watcher,
		logger:  logger,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler, wrapped with tracing and request
// logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/preferences", s.handleGetPreferences)
	mux.HandleFunc("PUT /api/preferences", s.handlePutPreferences)
	mux.HandleFunc("GET /api/feeds", s.handleSavedFeeds)

	mux.HandleFunc("GET /api/feed", s.handleView)
	mux.HandleFunc("POST /api/feed/open", s.handleOpen)
	mux.HandleFunc("POST /api/feed/more", s.pageOp(s.session.LoadMore))
	mux.HandleFunc("POST /api/feed/refresh", s.pageOp(s.session.Refresh))
	mux.HandleFunc("POST /api/feed/retry", s.pageOp(s.session.Retry))
	mux.HandleFunc("POST /api/feed/anchor", s.handleAnchor)

	mux.HandleFunc("GET /api/post", s.handleGetPost)
	mux.HandleFunc("POST /api/post/like", s.handleInteraction(s.session.ToggleLike))
	mux.HandleFunc("POST /api/post/repost", s.handleInteraction(s.session.ToggleRepost))
	mux.HandleFunc("POST /api/post/bookmark", s.handleBookmark)

	mux.HandleFunc("GET /api/user/{actor}", s.handleGetUser)
	mux.HandleFunc("POST /api/user/{actor}/follow", s.handleAuthorToggle(s.session.ToggleFollow))
	mux.HandleFunc("POST /api/user/{actor}/mute", s.handleAuthorToggle(s.session.ToggleMute))
	mux.HandleFunc("POST /api/user/{actor}/block", s.handleAuthorToggle(s.session.ToggleBlock))

	return otelhttp.NewHandler(withLogging(s.logger, mux), "skygazer")
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Preferences())
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs domain.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid preferences body")
		return
	}
	if err := s.session.PutPreferences(r.Context(), prefs); err != nil {
		s.fail(w, "failed to put preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Preferences())
}

func (s *Server) handleSavedFeeds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"feeds": s.session.Preferences().Feeds})
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	s.writeView(w, s.session.Pager().View())
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	feedURI := r.URL.Query().Get("feed")
	if feedURI == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "feed parameter is required")
		return
	}

	s.logger.Info("open feed request", "feed", feedURI)
	v, err := s.session.OpenFeed(r.Context(), feedURI)
	s.finishPageOp(w, v, err)
}

func (s *Server) pageOp(op func(context.Context) (pager.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := op(r.Context())
		s.finishPageOp(w, v, err)
	}
}

// finishPageOp writes the view after a page operation. A failed fetch is
// not a failed request: the view carries the error state and the posts
// loaded so far.
func (s *Server) finishPageOp(w http.ResponseWriter, v pager.View, err error) {
	var perr *pager.PageError
	switch {
	case err == nil:
	case errors.As(err, &perr):
		s.logger.Error("failed to load feed page",
			"feed", perr.FeedURI,
			"op", perr.Op,
			"cursor", perr.Cursor,
			"error", perr.Err,
		)
	default:
		s.fail(w, "page operation rejected", err)
		return
	}

	if s.watcher != nil && v.State != pager.StateError {
		s.watcher.SetAuthors(firehose.Authors(v.Posts))
	}
	s.writeView(w, v)
}

type viewResponse struct {
	pager.View
	Error *pageErrorResponse `json:"error,omitempty"`
}

type pageErrorResponse struct {
	Op      pager.Operation `json:"op"`
	Cursor  string          `json:"cursor,omitempty"`
	Message string          `json:"message"`
}

func (s *Server) writeView(w http.ResponseWriter, v pager.View) {
	resp := viewResponse{View: v}
	if v.Err != nil {
		resp.Error = &pageErrorResponse{Op: v.Err.Op, Cursor: v.Err.Cursor, Message: v.Err.Err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnchor(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "uri parameter is required")
		return
	}
	s.session.Pager().SetAnchor(uri)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "uri parameter is required")
		return
	}

	post, err := s.session.GetPostAtURI(r.Context(), uri)
	if err != nil {
		s.fail(w, "failed to get post", err)
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "NotFound", "post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// lookupPost finds the post named by the uri parameter in the open feed,
// falling back to a fetch.
func (s *Server) lookupPost(w http.ResponseWriter, r *http.Request) (domain.Post, bool) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "uri parameter is required")
		return domain.Post{}, false
	}
	for _, fp := range s.session.Pager().View().Posts {
		if fp.URI == uri {
			return fp.Post, true
		}
	}

	post, err := s.session.GetPostAtURI(r.Context(), uri)
	if err != nil {
		s.fail(w, "failed to get post", err)
		return domain.Post{}, false
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "NotFound", "post not found")
		return domain.Post{}, false
	}
	return *post, true
}

// handleInteraction answers with the projected post. The reconciled post
// lands in the open feed once the write completes.
func (s *Server) handleInteraction(toggle func(context.Context, domain.Post) session.Interaction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, ok := s.lookupPost(w, r)
		if !ok {
			return
		}

		in := toggle(r.Context(), post)
		if in.Err != nil {
			s.fail(w, "interaction refused", in.Err)
			return
		}
		go func() {
			rec := <-in.Reconciled
			if rec.Err != nil {
				s.logger.Error("interaction reverted", "uri", post.URI, "error", rec.Err)
			}
		}()
		writeJSON(w, http.StatusAccepted, in.Projected)
	}
}

func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request) {
	post, ok := s.lookupPost(w, r)
	if !ok {
		return
	}
	post, err := s.session.ToggleBookmark(r.Context(), post)
	if err != nil {
		s.fail(w, "failed to toggle bookmark", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	actor := r.PathValue("actor")

	withPinned := false
	if p := r.URL.Query().Get("pinned"); p != "" {
		parsed, err := strconv.ParseBool(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "InvalidRequest", "pinned must be a boolean")
			return
		}
		withPinned = parsed
	}

	user, err := s.session.GetFullUser(r.Context(), actor, withPinned)
	if err != nil {
		s.fail(w, "failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAuthorToggle(toggle func(context.Context, domain.Author) (domain.Author, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := r.PathValue("actor")
		user, err := s.session.GetFullUser(r.Context(), actor, false)
		if err != nil {
			s.fail(w, "failed to get user", err)
			return
		}

		author, err := toggle(r.Context(), user.Author)
		if err != nil {
			s.fail(w, "failed to toggle relationship", err)
			return
		}
		writeJSON(w, http.StatusOK, author)
	}
}

// fail logs err and answers with the status its kind maps to.
func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status, errType := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "error", err)
	} else {
		s.logger.Warn(msg, "error", err)
	}
	writeError(w, status, errType, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized, "AuthRequired"
	case errors.Is(err, domain.ErrLoadInFlight):
		return http.StatusConflict, "LoadInFlight"
	case errors.Is(err, domain.ErrNoActiveFeed):
		return http.StatusConflict, "NoActiveFeed"
	case errors.Is(err, domain.ErrInteractionPending):
		return http.StatusConflict, "InteractionPending"
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, "UpstreamError"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Timeout"
	default:
		return http.StatusInternalServerError, "InternalError"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		}
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			attrs = append(attrs, "trace_id", sc.TraceID().String())
		}
		logger.Info("http request", attrs...)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
