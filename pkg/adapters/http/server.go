package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aretw0/algoviz"
	"github.com/aretw0/algoviz/internal/logging"
	"github.com/aretw0/algoviz/pkg/domain"
	"github.com/aretw0/algoviz/pkg/navigation"
	"github.com/aretw0/algoviz/pkg/registry"
	"github.com/aretw0/algoviz/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes a session manager over JSON and streaming endpoints.
type Server struct {
	Sessions *session.Manager

	doc      *openapi3.T
	gatherer prometheus.Gatherer
	origins  []string
	lang     string
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer selects the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithCORSOrigins sets the allowed origins. "*" allows any.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithLang selects the manifest language of the index page.
func WithLang(lang string) Option {
	return func(s *Server) {
		s.lang = lang
	}
}

// NewHandler creates the HTTP handler for the sessions of mgr.
func NewHandler(ctx context.Context, mgr *session.Manager, opts ...Option) (http.Handler, error) {
	s := &Server{
		Sessions: mgr,
		gatherer: prometheus.DefaultGatherer,
		origins:  []string{"*"},
		lang:     "en",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := GetSwagger(ctx)
	if err != nil {
		return nil, err
	}
	s.doc = doc
	validate, err := validateRequests(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/", s.Index)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(validate)

		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)
		r.Get("/visualizers", s.ListVisualizers)
		r.Get("/visualizers/{id}", s.GetVisualizer)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.ListSessions)
			r.Post("/", s.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetSession)
				r.Delete("/", s.DeleteSession)
				r.Post("/start", s.StartSession)
				r.Post("/next", s.NextStep)
				r.Post("/forward", s.StepForward)
				r.Post("/back", s.StepBack)
				r.Post("/seek", s.SeekStep)
				r.Get("/stream", s.StreamSession)
				r.Get("/events", s.SubscribeEvents)
			})
		})
	})

	return r, nil
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	if slices.Contains(s.origins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(s.origins, origin) {
		return origin
	}
	return ""
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.doc != nil && s.doc.Info != nil {
		apiVersion = s.doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "algoviz-http",
		"version":     strings.TrimSpace(algoviz.Version),
		"api_version": apiVersion,
	})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head><meta charset="utf-8" /><title>algoviz</title></head>
<body>
<h1>algoviz</h1>
<ul>
{{range .Items}}<li><a href="/visualizers/{{.ID}}">{{.Name}}</a>: {{.Description}}</li>
{{end}}</ul>
<p><a href="/swagger">API documentation</a></p>
</body>
</html>
`))

// Index handles GET /, listing the visualizers.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	type item struct{ ID, Name, Description string }
	data := struct {
		Lang  string
		Items []item
	}{Lang: s.lang}
	for _, m := range s.Sessions.Registry().List() {
		data.Items = append(data.Items, item{
			ID:          m.ID,
			Name:        m.Name.Get(s.lang),
			Description: m.Description.Get(s.lang),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("index render failed", "err", err)
	}
}

// ListVisualizers handles GET /visualizers.
func (s *Server) ListVisualizers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sessions.Registry().List())
}

type visualizerDetail struct {
	Manifest    domain.Manifest `json:"manifest"`
	DefaultArgs map[string]any  `json:"defaultArgs"`
}

// GetVisualizer handles GET /visualizers/{id}.
func (s *Server) GetVisualizer(w http.ResponseWriter, r *http.Request) {
	v, err := s.Sessions.Registry().Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	args, err := v.DefaultArgs()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visualizerDetail{Manifest: v.Manifest(), DefaultArgs: args})
}

type sessionView struct {
	*session.Session
	Snapshot *domain.Snapshot `json:"snapshot"`
	Frame    navigation.Frame `json:"frame"`
}

func viewOf(sess *session.Session) sessionView {
	return sessionView{
		Session:  sess,
		Snapshot: sess.Store.View(),
		Frame:    sess.Navigator.Current(),
	}
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.Sessions.List()
	out := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, viewOf(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

type createSessionRequest struct {
	Visualizer string         `json:"visualizer"`
	Start      bool           `json:"start"`
	Args       map[string]any `json:"args"`
	NoStop     bool           `json:"noStop"`
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	sess, err := s.Sessions.Create(r.Context(), body.Visualizer)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Start {
		if _, err := s.Sessions.Start(r.Context(), sess.ID, body.Args, body.NoStop); err != nil {
			s.Sessions.Delete(context.WithoutCancel(r.Context()), sess.ID)
			s.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type startRequest struct {
	Args   map[string]any `json:"args"`
	NoStop bool           `json:"noStop"`
}

// StartSession handles POST /sessions/{id}/start.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	snap, err := s.Sessions.Start(r.Context(), chi.URLParam(r, "id"), body.Args, body.NoStop)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// NextStep handles POST /sessions/{id}/next.
func (s *Server) NextStep(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Next(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// StepForward handles POST /sessions/{id}/forward.
func (s *Server) StepForward(w http.ResponseWriter, r *http.Request) {
	frame, err := s.Sessions.Forward(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

// StepBack handles POST /sessions/{id}/back.
func (s *Server) StepBack(w http.ResponseWriter, r *http.Request) {
	frame, err := s.Sessions.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

// SeekStep handles POST /sessions/{id}/seek.
func (s *Server) SeekStep(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	frame, err := s.Sessions.Seek(r.Context(), chi.URLParam(r, "id"), body.Index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

// fail maps a domain error to a status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeError(w, status, err)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrVisualizerNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrInvalidArgs):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
