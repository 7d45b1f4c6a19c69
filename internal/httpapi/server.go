package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
	"dashboard/internal/service"
)

// Server exposes template previews and the open editor sessions over HTTP,
// so a browser can show the storefront page next to the editor.
type Server struct {
	editor    *service.EditorService
	templates *service.TemplateService
	logger    *zap.Logger
	router    *mux.Router
}

func New(editor *service.EditorService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		editor:    editor,
		templates: editor.Templates(),
		logger:    logger,
		router:    mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// Templates
	r.HandleFunc("/api/templates", s.listTemplates).Methods("GET")
	r.HandleFunc("/api/templates/{id}", s.getTemplate).Methods("GET")
	r.HandleFunc("/api/templates/{id}/revisions", s.listRevisions).Methods("GET")
	r.HandleFunc("/preview/{id}", s.previewTemplate).Methods("GET")

	// Sessions
	r.HandleFunc("/api/sessions", s.listSessions).Methods("GET")
	r.HandleFunc("/api/sessions", s.openSession).Methods("POST")
	r.HandleFunc("/api/sessions/{sid}", s.closeSession).Methods("DELETE")
	r.HandleFunc("/api/sessions/{sid}/document", s.sessionDocument).Methods("GET")
	r.HandleFunc("/api/sessions/{sid}/undo", s.undo).Methods("POST")
	r.HandleFunc("/api/sessions/{sid}/redo", s.redo).Methods("POST")
	r.HandleFunc("/preview/sessions/{sid}", s.previewSession).Methods("GET")

	r.HandleFunc("/api/renderers", s.listRenderers).Methods("GET")
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http: preview server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// ── Templates ──────────────────────────────────────────────

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.templates.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, list)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	rec, err := s.templates.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, rec)
}

func (s *Server) listRevisions(w http.ResponseWriter, r *http.Request) {
	revs, err := s.templates.Revisions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, revs)
}

func (s *Server) previewTemplate(w http.ResponseWriter, r *http.Request) {
	rec, err := s.templates.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	layout, err := s.templates.Layout()
	if err != nil {
		s.fail(w, err)
		return
	}
	areas := engine.RenderAreasMap(rec.Document, s.editor.Registry())
	writeHTML(w, engine.RenderLayout(layout, areas))
}

// ── Sessions ───────────────────────────────────────────────

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.editor.Sessions())
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID string `json:"templateId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TemplateID == "" {
		http.Error(w, "templateId is required", http.StatusBadRequest)
		return
	}
	info, err := s.editor.Open(r.Context(), req.TemplateID)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(info)
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.Close(mux.Vars(r)["sid"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionDocument(w http.ResponseWriter, r *http.Request) {
	var doc domain.TemplateConfig
	err := s.editor.View(mux.Vars(r)["sid"], func(sess *engine.Session) { doc = sess.Document() })
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, doc)
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, (*engine.Session).Undo)
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, (*engine.Session).Redo)
}

func (s *Server) step(w http.ResponseWriter, r *http.Request, fn func(*engine.Session) bool) {
	sid := mux.Vars(r)["sid"]
	changed, err := s.editor.Edit(r.Context(), sid, fn)
	if err != nil {
		s.fail(w, err)
		return
	}
	info, err := s.editor.Info(sid)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, map[string]any{"changed": changed, "session": info})
}

func (s *Server) previewSession(w http.ResponseWriter, r *http.Request) {
	layout, err := s.templates.Layout()
	if err != nil {
		s.fail(w, err)
		return
	}
	var html string
	err = s.editor.View(mux.Vars(r)["sid"], func(sess *engine.Session) { html = sess.PreviewLayout(layout) })
	if err != nil {
		s.fail(w, err)
		return
	}
	writeHTML(w, html)
}

func (s *Server) listRenderers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.editor.Registry().Types())
}

// ── helpers ─────────────────────────────────────────────────

func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTemplateNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrRevisionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidDocument):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.logger.Error("http: request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}
