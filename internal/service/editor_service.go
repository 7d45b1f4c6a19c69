package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
)

// ─────────────────────────────────────────────────────────────
// Editor Service - open editing sessions shared by UI and MCP
// ─────────────────────────────────────────────────────────────

// ErrSaveInProgress is returned by autosave for a template whose save is
// already running. Manual saves wait their turn instead.
var ErrSaveInProgress = errors.New("save already in progress")

// CatalogSource supplies the products listed by previews.
type CatalogSource interface {
	Products(ctx context.Context) ([]map[string]any, error)
}

// EditorService owns the open editor sessions. Every session has its own
// lock; the desktop UI and MCP tools may drive the same session.
type EditorService struct {
	templates    *TemplateService
	registry     *engine.Registry
	catalog      CatalogSource
	historyLimit int
	emitter      EventEmitter
	logger       *zap.Logger
	saves        saveGuard

	mu       sync.Mutex
	sessions map[string]*editorSession
}

type editorSession struct {
	mu         sync.Mutex
	id         string
	templateID string
	openedAt   time.Time
	session    *engine.Session
}

// SessionInfo describes an open session.
type SessionInfo struct {
	ID         string        `json:"id"`
	TemplateID string        `json:"templateId"`
	Dirty      bool          `json:"dirty"`
	CanUndo    bool          `json:"canUndo"`
	CanRedo    bool          `json:"canRedo"`
	Selection  engine.Target `json:"selection"`
	OpenedAt   time.Time     `json:"openedAt"`
}

// NewEditorService creates an EditorService. catalog may be nil, in which
// case previews use the renderers' sample products.
func NewEditorService(
	templates *TemplateService,
	registry *engine.Registry,
	catalog CatalogSource,
	historyLimit int,
	emitter EventEmitter,
	logger *zap.Logger,
) *EditorService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorService{
		templates:    templates,
		registry:     registry,
		catalog:      catalog,
		historyLimit: historyLimit,
		emitter:      emitter,
		logger:       logger,
		sessions:     make(map[string]*editorSession),
	}
}

// Registry returns the renderer registry sessions preview with.
func (s *EditorService) Registry() *engine.Registry { return s.registry }

// Templates returns the underlying TemplateService.
func (s *EditorService) Templates() *TemplateService { return s.templates }

// Open loads a template and starts a session on it.
func (s *EditorService) Open(ctx context.Context, templateID string) (SessionInfo, error) {
	rec, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("open template %s: %w", templateID, err)
	}
	es := &editorSession{
		id:         uuid.NewString(),
		templateID: templateID,
		openedAt:   time.Now().UTC(),
		session:    engine.NewSession(rec.Document, s.registry, s.historyLimit),
	}
	if s.catalog != nil {
		products, err := s.catalog.Products(ctx)
		if err != nil {
			s.logger.Warn("editor: catalogue unavailable, using sample products", zap.Error(err))
		} else {
			es.session.SetCatalog(products)
		}
	}

	s.mu.Lock()
	s.sessions[es.id] = es
	s.mu.Unlock()

	s.logger.Info("editor: session opened", zap.String("sessionId", es.id), zap.String("templateId", templateID))
	return es.info(), nil
}

// Close discards a session. Unsaved changes are lost.
func (s *EditorService) Close(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("close session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	delete(s.sessions, sessionID)
	return nil
}

// Sessions lists the open sessions, oldest first.
func (s *EditorService) Sessions() []SessionInfo {
	s.mu.Lock()
	list := make([]*editorSession, 0, len(s.sessions))
	for _, es := range s.sessions {
		list = append(list, es)
	}
	s.mu.Unlock()

	out := make([]SessionInfo, 0, len(list))
	for _, es := range list {
		es.mu.Lock()
		out = append(out, es.info())
		es.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

// Info describes one session.
func (s *EditorService) Info(sessionID string) (SessionInfo, error) {
	es, err := s.lookup(sessionID)
	if err != nil {
		return SessionInfo{}, err
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.info(), nil
}

// Edit runs fn against the session under its lock. When fn reports a
// change, editor:changed is emitted.
func (s *EditorService) Edit(ctx context.Context, sessionID string, fn func(*engine.Session) bool) (bool, error) {
	es, err := s.lookup(sessionID)
	if err != nil {
		return false, err
	}
	es.mu.Lock()
	changed := fn(es.session)
	info := es.info()
	es.mu.Unlock()

	if changed {
		s.emitter.Emit(ctx, EventEditorChanged, info)
	}
	return changed, nil
}

// View runs fn against the session under its lock without emitting.
func (s *EditorService) View(sessionID string, fn func(*engine.Session)) error {
	es, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	es.mu.Lock()
	defer es.mu.Unlock()
	fn(es.session)
	return nil
}

// Save stores the session's document as a draft. It waits for a running
// save of the same template and then writes the latest document.
func (s *EditorService) Save(ctx context.Context, sessionID, label string) (*domain.TemplateRecord, error) {
	return s.persist(ctx, sessionID, true, func(templateID string, doc domain.TemplateConfig) (*domain.TemplateRecord, error) {
		return s.templates.SaveDraft(ctx, templateID, doc, label)
	})
}

// Publish stores and publishes the session's document.
func (s *EditorService) Publish(ctx context.Context, sessionID string) (*domain.TemplateRecord, error) {
	return s.persist(ctx, sessionID, true, func(templateID string, doc domain.TemplateConfig) (*domain.TemplateRecord, error) {
		return s.templates.Publish(ctx, templateID, doc)
	})
}

func (s *EditorService) persist(
	ctx context.Context,
	sessionID string,
	queue bool,
	write func(templateID string, doc domain.TemplateConfig) (*domain.TemplateRecord, error),
) (*domain.TemplateRecord, error) {
	es, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if queue {
		if err := s.saves.Lock(ctx, es.templateID); err != nil {
			return nil, fmt.Errorf("save template %s: %w", es.templateID, err)
		}
	} else if !s.saves.TryLock(es.templateID) {
		return nil, fmt.Errorf("save template %s: %w", es.templateID, ErrSaveInProgress)
	}
	defer s.saves.Unlock(es.templateID)

	es.mu.Lock()
	defer es.mu.Unlock()
	rec, err := write(es.templateID, es.session.Document())
	if err != nil {
		return nil, err
	}
	es.session.MarkSaved()
	s.emitter.Emit(ctx, EventEditorSaved, es.info())
	return rec, nil
}

// DirtySessions lists the ids of sessions with unsaved changes.
func (s *EditorService) DirtySessions() []string {
	var out []string
	for _, info := range s.Sessions() {
		if info.Dirty {
			out = append(out, info.ID)
		}
	}
	return out
}

// SaveDirty saves every dirty session as a draft, skipping templates whose
// save is already in flight. It returns how many sessions were saved.
func (s *EditorService) SaveDirty(ctx context.Context, label string) (int, error) {
	var (
		saved int
		errs  []error
	)
	for _, id := range s.DirtySessions() {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		_, err := s.persist(ctx, id, false, func(templateID string, doc domain.TemplateConfig) (*domain.TemplateRecord, error) {
			return s.templates.SaveDraft(ctx, templateID, doc, label)
		})
		switch {
		case err == nil:
			saved++
		case errors.Is(err, ErrSaveInProgress), errors.Is(err, domain.ErrSessionNotFound):
		default:
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}
	return saved, errors.Join(errs...)
}

// WaitSaves blocks until saves in flight finish or ctx is done.
func (s *EditorService) WaitSaves(ctx context.Context) {
	s.saves.WaitAll(ctx)
}

func (s *EditorService) lookup(sessionID string) (*editorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	es, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return es, nil
}

// info must be called with es.mu held.
func (es *editorSession) info() SessionInfo {
	return SessionInfo{
		ID:         es.id,
		TemplateID: es.templateID,
		Dirty:      es.session.Dirty(),
		CanUndo:    es.session.CanUndo(),
		CanRedo:    es.session.CanRedo(),
		Selection:  es.session.Selection(),
		OpenedAt:   es.openedAt,
	}
}
