package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"dashboard/internal/domain"
	"dashboard/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Template Service - stored templates, drafts, publishing, revisions
// ─────────────────────────────────────────────────────────────

// TemplateService persists template documents and their revisions. Reads
// fall back to the template directory for templates never saved.
type TemplateService struct {
	store     domain.TemplateStore
	revisions domain.RevisionStore
	files     *storage.FileSource
	keep      int
	emitter   EventEmitter
	logger    *zap.Logger
}

// NewTemplateService creates a TemplateService. files may be nil; keep is
// the number of revisions kept per template (0 = storage default).
func NewTemplateService(
	store domain.TemplateStore,
	revisions domain.RevisionStore,
	files *storage.FileSource,
	keep int,
	emitter EventEmitter,
	logger *zap.Logger,
) *TemplateService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{
		store:     store,
		revisions: revisions,
		files:     files,
		keep:      keep,
		emitter:   emitter,
		logger:    logger,
	}
}

// TemplateListing is one entry of List. Source is "store" or "file".
type TemplateListing struct {
	domain.TemplateSummary
	Source string `json:"source"`
}

// List returns stored templates, most recent first, followed by template
// files that were never saved.
func (s *TemplateService) List(ctx context.Context) ([]TemplateListing, error) {
	stored, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TemplateListing, 0, len(stored))
	seen := make(map[string]bool, len(stored))
	for _, t := range stored {
		out = append(out, TemplateListing{TemplateSummary: t, Source: "store"})
		seen[t.ID] = true
	}
	if s.files == nil {
		return out, nil
	}
	ids, err := s.files.List()
	if err != nil {
		s.logger.Warn("templates: list template dir", zap.Error(err))
		return out, nil
	}
	sort.Strings(ids)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		out = append(out, TemplateListing{
			TemplateSummary: domain.TemplateSummary{ID: id, Name: id, Status: domain.TemplateDraft},
			Source:          "file",
		})
	}
	return out, nil
}

// Get returns the stored record, or one built from the template file when
// the template was never saved.
func (s *TemplateService) Get(ctx context.Context, id string) (*domain.TemplateRecord, error) {
	r, err := s.store.GetTemplate(ctx, id)
	if err == nil || !errors.Is(err, domain.ErrTemplateNotFound) || s.files == nil {
		return r, err
	}
	doc, ferr := s.files.Load(id)
	if ferr != nil {
		if errors.Is(ferr, domain.ErrTemplateNotFound) {
			return nil, err
		}
		return nil, ferr
	}
	return &domain.TemplateRecord{ID: id, Name: id, Status: domain.TemplateDraft, Document: doc}, nil
}

// Layout returns the page shell previews are rendered into.
func (s *TemplateService) Layout() (string, error) {
	if s.files == nil {
		return storage.DefaultLayout, nil
	}
	return s.files.Layout()
}

// Import validates doc and saves it as a draft under its templateId.
func (s *TemplateService) Import(ctx context.Context, doc domain.TemplateConfig, name string) (*domain.TemplateRecord, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("import template: %w", err)
	}
	return s.save(ctx, doc.TemplateID, name, doc, domain.RevisionSave, "import")
}

// SaveDraft stores doc as the template's draft and records a save revision.
func (s *TemplateService) SaveDraft(ctx context.Context, id string, doc domain.TemplateConfig, label string) (*domain.TemplateRecord, error) {
	if label == "" {
		label = "save"
	}
	return s.save(ctx, id, "", doc, domain.RevisionSave, label)
}

// Publish stores doc, marks the template published, bumps its version and
// records a publish revision.
func (s *TemplateService) Publish(ctx context.Context, id string, doc domain.TemplateConfig) (*domain.TemplateRecord, error) {
	r, err := s.save(ctx, id, "", doc, domain.RevisionPublish, "")
	if err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventTemplatePublished, map[string]any{"templateId": id, "version": r.Version})
	return r, nil
}

func (s *TemplateService) save(ctx context.Context, id, name string, doc domain.TemplateConfig, kind domain.RevisionKind, label string) (*domain.TemplateRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("save template: %w: empty id", domain.ErrInvalidDocument)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("save template %s: %w", id, err)
	}

	r, err := s.store.GetTemplate(ctx, id)
	exists := err == nil
	if err != nil && !errors.Is(err, domain.ErrTemplateNotFound) {
		return nil, err
	}
	if !exists {
		r = &domain.TemplateRecord{ID: id, Name: id}
	}
	if name != "" {
		r.Name = name
	}
	r.Document = doc

	switch kind {
	case domain.RevisionPublish:
		now := time.Now().UTC()
		r.Status = domain.TemplatePublished
		r.Version++
		r.PublishedAt = &now
		if label == "" {
			label = fmt.Sprintf("v%d", r.Version)
		}
	default:
		r.Status = domain.TemplateDraft
	}

	if exists {
		err = s.store.UpdateTemplate(ctx, r)
	} else {
		err = s.store.CreateTemplate(ctx, r)
	}
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	rev := &domain.TemplateRevision{TemplateID: id, Label: label, Kind: kind, SnapshotJSON: string(snapshot)}
	if err := s.revisions.PushRevision(ctx, rev, s.keep); err != nil {
		// A failed revision push does not fail the save
		s.logger.Warn("templates: push revision", zap.String("templateId", id), zap.Error(err))
	}
	s.logger.Info("templates: saved",
		zap.String("templateId", id),
		zap.String("kind", string(kind)),
		zap.Int("version", r.Version))
	return r, nil
}

// Delete removes a stored template and its revisions.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	if err := s.revisions.DeleteRevisions(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventTemplateDeleted, id)
	return nil
}

// Revisions lists a template's revisions, newest first.
func (s *TemplateService) Revisions(ctx context.Context, id string) ([]domain.TemplateRevision, error) {
	return s.revisions.ListRevisions(ctx, id)
}

// RevisionDocument decodes the document snapshot of a revision.
func (s *TemplateService) RevisionDocument(ctx context.Context, revisionID string) (*domain.TemplateRevision, domain.TemplateConfig, error) {
	rev, err := s.revisions.GetRevision(ctx, revisionID)
	if err != nil {
		return nil, domain.TemplateConfig{}, err
	}
	doc, err := storage.DecodeTemplate([]byte(rev.SnapshotJSON))
	if err != nil {
		return nil, domain.TemplateConfig{}, fmt.Errorf("decode revision %s: %w", revisionID, err)
	}
	return rev, doc, nil
}

// RestoreRevision saves a revision's snapshot as the current draft.
func (s *TemplateService) RestoreRevision(ctx context.Context, revisionID string) (*domain.TemplateRecord, error) {
	rev, doc, err := s.RevisionDocument(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	return s.SaveDraft(ctx, rev.TemplateID, doc, "restore "+rev.Label)
}
