package app

import (
	"dashboard/internal/domain"
	"dashboard/internal/engine"
	"dashboard/internal/service"
	"dashboard/internal/storage"
)

// ============================================================
// Templates and revisions
// ============================================================

func (a *App) ListTemplates() ([]service.TemplateListing, error) {
	return a.rt.Templates.List(a.ctx)
}

// ImportTemplate validates a template document given as JSON and stores
// it as a draft.
func (a *App) ImportTemplate(documentJSON, name string) (*domain.TemplateRecord, error) {
	doc, err := storage.DecodeTemplate([]byte(documentJSON))
	if err != nil {
		return nil, err
	}
	return a.rt.Templates.Import(a.ctx, doc, name)
}

func (a *App) DeleteTemplate(templateID string) error {
	return a.rt.Templates.Delete(a.ctx, templateID)
}

func (a *App) ListRevisions(templateID string) ([]domain.TemplateRevision, error) {
	return a.rt.Templates.Revisions(a.ctx, templateID)
}

// RevisionDocument returns the document stored with a revision, for the
// history panel's preview.
func (a *App) RevisionDocument(revisionID string) (domain.TemplateConfig, error) {
	_, doc, err := a.rt.Templates.RevisionDocument(a.ctx, revisionID)
	return doc, err
}

func (a *App) RestoreRevision(revisionID string) (*domain.TemplateRecord, error) {
	return a.rt.Templates.RestoreRevision(a.ctx, revisionID)
}

func (a *App) ListRenderers() []RendererView {
	fromFile := make(map[string]bool)
	for _, t := range a.rt.Renderers.FileTypes() {
		fromFile[t] = true
	}
	types := a.rt.Registry.Types()
	out := make([]RendererView, len(types))
	for i, t := range types {
		out[i] = RendererView{BlockType: t, FromFile: fromFile[t]}
	}
	return out
}

// ============================================================
// Storefront filters
// ============================================================

func (a *App) ListFilters() ([]domain.Filter, error) {
	if a.rt.Filters == nil {
		return nil, service.ErrGraphQLUnavailable
	}
	return a.rt.Filters.ListFilters(a.ctx)
}

// NormalizeFilter runs f through the filter form so the UI can show the
// derived display and options after a type change.
func (a *App) NormalizeFilter(f domain.Filter, filterType domain.FilterType) (domain.Filter, error) {
	form := engine.NewFilterForm(f)
	if filterType != "" {
		if err := form.SetType(filterType); err != nil {
			return f, err
		}
	}
	return form.Filter(), nil
}

func (a *App) SaveFilter(f domain.Filter) (domain.Filter, error) {
	if a.rt.Filters == nil {
		return domain.Filter{}, service.ErrGraphQLUnavailable
	}
	return a.rt.Filters.SaveFilter(a.ctx, engine.NewFilterForm(f))
}

func (a *App) DeleteFilter(id string) error {
	if a.rt.Filters == nil {
		return service.ErrGraphQLUnavailable
	}
	return a.rt.Filters.DeleteFilter(a.ctx, id)
}

func (a *App) MoveFilter(from, to int) ([]domain.Filter, error) {
	if a.rt.Filters == nil {
		return nil, service.ErrGraphQLUnavailable
	}
	return a.rt.Filters.MoveFilter(a.ctx, from, to)
}
