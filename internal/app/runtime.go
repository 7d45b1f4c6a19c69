package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"dashboard/internal/config"
	"dashboard/internal/domain"
	"dashboard/internal/engine"
	"dashboard/internal/graphql"
	"dashboard/internal/plugins"
	"dashboard/internal/secret"
	"dashboard/internal/service"
	"dashboard/internal/storage"
)

// Runtime is the wired set of stores and services shared by the desktop
// app, the MCP server and the CLI commands.
type Runtime struct {
	Config    *config.Config
	Logger    *zap.Logger
	Registry  *engine.Registry
	Templates *service.TemplateService
	Editor    *service.EditorService
	Renderers *service.RendererService
	Autosave  *service.AutosaveScheduler
	Filters   *service.FilterService // nil without a GraphQL endpoint

	secrets secret.SecretStore
	closers []func(context.Context) error
}

// RuntimeOption customises NewRuntime.
type RuntimeOption func(*Runtime)

// WithSecrets replaces the platform secret store.
func WithSecrets(store secret.SecretStore) RuntimeOption {
	return func(rt *Runtime) { rt.secrets = store }
}

// NewRuntime opens the configured store and builds every service on top of
// it. File renderers are loaded; watching and autosave are left to Start.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger, emitter service.EventEmitter, opts ...RuntimeOption) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if emitter == nil {
		emitter = service.NopEmitter{}
	}
	rt := &Runtime{Config: cfg, Logger: logger, secrets: secret.Default()}
	for _, opt := range opts {
		opt(rt)
	}

	templates, revisions, err := rt.openStore(ctx)
	if err != nil {
		return nil, err
	}

	var files *storage.FileSource
	if cfg.Templates.Dir != "" {
		files = storage.NewFileSource(cfg.Templates.Dir, cfg.Templates.LayoutFile)
	}
	rt.Templates = service.NewTemplateService(templates, revisions, files, cfg.Revisions.Keep, emitter, logger)

	var catalog service.CatalogSource
	token, err := secret.Lookup(rt.secrets, secret.GraphQLTokenKey, cfg.GraphQL.Token)
	if err != nil {
		logger.Warn("runtime: graphql token unavailable", zap.Error(err))
	}
	client := graphql.NewClient(cfg.GraphQL.URL, token, cfg.GraphQLTimeout())
	if client.Configured() {
		catalog = service.NewGraphQLCatalog(client, 0)
		rt.Filters = service.NewFilterService(client, emitter, logger)
	}

	rt.Registry = plugins.NewRegistry()
	rt.Renderers = service.NewRendererService(rt.Registry, cfg.Templates.RenderersDir, emitter, logger)
	if err := rt.Renderers.Load(ctx); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("load renderers: %w", err)
	}

	rt.Editor = service.NewEditorService(rt.Templates, rt.Registry, catalog, cfg.Editor.HistoryLimit, emitter, logger)
	rt.Autosave = service.NewAutosaveScheduler(rt.Editor, cfg.Editor.Autosave, logger)
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context) (domain.TemplateStore, domain.RevisionStore, error) {
	cfg := rt.Config
	if cfg.Store.Driver == "mongodb" {
		mongo, err := storage.OpenMongo(ctx, cfg.Store.DSN, cfg.Store.Database)
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, mongo.Close)
		rt.Logger.Info("runtime: using mongodb store", zap.String("database", cfg.Store.Database))
		return mongo, mongo, nil
	}

	db, err := storage.Open(ctx, storage.Dialect(cfg.Store.Driver), cfg.Store.DSN, cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	rt.closers = append(rt.closers, func(context.Context) error { return db.Close() })
	rt.Logger.Info("runtime: using sql store", zap.String("dialect", string(db.Dialect())))
	return storage.NewTemplateStore(db), storage.NewRevisionStore(db), nil
}

// Start begins renderer watching (when configured) and autosave.
func (rt *Runtime) Start(ctx context.Context) error {
	if rt.Config.Templates.Watch && rt.Config.Templates.RenderersDir != "" {
		if err := rt.Renderers.Watch(ctx); err != nil {
			return fmt.Errorf("watch renderers: %w", err)
		}
	}
	return rt.Autosave.Start(ctx)
}

// Close stops the background workers, waits for running saves and closes
// the store.
func (rt *Runtime) Close(ctx context.Context) error {
	if rt.Autosave != nil {
		rt.Autosave.Stop()
	}
	if rt.Renderers != nil {
		rt.Renderers.Stop()
	}
	if rt.Editor != nil {
		rt.Editor.WaitSaves(ctx)
	}
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
