package engine

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"dashboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Block renderer registry
// ─────────────────────────────────────────────────────────────

// Renderer turns a runtime block into an HTML fragment.
type Renderer func(block domain.RuntimeBlock, ctx *RenderContext) string

// RenderContext is what a renderer sees of the document being rendered.
// Container renderers render their children through ctx.RenderBlock so
// they go through the same registry and context.
type RenderContext struct {
	Template     *domain.TemplateConfig
	Area         *domain.TemplateArea
	Global       map[string]any
	AreaSettings map[string]any
	// Parent is the container block when rendering a child block.
	Parent *domain.RuntimeBlock
	// Product is the catalogue item a product card is bound to, if any.
	Product map[string]any
	// Products is the catalogue listed by grids. Nil means sample data.
	Products []map[string]any

	registry *Registry
	self     *domain.RuntimeBlock
}

// RenderBlock renders a child block with this context, recording the
// block currently being rendered as the child's parent.
func (c *RenderContext) RenderBlock(child domain.RuntimeBlock) string {
	next := *c
	next.Parent = c.self
	next.self = nil
	return RenderBlock(child, &next, c.registry)
}

// Registry maps block types to renderers. Keys are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
	version   uint64
	logger    *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger reports missing and failing renderers to logger.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{renderers: make(map[string]Renderer), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) log() *zap.Logger {
	if r.logger == nil {
		return zap.NewNop()
	}
	return r.logger
}

func normalizeType(blockType string) string {
	return strings.TrimSpace(strings.ToLower(blockType))
}

// Register associates a renderer with a block type, replacing any previous one.
func (r *Registry) Register(blockType string, renderer Renderer) error {
	key := normalizeType(blockType)
	if key == "" {
		return fmt.Errorf("renderer registry: block type is empty")
	}
	if renderer == nil {
		return fmt.Errorf("renderer registry: renderer for %q is nil", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[key] = renderer
	r.version++
	return nil
}

// MustRegister is Register for static setup; it panics on error.
func (r *Registry) MustRegister(blockType string, renderer Renderer) {
	if err := r.Register(blockType, renderer); err != nil {
		panic(err)
	}
}

// Unregister removes a block type.
func (r *Registry) Unregister(blockType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.renderers[normalizeType(blockType)]; ok {
		delete(r.renderers, normalizeType(blockType))
		r.version++
	}
}

func (r *Registry) Lookup(blockType string) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.renderers[normalizeType(blockType)]
	return fn, ok
}

// Types lists registered block types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.renderers))
	for k := range r.renderers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Version changes every time the set of renderers changes.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Clone copies the registry so it can be extended independently.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := &Registry{renderers: make(map[string]Renderer, len(r.renderers)), logger: r.logger}
	for k, v := range r.renderers {
		c.renderers[k] = v
	}
	return c
}

// ── Rendering ──────────────────────────────────────────────

// MissingRendererFragment is shown in place of blocks without a renderer.
func MissingRendererFragment(blockType string) string {
	t := html.EscapeString(blockType)
	return `<div class="tpl-missing-renderer" data-block-type="` + t + `">Missing renderer for block type "` + t + `"</div>`
}

// RendererErrorFragment is shown when a renderer fails.
func RendererErrorFragment(blockType string, cause any) string {
	t := html.EscapeString(blockType)
	return `<div class="tpl-renderer-error" data-block-type="` + t + `">Renderer for block type "` + t +
		`" failed: ` + html.EscapeString(fmt.Sprint(cause)) + `</div>`
}

// RenderBlock renders one block. Disabled blocks render nothing; unknown
// block types and renderer panics render a visible diagnostic fragment.
func RenderBlock(block domain.RuntimeBlock, ctx *RenderContext, registry *Registry) (out string) {
	if block.Disabled {
		return ""
	}
	renderer, ok := registry.Lookup(block.BlockType)
	if !ok {
		registry.log().Debug("render: missing renderer",
			zap.String("blockType", block.BlockType), zap.String("blockId", block.ID))
		return MissingRendererFragment(block.BlockType)
	}

	bound := RenderContext{}
	if ctx != nil {
		bound = *ctx
	}
	bound.registry = registry
	bound.self = &block

	defer func() {
		if rec := recover(); rec != nil {
			registry.log().Warn("render: renderer panicked",
				zap.String("blockType", block.BlockType), zap.String("blockId", block.ID), zap.Any("panic", rec))
			out = RendererErrorFragment(block.BlockType, rec)
		}
	}()
	return renderer(block, &bound)
}

// RenderArea renders the enabled blocks of an enabled area in order.
func RenderArea(area domain.TemplateArea, template domain.TemplateConfig, registry *Registry) string {
	return renderArea(area, &template, FlattenSettings(template.Settings), nil, registry)
}

func renderArea(area domain.TemplateArea, template *domain.TemplateConfig, global map[string]any, catalog []map[string]any, registry *Registry) string {
	if area.Disabled {
		return ""
	}
	ctx := &RenderContext{
		Template:     template,
		Area:         &area,
		Global:       global,
		AreaSettings: FlattenSettings(area.Settings),
		Products:     catalog,
	}
	var sb strings.Builder
	for _, b := range area.Blocks {
		if b.Disabled {
			continue
		}
		sb.WriteString(RenderBlock(ToRuntimeBlock(b), ctx, registry))
	}
	return sb.String()
}

// RenderTemplate renders every area in order.
func RenderTemplate(template domain.TemplateConfig, registry *Registry) string {
	return RenderTemplateCatalog(template, nil, registry)
}

// RenderTemplateCatalog is RenderTemplate with a product catalogue exposed
// to renderers as RenderContext.Products.
func RenderTemplateCatalog(template domain.TemplateConfig, catalog []map[string]any, registry *Registry) string {
	global := FlattenSettings(template.Settings)
	var sb strings.Builder
	for _, a := range template.Areas {
		sb.WriteString(renderArea(a, &template, global, catalog, registry))
	}
	return sb.String()
}

// RenderAreasMap renders every area keyed by area id.
func RenderAreasMap(template domain.TemplateConfig, registry *Registry) map[string]string {
	return RenderAreasCatalog(template, nil, registry)
}

// RenderAreasCatalog is RenderAreasMap with a product catalogue.
func RenderAreasCatalog(template domain.TemplateConfig, catalog []map[string]any, registry *Registry) map[string]string {
	global := FlattenSettings(template.Settings)
	out := make(map[string]string, len(template.Areas))
	for _, a := range template.Areas {
		out[a.ID] = renderArea(a, &template, global, catalog, registry)
	}
	return out
}

var areaToken = regexp.MustCompile(`\{\{\s*area:([A-Za-z0-9_.\-]+)\s*\}\}`)

// RenderLayout substitutes {{area:<id>}} tokens in a layout shell with the
// rendered areas. Tokens naming unknown areas become empty.
func RenderLayout(layout string, areas map[string]string) string {
	return areaToken.ReplaceAllStringFunc(layout, func(tok string) string {
		m := areaToken.FindStringSubmatch(tok)
		return areas[m[1]]
	})
}
