package plugins

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dashboard/internal/domain"
	"dashboard/internal/engine"
)

// ─────────────────────────────────────────────────────────────
// File renderers - <renderers_dir>/<blockType>.html
// ─────────────────────────────────────────────────────────────

// FileExt is the extension of renderer template files.
const FileExt = ".html"

// TemplateData is what a renderer template executes against.
type TemplateData struct {
	Block    domain.RuntimeBlock
	Settings map[string]any
	Global   map[string]any
	Area     map[string]any
	Product  map[string]any
	// Children is the rendered HTML of the block's child blocks.
	Children template.HTML
}

var templateFuncs = template.FuncMap{
	"markdown": func(s any) template.HTML { return template.HTML(Markdown(fmt.Sprint(s))) },
	"sanitize": func(s any) template.HTML { return template.HTML(SanitizeHTML(fmt.Sprint(s))) },
	"setting": func(m map[string]any, key string, fallback any) any {
		if v, ok := m[key]; ok && v != nil && v != "" {
			return v
		}
		return fallback
	},
}

// ParseRenderer compiles template source into a renderer for blockType.
// A source that does not parse yields a renderer showing the parse error,
// so a broken file is visible in the preview and never takes down other
// block types.
func ParseRenderer(blockType, src string) (engine.Renderer, error) {
	tmpl, err := template.New(blockType).Funcs(templateFuncs).Parse(src)
	if err != nil {
		return diagnosticRenderer(blockType, err), fmt.Errorf("parse renderer %s: %w", blockType, err)
	}
	return templateRenderer(blockType, tmpl), nil
}

func templateRenderer(blockType string, tmpl *template.Template) engine.Renderer {
	return func(b domain.RuntimeBlock, ctx *engine.RenderContext) string {
		data := TemplateData{Block: b, Settings: b.Settings}
		if ctx != nil {
			data.Global = ctx.Global
			data.Area = ctx.AreaSettings
			data.Product = ctx.Product
			var children strings.Builder
			for _, child := range b.Blocks {
				children.WriteString(ctx.RenderBlock(child))
			}
			data.Children = template.HTML(children.String())
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return engine.RendererErrorFragment(blockType, err)
		}
		return buf.String()
	}
}

func diagnosticRenderer(blockType string, cause error) engine.Renderer {
	return func(domain.RuntimeBlock, *engine.RenderContext) string {
		return engine.RendererErrorFragment(blockType, cause)
	}
}

// BlockTypeFromFile maps "<dir>/product_card.html" to "product_card".
// Files with another extension report false.
func BlockTypeFromFile(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.EqualFold(filepath.Ext(base), FileExt) || strings.HasPrefix(base, ".") {
		return "", false
	}
	return strings.TrimSuffix(base, filepath.Ext(base)), true
}

// LoadFile reads and compiles one renderer file.
func LoadFile(path string) (string, engine.Renderer, error) {
	blockType, ok := BlockTypeFromFile(path)
	if !ok {
		return "", nil, fmt.Errorf("load renderer %s: not a %s file", path, FileExt)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return blockType, nil, fmt.Errorf("load renderer %s: %w", path, err)
	}
	fn, err := ParseRenderer(blockType, string(src))
	return blockType, fn, err
}

// LoadDir compiles every renderer file in dir concurrently. Files that fail
// to parse are still returned, as diagnostic renderers, and logged. A
// missing directory yields no renderers and no error.
func LoadDir(ctx context.Context, dir string, logger *zap.Logger) (map[string]engine.Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]engine.Renderer{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read renderers dir: %w", err)
	}

	var (
		mu  sync.Mutex
		out = make(map[string]engine.Renderer)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, ok := BlockTypeFromFile(path); !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			blockType, fn, err := LoadFile(path)
			if fn == nil {
				return err
			}
			if err != nil {
				logger.Warn("renderers: template does not parse", zap.String("file", path), zap.Error(err))
			}
			mu.Lock()
			out[blockType] = fn
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("renderers: loaded", zap.String("dir", dir), zap.Strings("types", sortedKeys(out)))
	return out, nil
}

func sortedKeys(m map[string]engine.Renderer) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
