package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dashboard/internal/domain"
)

// DefaultLayout is the page shell used when no layout file is configured.
const DefaultLayout = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Preview</title></head>
<body>
<div class="tpl-page">
  <aside class="tpl-page__filters">{{area:filters}}</aside>
  <main class="tpl-page__products">{{area:products}}</main>
</div>
</body>
</html>
`

// FileSource reads template documents shipped as <dir>/<templateId>.json.
type FileSource struct {
	dir        string
	layoutFile string
}

// NewFileSource reads templates from dir. layoutFile may be empty, or
// relative to dir.
func NewFileSource(dir, layoutFile string) *FileSource {
	if layoutFile != "" && !filepath.IsAbs(layoutFile) {
		layoutFile = filepath.Join(dir, layoutFile)
	}
	return &FileSource{dir: dir, layoutFile: layoutFile}
}

func (f *FileSource) Dir() string { return f.dir }

// Load reads and validates one template document.
func (f *FileSource) Load(templateID string) (domain.TemplateConfig, error) {
	var doc domain.TemplateConfig
	if templateID == "" || strings.ContainsAny(templateID, `/\`) || strings.HasPrefix(templateID, ".") {
		return doc, fmt.Errorf("load template %q: %w", templateID, domain.ErrTemplateNotFound)
	}
	data, err := os.ReadFile(filepath.Join(f.dir, templateID+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return doc, fmt.Errorf("load template %s: %w", templateID, domain.ErrTemplateNotFound)
	}
	if err != nil {
		return doc, fmt.Errorf("load template %s: %w", templateID, err)
	}
	doc, err = DecodeTemplate(data)
	if err != nil {
		return doc, fmt.Errorf("load template %s: %w", templateID, err)
	}
	return doc, nil
}

// List returns the ids of the template files in the directory, sorted.
func (f *FileSource) List() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list templates dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Layout returns the configured layout shell, or DefaultLayout.
func (f *FileSource) Layout() (string, error) {
	if f.layoutFile == "" {
		return DefaultLayout, nil
	}
	data, err := os.ReadFile(f.layoutFile)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultLayout, nil
	}
	if err != nil {
		return "", fmt.Errorf("read layout: %w", err)
	}
	return string(data), nil
}

// DecodeTemplate parses and validates a template document.
func DecodeTemplate(data []byte) (domain.TemplateConfig, error) {
	var doc domain.TemplateConfig
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return doc, err
	}
	return doc, nil
}
