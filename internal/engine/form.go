package engine

import (
	"fmt"
	"html"
	"strings"
	"unicode"

	"dashboard/internal/domain"
)

// RenderSettingsForm renders one editable control per field of tree,
// depth-first in key order. Groups become fieldsets labelled by their key.
// Every control carries data-path with the dot-joined settings path so the
// UI can route edits back to UpdateFieldValue.
func RenderSettingsForm(tree domain.SettingsTree, prefix []string) string {
	var sb strings.Builder
	renderSettingsGroup(&sb, tree, prefix)
	return sb.String()
}

func renderSettingsGroup(sb *strings.Builder, tree domain.SettingsTree, prefix []string) {
	for _, key := range tree.Keys() {
		n, _ := tree.Get(key)
		path := append(append([]string(nil), prefix...), key)
		if n.IsField() {
			renderField(sb, path, n.Field)
			continue
		}
		sb.WriteString(`<fieldset class="settings-group" data-path="` + attr(strings.Join(path, ".")) + `">`)
		sb.WriteString(`<legend>` + html.EscapeString(humanize(key)) + `</legend>`)
		renderSettingsGroup(sb, n.Group, path)
		sb.WriteString(`</fieldset>`)
	}
}

func renderField(sb *strings.Builder, path []string, f *domain.FieldNode) {
	dataPath := attr(strings.Join(path, "."))
	id := "setting-" + strings.Join(path, "-")
	value := fmt.Sprint(f.EffectiveValue())

	sb.WriteString(`<div class="settings-field settings-field--` + attr(string(f.Kind)) + `">`)
	if f.Kind != domain.FieldCheckbox && f.Kind != domain.FieldRadio {
		sb.WriteString(`<label for="` + attr(id) + `">` + html.EscapeString(f.Label) + `</label>`)
	}

	switch f.Kind {
	case domain.FieldTextarea:
		sb.WriteString(`<textarea id="` + attr(id) + `" data-path="` + dataPath + `"` + placeholder(f) + `>`)
		sb.WriteString(html.EscapeString(value))
		sb.WriteString(`</textarea>`)
	case domain.FieldColor:
		sb.WriteString(`<input type="color" id="` + attr(id) + `" data-path="` + dataPath + `" value="` + attr(value) + `">`)
	case domain.FieldSelect:
		sb.WriteString(`<select id="` + attr(id) + `" data-path="` + dataPath + `">`)
		for _, opt := range f.Options {
			sel := ""
			if opt.Value == value {
				sel = " selected"
			}
			sb.WriteString(`<option value="` + attr(opt.Value) + `"` + sel + `>` + html.EscapeString(opt.Label) + `</option>`)
		}
		sb.WriteString(`</select>`)
	case domain.FieldRadio:
		sb.WriteString(`<fieldset class="settings-radio" data-path="` + dataPath + `"><legend>` + html.EscapeString(f.Label) + `</legend>`)
		for i, opt := range f.Options {
			checked := ""
			if opt.Value == value {
				checked = " checked"
			}
			optID := fmt.Sprintf("%s-%d", id, i)
			sb.WriteString(`<label for="` + attr(optID) + `"><input type="radio" id="` + attr(optID) + `" name="` + attr(id) +
				`" data-path="` + dataPath + `" value="` + attr(opt.Value) + `"` + checked + `>` + html.EscapeString(opt.Label) + `</label>`)
		}
		sb.WriteString(`</fieldset>`)
	case domain.FieldCheckbox:
		checked := ""
		if b, _ := f.EffectiveValue().(bool); b {
			checked = " checked"
		}
		sb.WriteString(`<label for="` + attr(id) + `"><input type="checkbox" id="` + attr(id) + `" data-path="` + dataPath + `"` + checked + `>` +
			html.EscapeString(f.Label) + `</label>`)
	default:
		sb.WriteString(`<input type="text" id="` + attr(id) + `" data-path="` + dataPath + `" value="` + attr(value) + `"` + placeholder(f) + `>`)
	}

	if f.Help != "" {
		sb.WriteString(`<p class="settings-help">` + html.EscapeString(f.Help) + `</p>`)
	}
	sb.WriteString(`</div>`)
}

func placeholder(f *domain.FieldNode) string {
	if f.Placeholder == "" {
		return ""
	}
	return ` placeholder="` + attr(f.Placeholder) + `"`
}

func attr(s string) string {
	return html.EscapeString(s)
}

// humanize turns "font_size" into "Font size".
func humanize(key string) string {
	s := strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(key))
	if s == "" {
		return key
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
