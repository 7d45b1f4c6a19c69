package engine

import (
	"dashboard/internal/domain"
)

// IsFieldNode reports whether n is a leaf field rather than a nested group.
func IsFieldNode(n domain.SettingsNode) bool {
	return n.IsField()
}

func lookupNode(tree domain.SettingsTree, path []string) (domain.SettingsNode, bool) {
	if len(path) == 0 {
		return domain.SettingsNode{}, false
	}
	n, ok := tree.Get(path[0])
	if !ok {
		return domain.SettingsNode{}, false
	}
	if len(path) == 1 {
		return n, true
	}
	if n.IsField() {
		return domain.SettingsNode{}, false
	}
	return lookupNode(n.Group, path[1:])
}

// LookupField returns the field at path, if path ends on a field.
func LookupField(tree domain.SettingsTree, path []string) (*domain.FieldNode, bool) {
	n, ok := lookupNode(tree, path)
	if !ok || !n.IsField() {
		return nil, false
	}
	return n.Field, true
}

// ResolveFieldValue returns the effective value of the field at path.
func ResolveFieldValue(tree domain.SettingsTree, path []string) (any, bool) {
	f, ok := LookupField(tree, path)
	if !ok {
		return nil, false
	}
	return f.EffectiveValue(), true
}

// UpdateFieldValue returns a new tree whose field at path has value v.
// Only the groups along path are copied. Default is never touched.
// Missing groups are created; a missing leaf becomes a new field whose kind
// follows the value (checkbox for bool, text otherwise).
func UpdateFieldValue(tree domain.SettingsTree, path []string, v any) domain.SettingsTree {
	out, _ := updateFieldValue(tree, path, v)
	return out
}

func updateFieldValue(tree domain.SettingsTree, path []string, v any) (domain.SettingsTree, bool) {
	if len(path) == 0 {
		return tree, false
	}
	key := path[0]
	n, exists := tree.Get(key)

	if len(path) == 1 {
		if exists && !n.IsField() {
			return tree, false
		}
		var f domain.FieldNode
		if exists {
			f = *n.Field
		} else {
			f = inferField(key, v)
		}
		f.Value = v
		return tree.With(key, domain.FieldEntry(f)), true
	}

	if exists && n.IsField() {
		return tree, false
	}
	child, changed := updateFieldValue(n.Group, path[1:], v)
	if !changed {
		return tree, false
	}
	return tree.With(key, domain.GroupEntry(child)), true
}

func inferField(key string, v any) domain.FieldNode {
	kind := domain.FieldText
	if _, ok := v.(bool); ok {
		kind = domain.FieldCheckbox
	}
	return domain.FieldNode{Kind: kind, Label: humanize(key)}
}

// FlattenSettings resolves every field to its effective value. Groups
// become nested maps.
func FlattenSettings(tree domain.SettingsTree) map[string]any {
	out := make(map[string]any, tree.Len())
	for _, k := range tree.Keys() {
		n, _ := tree.Get(k)
		if n.IsField() {
			out[k] = n.Field.EffectiveValue()
			continue
		}
		out[k] = FlattenSettings(n.Group)
	}
	return out
}

// ToRuntimeBlock flattens a block and its children for rendering.
func ToRuntimeBlock(b domain.TemplateBlock) domain.RuntimeBlock {
	rb := domain.RuntimeBlock{
		ID:        b.ID,
		Label:     b.Label,
		BlockType: b.BlockType,
		Disabled:  b.Disabled,
		Removable: b.IsRemovable(),
		Settings:  FlattenSettings(b.Settings),
	}
	if b.Blocks != nil {
		rb.Blocks = make([]domain.RuntimeBlock, len(b.Blocks))
		for i, child := range b.Blocks {
			rb.Blocks[i] = ToRuntimeBlock(child)
		}
	}
	return rb
}
