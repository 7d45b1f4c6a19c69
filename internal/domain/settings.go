package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldKind identifies the editor control of a settings leaf.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldColor    FieldKind = "color"
	FieldSelect   FieldKind = "select"
	FieldRadio    FieldKind = "radio"
	FieldCheckbox FieldKind = "checkbox"
)

// Valid reports whether k is one of the known field kinds.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldText, FieldTextarea, FieldColor, FieldSelect, FieldRadio, FieldCheckbox:
		return true
	}
	return false
}

// ZeroValue is the value a field resolves to when neither value nor default is set.
func (k FieldKind) ZeroValue() any {
	if k == FieldCheckbox {
		return false
	}
	return ""
}

// NeedsOptions reports whether the kind is an enumerated choice.
func (k FieldKind) NeedsOptions() bool {
	return k == FieldSelect || k == FieldRadio
}

type FieldOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FieldNode describes one editable leaf value.
// Value and Default are nil when absent.
type FieldNode struct {
	Kind        FieldKind     `json:"type"`
	Label       string        `json:"label"`
	Value       any           `json:"value,omitempty"`
	Default     any           `json:"default,omitempty"`
	Options     []FieldOption `json:"options,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Help        string        `json:"help,omitempty"`
}

// EffectiveValue returns value, else default, else the kind's zero value.
func (f *FieldNode) EffectiveValue() any {
	if f.Value != nil {
		return f.Value
	}
	if f.Default != nil {
		return f.Default
	}
	return f.Kind.ZeroValue()
}

func (f *FieldNode) clone() *FieldNode {
	c := *f
	if f.Options != nil {
		c.Options = append([]FieldOption(nil), f.Options...)
	}
	return &c
}

// SettingsNode is either a field leaf or a nested group. Exactly one side is set.
type SettingsNode struct {
	Field *FieldNode
	Group SettingsTree
}

// FieldEntry wraps a field as a tree node.
func FieldEntry(f FieldNode) SettingsNode {
	return SettingsNode{Field: &f}
}

// GroupEntry wraps a subtree as a tree node.
func GroupEntry(t SettingsTree) SettingsNode {
	return SettingsNode{Group: t}
}

func (n SettingsNode) IsField() bool { return n.Field != nil }

func (n SettingsNode) clone() SettingsNode {
	if n.Field != nil {
		return SettingsNode{Field: n.Field.clone()}
	}
	return SettingsNode{Group: n.Group.Clone()}
}

// SettingsTree is an ordered mapping from key to field or group.
// The zero value is an empty tree. Trees are treated as immutable:
// With and Without return new trees and leave the receiver untouched.
type SettingsTree struct {
	keys  []string
	nodes map[string]SettingsNode
}

// NewSettingsTree builds a tree from key/node pairs, keeping argument order.
func NewSettingsTree(entries ...SettingsEntry) SettingsTree {
	t := SettingsTree{nodes: make(map[string]SettingsNode, len(entries))}
	for _, e := range entries {
		if _, exists := t.nodes[e.Key]; !exists {
			t.keys = append(t.keys, e.Key)
		}
		t.nodes[e.Key] = e.Node
	}
	return t
}

// SettingsEntry is a key/node pair used to build trees in order.
type SettingsEntry struct {
	Key  string
	Node SettingsNode
}

// Field is shorthand for a field entry.
func Field(key string, f FieldNode) SettingsEntry {
	return SettingsEntry{Key: key, Node: FieldEntry(f)}
}

// Group is shorthand for a group entry.
func Group(key string, entries ...SettingsEntry) SettingsEntry {
	return SettingsEntry{Key: key, Node: GroupEntry(NewSettingsTree(entries...))}
}

func (t SettingsTree) Len() int { return len(t.keys) }

// Keys returns the keys in declaration order.
func (t SettingsTree) Keys() []string {
	return append([]string(nil), t.keys...)
}

func (t SettingsTree) Get(key string) (SettingsNode, bool) {
	n, ok := t.nodes[key]
	return n, ok
}

// With returns a copy of t with key set to node. Nodes other than key are shared.
func (t SettingsTree) With(key string, node SettingsNode) SettingsTree {
	out := SettingsTree{nodes: make(map[string]SettingsNode, len(t.nodes)+1)}
	for k, v := range t.nodes {
		out.nodes[k] = v
	}
	out.keys = append(make([]string, 0, len(t.keys)+1), t.keys...)
	if _, exists := t.nodes[key]; !exists {
		out.keys = append(out.keys, key)
	}
	out.nodes[key] = node
	return out
}

// Without returns a copy of t with key removed.
func (t SettingsTree) Without(key string) SettingsTree {
	if _, exists := t.nodes[key]; !exists {
		return t
	}
	out := SettingsTree{nodes: make(map[string]SettingsNode, len(t.nodes))}
	for _, k := range t.keys {
		if k == key {
			continue
		}
		out.keys = append(out.keys, k)
		out.nodes[k] = t.nodes[k]
	}
	return out
}

// Clone deep copies the tree, including every field node.
func (t SettingsTree) Clone() SettingsTree {
	if t.nodes == nil {
		return SettingsTree{}
	}
	out := SettingsTree{
		keys:  append([]string(nil), t.keys...),
		nodes: make(map[string]SettingsNode, len(t.nodes)),
	}
	for k, v := range t.nodes {
		out.nodes[k] = v.clone()
	}
	return out
}

// Walk visits every field depth-first in key order.
func (t SettingsTree) Walk(fn func(path []string, f *FieldNode)) {
	t.walk(nil, fn)
}

func (t SettingsTree) walk(prefix []string, fn func([]string, *FieldNode)) {
	for _, k := range t.keys {
		n := t.nodes[k]
		path := append(append([]string(nil), prefix...), k)
		if n.IsField() {
			fn(path, n.Field)
			continue
		}
		n.Group.walk(path, fn)
	}
}

// ── JSON ───────────────────────────────────────────────────

func (t SettingsTree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		n := t.nodes[k]
		var val []byte
		if n.IsField() {
			val, err = json.Marshal(n.Field)
		} else {
			val, err = n.Group.MarshalJSON()
		}
		if err != nil {
			return nil, fmt.Errorf("settings key %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a tree keeping the document's key order. An object
// with a string "type" (or "kind") member is a field; any other object is a group.
func (t *SettingsTree) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*t = SettingsTree{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: settings must be an object", ErrInvalidDocument)
	}

	out := SettingsTree{nodes: map[string]SettingsNode{}}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("settings key %q: %w", key, err)
		}
		node, err := decodeSettingsNode(raw)
		if err != nil {
			return fmt.Errorf("settings key %q: %w", key, err)
		}
		if _, exists := out.nodes[key]; !exists {
			out.keys = append(out.keys, key)
		}
		out.nodes[key] = node
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*t = out
	return nil
}

type fieldJSON struct {
	Type        string          `json:"type"`
	Kind        string          `json:"kind"`
	Label       string          `json:"label"`
	Value       json.RawMessage `json:"value"`
	Default     json.RawMessage `json:"default"`
	Options     []FieldOption   `json:"options"`
	Placeholder string          `json:"placeholder"`
	Help        string          `json:"help"`
}

func decodeSettingsNode(raw json.RawMessage) (SettingsNode, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil || probe == nil {
		return SettingsNode{}, fmt.Errorf("%w: expected object", ErrInvalidDocument)
	}
	if isStringMember(probe["type"]) || isStringMember(probe["kind"]) {
		var fj fieldJSON
		if err := json.Unmarshal(raw, &fj); err != nil {
			return SettingsNode{}, err
		}
		kind := fj.Type
		if kind == "" {
			kind = fj.Kind
		}
		f := FieldNode{
			Kind:        FieldKind(kind),
			Label:       fj.Label,
			Options:     fj.Options,
			Placeholder: fj.Placeholder,
			Help:        fj.Help,
		}
		var err error
		if f.Value, err = decodeScalar(fj.Value); err != nil {
			return SettingsNode{}, fmt.Errorf("value: %w", err)
		}
		if f.Default, err = decodeScalar(fj.Default); err != nil {
			return SettingsNode{}, fmt.Errorf("default: %w", err)
		}
		return SettingsNode{Field: &f}, nil
	}
	var group SettingsTree
	if err := group.UnmarshalJSON(raw); err != nil {
		return SettingsNode{}, err
	}
	return SettingsNode{Group: group}, nil
}

func isStringMember(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var s string
	return json.Unmarshal(raw, &s) == nil
}

// decodeScalar keeps strings and booleans as-is and turns numbers into float64.
func decodeScalar(raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
