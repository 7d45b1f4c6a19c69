package engine

import (
	"fmt"
	"strings"

	"dashboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Filter form
// ─────────────────────────────────────────────────────────────

var filterDisplays = map[domain.FilterType][]domain.FilterDisplay{
	domain.FilterPrice:         {domain.DisplayRange},
	domain.FilterAvailability:  {domain.DisplayToggle, domain.DisplayCheckbox, domain.DisplayRadio},
	domain.FilterVariantOption: {domain.DisplayCheckbox, domain.DisplaySwatch, domain.DisplayRadio, domain.DisplayDropdown},
	domain.FilterVendor:        {domain.DisplayCheckbox, domain.DisplayRadio, domain.DisplayDropdown},
	domain.FilterProductType:   {domain.DisplayCheckbox, domain.DisplayRadio, domain.DisplayDropdown},
	domain.FilterTag:           {domain.DisplayCheckbox, domain.DisplayRadio, domain.DisplayDropdown},
	domain.FilterCollection:    {domain.DisplayCheckbox, domain.DisplayRadio, domain.DisplayDropdown},
	domain.FilterMetafield:     {domain.DisplayCheckbox, domain.DisplayRadio, domain.DisplayDropdown},
}

// DisplaysFor lists the display types a filter type can use. The first
// entry is the default.
func DisplaysFor(t domain.FilterType) []domain.FilterDisplay {
	return append([]domain.FilterDisplay(nil), filterDisplays[t]...)
}

func displayAllowed(t domain.FilterType, d domain.FilterDisplay) bool {
	for _, x := range filterDisplays[t] {
		if x == d {
			return true
		}
	}
	return false
}

// FilterForm holds the state of one filter being edited. Like the template
// session it replaces the whole Filter on every change; values returned by
// Filter are never modified afterwards.
type FilterForm struct {
	state domain.Filter
}

// NewFilterForm starts editing f. An empty type becomes vendor and an
// incompatible display is replaced by the type's default.
func NewFilterForm(f domain.Filter) *FilterForm {
	f.Options = append([]domain.FilterOption(nil), f.Options...)
	renumberOptions(f.Options)
	if f.Type == "" {
		f.Type = domain.FilterVendor
	}
	if !displayAllowed(f.Type, f.Display) {
		if ds := filterDisplays[f.Type]; len(ds) > 0 {
			f.Display = ds[0]
		}
	}
	return &FilterForm{state: f}
}

// Filter returns the current state.
func (ff *FilterForm) Filter() domain.Filter {
	return ff.state
}

func (ff *FilterForm) SetLabel(label string) {
	ff.state.Label = label
}

func (ff *FilterForm) SetCollapsed(collapsed bool) {
	ff.state.Collapsed = collapsed
}

func (ff *FilterForm) SetShowCount(show bool) {
	ff.state.ShowCount = show
}

// SetOptionName sets the product option the filter reads (Color, Size...).
// For option filters the display follows: color names get swatches.
func (ff *FilterForm) SetOptionName(name string) {
	next := ff.state
	next.OptionName = name
	if next.Type == domain.FilterVariantOption {
		next.Display = optionDisplay(name)
	}
	ff.state = next
}

func (ff *FilterForm) SetMetafieldKey(key string) {
	ff.state.MetafieldKey = key
}

// SetType changes the filter type and recomputes the fields derived from
// it. Unknown types are refused.
func (ff *FilterForm) SetType(t domain.FilterType) error {
	if !t.Valid() {
		return fmt.Errorf("filter form: unknown filter type %q", t)
	}
	next := ff.state
	next.Type = t
	switch t {
	case domain.FilterPrice:
		next.Display = domain.DisplayRange
		next.Options = nil
		next.OptionName = ""
		next.MetafieldKey = ""
	case domain.FilterAvailability:
		next.Display = domain.DisplayToggle
		next.Options = []domain.FilterOption{
			{Label: "In stock", Value: "in_stock", Position: 0, Visible: true},
			{Label: "Out of stock", Value: "out_of_stock", Position: 1, Visible: true},
		}
		next.OptionName = ""
		next.MetafieldKey = ""
	case domain.FilterVariantOption:
		next.Display = optionDisplay(next.OptionName)
		next.MetafieldKey = ""
	case domain.FilterMetafield:
		next.Display = domain.DisplayCheckbox
		next.OptionName = ""
	default:
		next.Display = domain.DisplayCheckbox
		next.OptionName = ""
		next.MetafieldKey = ""
	}
	ff.state = next
	return nil
}

func optionDisplay(optionName string) domain.FilterDisplay {
	switch strings.ToLower(strings.TrimSpace(optionName)) {
	case "color", "colour":
		return domain.DisplaySwatch
	}
	return domain.DisplayCheckbox
}

// SetDisplay changes the display type. Displays the current filter type
// cannot use are refused.
func (ff *FilterForm) SetDisplay(d domain.FilterDisplay) error {
	if !displayAllowed(ff.state.Type, d) {
		return fmt.Errorf("filter form: display %q is not available for %s filters", d, ff.state.Type)
	}
	ff.state.Display = d
	return nil
}

// AddOption appends a visible option and returns its index.
func (ff *FilterForm) AddOption(label, value string) int {
	opts := make([]domain.FilterOption, 0, len(ff.state.Options)+1)
	opts = append(opts, ff.state.Options...)
	opts = append(opts, domain.FilterOption{Label: label, Value: value, Position: len(opts), Visible: true})
	ff.state.Options = opts
	return len(opts) - 1
}

// RemoveOption drops the option at index and renumbers the rest.
func (ff *FilterForm) RemoveOption(index int) bool {
	if !inRange(index, len(ff.state.Options)) {
		return false
	}
	opts := make([]domain.FilterOption, 0, len(ff.state.Options)-1)
	opts = append(opts, ff.state.Options[:index]...)
	opts = append(opts, ff.state.Options[index+1:]...)
	renumberOptions(opts)
	ff.state.Options = opts
	return true
}

// SetOptionVisible shows or hides an option without removing it.
func (ff *FilterForm) SetOptionVisible(index int, visible bool) bool {
	if !inRange(index, len(ff.state.Options)) {
		return false
	}
	opts := append([]domain.FilterOption(nil), ff.state.Options...)
	opts[index].Visible = visible
	ff.state.Options = opts
	return true
}

// ReorderOptions moves an option and renumbers positions to match.
func (ff *FilterForm) ReorderOptions(from, to int) bool {
	if from == to || !inRange(from, len(ff.state.Options)) || !inRange(to, len(ff.state.Options)) {
		return false
	}
	ff.state.Options = ReorderFilterOptions(ff.state.Options, from, to)
	return true
}

// Validate reports every problem that would stop the filter being saved.
func (ff *FilterForm) Validate() error {
	f := ff.state
	var problems []string
	if strings.TrimSpace(f.Label) == "" {
		problems = append(problems, "label is empty")
	}
	if !f.Type.Valid() {
		problems = append(problems, fmt.Sprintf("unknown filter type %q", f.Type))
	} else if !displayAllowed(f.Type, f.Display) {
		problems = append(problems, fmt.Sprintf("display %q is not available for %s filters", f.Display, f.Type))
	}
	if f.Type == domain.FilterVariantOption && strings.TrimSpace(f.OptionName) == "" {
		problems = append(problems, "option filters need an option name")
	}
	if f.Type == domain.FilterMetafield && strings.TrimSpace(f.MetafieldKey) == "" {
		problems = append(problems, "metafield filters need a metafield key")
	}
	seen := map[string]bool{}
	for i, o := range f.Options {
		if o.Position != i {
			problems = append(problems, fmt.Sprintf("option %d has position %d", i, o.Position))
		}
		if strings.TrimSpace(o.Value) == "" {
			problems = append(problems, fmt.Sprintf("option %d has an empty value", i))
		} else if seen[o.Value] {
			problems = append(problems, fmt.Sprintf("duplicate option value %q", o.Value))
		}
		seen[o.Value] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: filter: %s", domain.ErrInvalidDocument, strings.Join(problems, "; "))
	}
	return nil
}
