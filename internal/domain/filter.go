package domain

// FilterType is the storefront attribute a filter narrows on.
type FilterType string

const (
	FilterVendor        FilterType = "vendor"
	FilterProductType   FilterType = "product_type"
	FilterTag           FilterType = "tag"
	FilterCollection    FilterType = "collection"
	FilterPrice         FilterType = "price"
	FilterAvailability  FilterType = "availability"
	FilterVariantOption FilterType = "option"
	FilterMetafield     FilterType = "metafield"
)

func (t FilterType) Valid() bool {
	switch t {
	case FilterVendor, FilterProductType, FilterTag, FilterCollection,
		FilterPrice, FilterAvailability, FilterVariantOption, FilterMetafield:
		return true
	}
	return false
}

// FilterDisplay is how the storefront renders the filter's values.
type FilterDisplay string

const (
	DisplayCheckbox FilterDisplay = "checkbox"
	DisplayRadio    FilterDisplay = "radio"
	DisplaySwatch   FilterDisplay = "swatch"
	DisplayRange    FilterDisplay = "range"
	DisplayToggle   FilterDisplay = "toggle"
	DisplayDropdown FilterDisplay = "dropdown"
)

// FilterOption is one selectable value. Position mirrors slice order.
type FilterOption struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Position int    `json:"position"`
	Visible  bool   `json:"visible"`
}

// Filter is one configured storefront filter.
type Filter struct {
	ID           string         `json:"id,omitempty"`
	Label        string         `json:"label"`
	Type         FilterType     `json:"type"`
	Display      FilterDisplay  `json:"displayType"`
	OptionName   string         `json:"optionName,omitempty"`
	MetafieldKey string         `json:"metafieldKey,omitempty"`
	Collapsed    bool           `json:"collapsed"`
	ShowCount    bool           `json:"showCount"`
	Position     int            `json:"position"`
	Options      []FilterOption `json:"options"`
}
