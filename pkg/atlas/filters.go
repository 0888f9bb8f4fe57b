package atlas

import (
	"encoding/json"
	"fmt"
	"time"
)

// Filter is a structured search criterion accepted by the search endpoints.
// Build filters with the constructors below; Config is filter-type specific.
type Filter struct {
	Type      string      `json:"type"`
	FieldName string      `json:"field_name,omitempty"`
	Config    interface{} `json:"config,omitempty"`
}

// MarshalYAML renders the filter through its JSON form so CLI YAML output
// matches the wire format.
func (f *Filter) MarshalYAML() (interface{}, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshaling filter: %w", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshaling filter: %w", err)
	}

	return out, nil
}

// AndFilter limits results to items matching all nested filters. It is most
// commonly used as the top-level filter.
func AndFilter(filters ...*Filter) *Filter {
	return &Filter{Type: "AndFilter", Config: filters}
}

// OrFilter matches items that satisfy at least one nested filter.
func OrFilter(filters ...*Filter) *Filter {
	return &Filter{Type: "OrFilter", Config: filters}
}

// NotFilter matches items that do not satisfy the nested filter. It supports
// a single nested filter; nest multiple NotFilters inside an AndFilter to
// negate across fields.
func NotFilter(filter *Filter) *Filter {
	return &Filter{Type: "NotFilter", Config: filter}
}

// RangeConfig holds the conditionals of a range filter. Nil fields are
// omitted from the request.
type RangeConfig struct {
	GT  interface{} `json:"gt,omitempty"`
	LT  interface{} `json:"lt,omitempty"`
	GTE interface{} `json:"gte,omitempty"`
	LTE interface{} `json:"lte,omitempty"`
}

func (c *RangeConfig) empty() bool {
	return c.GT == nil && c.LT == nil && c.GTE == nil && c.LTE == nil
}

// DateRangeFilter searches any property with a timestamp, such as acquired
// or published. At least one conditional must be set.
func DateRangeFilter(fieldName string, config *RangeConfig) (*Filter, error) {
	return rangeFilter("DateRangeFilter", fieldName, config, func(v interface{}) interface{} {
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339)
		}

		return v
	})
}

// RangeFilter searches any property with a numeric value, such as
// cloud_cover. At least one conditional must be set.
func RangeFilter(fieldName string, config *RangeConfig) (*Filter, error) {
	return rangeFilter("RangeFilter", fieldName, config, nil)
}

func rangeFilter(ftype, fieldName string, config *RangeConfig, conv func(interface{}) interface{}) (*Filter, error) {
	if config == nil || config.empty() {
		return nil, fmt.Errorf("%s %s: %w", ftype, fieldName, ErrNoConditionals)
	}

	if conv != nil {
		config = &RangeConfig{
			GT:  applyConv(conv, config.GT),
			LT:  applyConv(conv, config.LT),
			GTE: applyConv(conv, config.GTE),
			LTE: applyConv(conv, config.LTE),
		}
	}

	return &Filter{Type: ftype, FieldName: fieldName, Config: config}, nil
}

func applyConv(conv func(interface{}) interface{}, v interface{}) interface{} {
	if v == nil {
		return nil
	}

	return conv(v)
}

// StringInFilter matches items whose property equals one of the given
// strings.
func StringInFilter(fieldName string, values ...string) *Filter {
	return &Filter{Type: "StringInFilter", FieldName: fieldName, Config: values}
}

// NumberInFilter matches items whose property equals one of the given
// numbers.
func NumberInFilter(fieldName string, values ...float64) *Filter {
	return &Filter{Type: "NumberInFilter", FieldName: fieldName, Config: values}
}

// GeometryFilter matches items whose footprint intersects the given GeoJSON
// geometry.
func GeometryFilter(geometry json.RawMessage) *Filter {
	return &Filter{Type: "GeometryFilter", FieldName: "geometry", Config: geometry}
}

// PermissionFilter limits results to items the account may download.
func PermissionFilter(permissions ...string) *Filter {
	return &Filter{Type: "PermissionFilter", Config: permissions}
}

// AssetFilter limits results to items with the given asset types available.
func AssetFilter(assetTypes ...string) *Filter {
	return &Filter{Type: "AssetFilter", Config: assetTypes}
}
