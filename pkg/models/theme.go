package models

import "encoding/json"

// Recognised theme override keys.
const (
	ThemeModeKey      = "themeMode"
	ThemeVariantKey   = "themeVariant"
	WidgetVariantsKey = "widgetVariants"

	ThemeModeLight = "light"
	ThemeModeDark  = "dark"
)

// ThemeOverrides is a free-form per-page presentation document.
type ThemeOverrides map[string]interface{}

// Clone returns a shallow copy. A nil receiver yields an empty document.
func (t ThemeOverrides) Clone() ThemeOverrides {
	out := make(ThemeOverrides, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Merge overlays partial on top of t at the top level only. Nested objects in partial
// replace the existing value wholesale.
func (t ThemeOverrides) Merge(partial ThemeOverrides) ThemeOverrides {
	out := t.Clone()
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// Mode returns the themeMode value, or "" when absent or not a string.
func (t ThemeOverrides) Mode() string {
	s, _ := t[ThemeModeKey].(string)
	return s
}

// Variant returns the themeVariant value, or "".
func (t ThemeOverrides) Variant() string {
	s, _ := t[ThemeVariantKey].(string)
	return s
}

// WidgetVariant returns the style variant selected for a widget type, if any.
func (t ThemeOverrides) WidgetVariant(widgetType string) string {
	m, ok := t[WidgetVariantsKey].(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := m[widgetType].(string)
	return s
}

// Normalize round-trips the document through JSON so that values compare the same way
// they will after being read back from the store (numbers become float64 and so on).
func (t ThemeOverrides) Normalize() (ThemeOverrides, error) {
	if t == nil {
		return ThemeOverrides{}, nil
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	out := ThemeOverrides{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
