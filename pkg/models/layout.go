package models

import "encoding/json"

// Breakpoint names, widest first.
const (
	BreakpointXL = "xl"
	BreakpointLG = "lg"
	BreakpointMD = "md"
	BreakpointSM = "sm"

	DefaultVariant = "default"
)

// LayoutItem is one positioned cell in a grid layout.
type LayoutItem struct {
	I      string `json:"i" yaml:"i"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	W      int    `json:"w" yaml:"w"`
	H      int    `json:"h" yaml:"h"`
	Static bool   `json:"static,omitempty" yaml:"static,omitempty"`
}

// WidgetInstance binds a cell to a widget type and its configuration. Type is resolved
// against the registry at render time and may name a widget that does not exist.
type WidgetInstance struct {
	Type        string                 `json:"type" yaml:"type"`
	Props       map[string]interface{} `json:"props,omitempty" yaml:"props,omitempty"`
	Variant     string                 `json:"variant,omitempty" yaml:"variant,omitempty"`
	VisibleWhen string                 `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
}

// VariantOrDefault returns the instance's style variant slug, defaulting to "default".
func (w WidgetInstance) VariantOrDefault() string {
	if w.Variant == "" {
		return DefaultVariant
	}
	return w.Variant
}

// LayoutDocument is the builder state persisted for one page.
type LayoutDocument struct {
	Instances map[string]WidgetInstance `json:"instances"`
	Layout    []LayoutItem              `json:"layout,omitempty"`
	Layouts   map[string][]LayoutItem   `json:"layouts,omitempty"`

	// top holds every top-level member of the parsed body, including ones this type
	// does not model.
	top map[string]json.RawMessage
}

// ParseLayoutDocument decodes a stored layout body. An empty body yields an empty document.
func ParseLayoutDocument(raw json.RawMessage) (*LayoutDocument, error) {
	doc := &LayoutDocument{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &doc.top); err != nil {
			return nil, err
		}
	}
	if doc.Instances == nil {
		doc.Instances = map[string]WidgetInstance{}
	}
	return doc, nil
}

// Encode writes the document back. A parsed document keeps every top-level member of
// the body it came from and only the instance map is replaced; a document built in code
// is encoded as a whole.
func (d *LayoutDocument) Encode() (json.RawMessage, error) {
	if d.top == nil {
		return json.Marshal(d)
	}
	instances, err := json.Marshal(d.Instances)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(d.top)+1)
	for k, v := range d.top {
		out[k] = v
	}
	out["instances"] = instances
	return json.Marshal(out)
}

// Items returns the flat item list, or the widest breakpoint variant present when the
// document only carries responsive layouts.
func (d *LayoutDocument) Items() []LayoutItem {
	if len(d.Layout) > 0 {
		return d.Layout
	}
	for _, bp := range []string{BreakpointXL, BreakpointLG, BreakpointMD, BreakpointSM} {
		if items, ok := d.Layouts[bp]; ok {
			return items
		}
	}
	return nil
}

// Clone returns a deep-enough copy for builder sessions: the instance map and each
// instance's props map are copied, nested prop values are shared.
func (d *LayoutDocument) Clone() *LayoutDocument {
	out := &LayoutDocument{
		Instances: make(map[string]WidgetInstance, len(d.Instances)),
		Layout:    append([]LayoutItem(nil), d.Layout...),
	}
	for k, inst := range d.Instances {
		props := make(map[string]interface{}, len(inst.Props))
		for pk, pv := range inst.Props {
			props[pk] = pv
		}
		inst.Props = props
		out.Instances[k] = inst
	}
	if d.top != nil {
		out.top = make(map[string]json.RawMessage, len(d.top))
		for k, v := range d.top {
			out.top[k] = v
		}
	}
	if d.Layouts != nil {
		out.Layouts = make(map[string][]LayoutItem, len(d.Layouts))
		for bp, items := range d.Layouts {
			out.Layouts[bp] = append([]LayoutItem(nil), items...)
		}
	}
	return out
}
