// Package widgets holds the catalog of widget types the page builder can place on a page.
//
// A widget module contributes two things: a Component that renders the widget's view
// model, and a Metadata record describing it to the builder. Modules are listed in a
// static manifest and fed to a RegistryBuilder once at process start.
package widgets

import "context"

// Prop types understood by the props editor.
const (
	PropString  = "string"
	PropNumber  = "number"
	PropBoolean = "boolean"
	PropSelect  = "select"
)

// Size is a width/height pair in grid units.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// DefaultWidgetSize is used for widgets that declare no size.
var DefaultWidgetSize = Size{W: 4, H: 4}

// PropSpec declares one configurable prop.
type PropSpec struct {
	Type        string      `json:"type"`
	Default     interface{} `json:"default"`
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required,omitempty"`
	Options     []string    `json:"options,omitempty"`
}

// StyleVariant is a named presentation variant a widget supports.
type StyleVariant struct {
	Slug            string                 `json:"slug"`
	Label           string                 `json:"label"`
	Description     string                 `json:"description,omitempty"`
	SupportedTokens []string               `json:"supportedTokens,omitempty"`
	CSSClass        string                 `json:"cssClass,omitempty"`
	Overrides       map[string]interface{} `json:"overrides,omitempty"`
}

// Metadata is the declaration a widget module publishes alongside its component.
type Metadata struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	Preview       string              `json:"preview,omitempty"`
	DefaultSize   Size                `json:"defaultSize"`
	Props         map[string]PropSpec `json:"props"`
	StyleVariants []StyleVariant      `json:"styleVariants,omitempty"`
}

// RenderInput is what a component receives once the generic renderer has resolved the
// instance: props with schema defaults applied and the chosen style variant.
type RenderInput struct {
	CellID    string
	Props     map[string]interface{}
	Variant   StyleVariant
	IsPreview bool
}

// Component renders a widget's view model. Implementations may fail or panic; the
// generic renderer isolates both.
type Component interface {
	Render(ctx context.Context, in RenderInput) (interface{}, error)
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(ctx context.Context, in RenderInput) (interface{}, error)

func (f ComponentFunc) Render(ctx context.Context, in RenderInput) (interface{}, error) {
	return f(ctx, in)
}

// Module is one candidate entry of the widget manifest. Path identifies where the module
// lives ("widgets/match-list/index" or "widgets/match-list"); it is used for
// de-duplication and in log messages.
type Module struct {
	Path      string
	Component Component
	Meta      *Metadata
}

// Definition is one registered widget type. It is immutable once the registry is built.
type Definition struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	DefaultSize   Size                `json:"defaultSize"`
	Props         map[string]PropSpec `json:"props"`
	StyleVariants []StyleVariant      `json:"styleVariants"`
	Raw           *Metadata           `json:"metadata"`
	Path          string              `json:"-"`
	Component     Component           `json:"-"`
}

// Variant returns the style variant with the given slug. The "default" slug always
// resolves, to a bare variant when the widget does not declare one.
func (d *Definition) Variant(slug string) (StyleVariant, bool) {
	for _, v := range d.StyleVariants {
		if v.Slug == slug {
			return v, true
		}
	}
	if slug == "default" {
		return StyleVariant{Slug: "default", Label: "Default"}, true
	}
	return StyleVariant{}, false
}
