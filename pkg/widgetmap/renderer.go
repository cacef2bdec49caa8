package widgetmap

import (
	"context"
	"fmt"

	"github.com/matchdesk/cms/pkg/expression"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/widgets"
)

// View statuses.
const (
	StatusOK       = "ok"
	StatusHidden   = "hidden"
	StatusUnknown  = "unknown"
	StatusError    = "error"
	StatusFallback = "fallback"
)

// RendererProps is everything the generic renderer needs to draw one cell.
type RendererProps struct {
	Type             string                 `json:"type"`
	Props            map[string]interface{} `json:"props"`
	Variant          string                 `json:"variant"`
	CellID           string                 `json:"cellId"`
	IsBuilderPreview bool                   `json:"isBuilderPreview"`
	VisibleWhen      string                 `json:"visibleWhen,omitempty"`
}

// RenderEnv carries page-level context into rendering.
type RenderEnv struct {
	Theme models.ThemeOverrides
	Vars  map[string]interface{}
}

// View is the rendered, JSON-ready state of one cell.
type View struct {
	CellID   string                 `json:"cellId"`
	Type     string                 `json:"type"`
	Status   string                 `json:"status"`
	Variant  string                 `json:"variant,omitempty"`
	CSSClass string                 `json:"cssClass,omitempty"`
	Props    map[string]interface{} `json:"props,omitempty"`
	Data     interface{}            `json:"data,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Hidden   bool                   `json:"hidden,omitempty"`
	Preview  bool                   `json:"preview,omitempty"`
	Layout   *models.LayoutItem     `json:"layout,omitempty"`
}

// Renderer is the generic widget renderer. It never lets a single widget's failure escape:
// component errors and panics become an error view.
type Renderer struct {
	registry *widgets.Registry
	rules    *expression.Engine
	log      *logger.Logger
}

func NewRenderer(registry *widgets.Registry, rules *expression.Engine, log *logger.Logger) *Renderer {
	if rules == nil {
		rules = expression.NewEngine()
	}
	if log == nil {
		log = logger.Nop()
	}
	r := &Renderer{registry: registry, rules: rules, log: log.With("component", "WidgetRenderer")}
	rules.RegisterFunction("HAS_WIDGET", r.hasWidget)
	return r
}

// hasWidget backs HAS_WIDGET(id) in visibility rules: true when the registry knows id.
func (r *Renderer) hasWidget(params ...interface{}) (interface{}, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("HAS_WIDGET requires 1 argument")
	}
	id, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("HAS_WIDGET argument must be string")
	}
	if r.registry == nil {
		return false, nil
	}
	_, known := r.registry.Get(id)
	return known, nil
}

// Render draws one cell.
func (r *Renderer) Render(ctx context.Context, p RendererProps, env RenderEnv) View {
	view := View{CellID: p.CellID, Type: p.Type, Preview: p.IsBuilderPreview}

	def, ok := r.registry.Get(p.Type)
	if !ok {
		view.Status = StatusUnknown
		view.Message = fmt.Sprintf("Unknown widget type %q", p.Type)
		return view
	}

	variant := r.resolveVariant(def, p, env.Theme)
	view.Variant = variant.Slug
	view.CSSClass = variant.CSSClass

	props := widgets.ApplyDefaults(def.Props, overlay(variant.Overrides, p.Props))
	view.Props = props

	if p.VisibleWhen != "" && !r.visible(p, props, env) {
		if !p.IsBuilderPreview {
			view.Status = StatusHidden
			view.Props = nil
			return view
		}
		view.Hidden = true
	}

	data, err := r.invoke(ctx, def, widgets.RenderInput{
		CellID:    p.CellID,
		Props:     props,
		Variant:   variant,
		IsPreview: p.IsBuilderPreview,
	})
	if err != nil {
		r.log.Warn("widget render failed", "cellId", p.CellID, "type", p.Type, "error", err)
		view.Status = StatusError
		view.Message = err.Error()
		return view
	}
	view.Status = StatusOK
	view.Data = data
	return view
}

func (r *Renderer) invoke(ctx context.Context, def *widgets.Definition, in widgets.RenderInput) (out interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("widget %s panicked: %v", def.ID, rec)
		}
	}()
	return def.Component.Render(ctx, in)
}

// resolveVariant picks the instance's variant, then the page theme's choice for the
// widget type. An unknown slug falls back to "default".
func (r *Renderer) resolveVariant(def *widgets.Definition, p RendererProps, theme models.ThemeOverrides) widgets.StyleVariant {
	slug := p.Variant
	if slug == "" || slug == models.DefaultVariant {
		if themed := theme.WidgetVariant(p.Type); themed != "" {
			slug = themed
		}
	}
	if slug == "" {
		slug = models.DefaultVariant
	}
	v, ok := def.Variant(slug)
	if !ok {
		r.log.Debug("unknown style variant, using default", "type", p.Type, "variant", slug)
		v, _ = def.Variant(models.DefaultVariant)
	}
	return v
}

func (r *Renderer) visible(p RendererProps, props map[string]interface{}, env RenderEnv) bool {
	theme := map[string]interface{}(env.Theme)
	if theme == nil {
		theme = map[string]interface{}{}
	}
	ok, err := r.rules.EvaluateBool(p.VisibleWhen, map[string]interface{}{
		"props":   props,
		"theme":   theme,
		"preview": p.IsBuilderPreview,
		"vars":    env.Vars,
	})
	if err != nil {
		r.log.Warn("visibility rule failed, showing widget", "cellId", p.CellID, "rule", p.VisibleWhen, "error", err)
		return true
	}
	return ok
}

func overlay(base, top map[string]interface{}) map[string]interface{} {
	if len(base) == 0 {
		return top
	}
	out := make(map[string]interface{}, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}
