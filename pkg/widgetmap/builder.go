// Package widgetmap turns a layout plus its widget instances into a map of renderable
// elements keyed by cell id.
package widgetmap

import (
	"context"
	"fmt"

	"github.com/matchdesk/cms/pkg/layouts"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/widgets"
)

// FallbackFunc supplies the component shown for a widget type the registry does not know.
// It receives only the unresolved type.
type FallbackFunc func(widgetType string) widgets.Component

// Options tune Build.
type Options struct {
	IsBuilderPreview bool
	Fallback         FallbackFunc
}

// Element is one resolved cell: either a generic renderer invocation or a fallback
// component for an unknown type.
type Element struct {
	Props    RendererProps
	Fallback widgets.Component

	renderer *Renderer
}

// IsFallback reports whether the element was produced by a fallback override.
func (e Element) IsFallback() bool {
	return e.Fallback != nil
}

// Render draws the element.
func (e Element) Render(ctx context.Context, env RenderEnv) View {
	if e.Fallback != nil {
		return renderFallback(ctx, e.Fallback, e.Props)
	}
	return e.renderer.Render(ctx, e.Props, env)
}

// Map is the result of Build: cell id to element.
type Map map[string]Element

// Builder resolves layouts against a widget registry.
type Builder struct {
	registry *widgets.Registry
	renderer *Renderer
	static   layouts.Source
	log      *logger.Logger
}

type BuilderOption func(*Builder)

// WithStaticLayouts replaces the default static layouts used by BuildFromLayoutID when
// the caller passes no source.
func WithStaticLayouts(src layouts.Source) BuilderOption {
	return func(b *Builder) { b.static = src }
}

// WithRenderer sets the generic renderer elements delegate to.
func WithRenderer(r *Renderer) BuilderOption {
	return func(b *Builder) { b.renderer = r }
}

func NewBuilder(registry *widgets.Registry, log *logger.Logger, opts ...BuilderOption) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	b := &Builder{registry: registry, log: log.With("component", "WidgetMapBuilder")}
	for _, opt := range opts {
		opt(b)
	}
	if b.renderer == nil {
		b.renderer = NewRenderer(registry, nil, log)
	}
	if b.static == nil {
		b.static = layouts.NewLazy(layouts.EmbeddedSource{})
	}
	return b
}

// Registry returns the registry the builder resolves against.
func (b *Builder) Registry() *widgets.Registry {
	return b.registry
}

// Build resolves every layout item that has an instance. Items without an instance are
// logged and omitted. A later item with the same cell id replaces an earlier one.
func (b *Builder) Build(items []models.LayoutItem, instances map[string]models.WidgetInstance, opts Options) Map {
	out := make(Map, len(items))
	for _, item := range items {
		cid := item.I
		inst, ok := instances[cid]
		if !ok {
			b.log.Warn("no widget instance for layout cell", "cellId", cid)
			continue
		}

		props := RendererProps{
			Type:             inst.Type,
			Props:            inst.Props,
			Variant:          inst.VariantOrDefault(),
			CellID:           cid,
			IsBuilderPreview: opts.IsBuilderPreview,
			VisibleWhen:      inst.VisibleWhen,
		}
		if props.Props == nil {
			props.Props = map[string]interface{}{}
		}

		if _, known := b.registry.Get(inst.Type); !known {
			if opts.Fallback != nil {
				out[cid] = Element{Props: RendererProps{Type: inst.Type, CellID: cid}, Fallback: opts.Fallback(inst.Type)}
				continue
			}
			b.log.Warn("unknown widget type", "type", inst.Type, "cellId", cid)
		}
		out[cid] = Element{Props: props, renderer: b.renderer}
	}
	return out
}

// BuildFromLayoutID resolves a static layout bundle. A nil src uses the builder's
// default static layouts. ok is false when the layouts cannot be loaded, the id is
// unknown or the bundle has no usable breakpoint.
func (b *Builder) BuildFromLayoutID(ctx context.Context, layoutID string, instances map[string]models.WidgetInstance, src layouts.Source) (Map, bool) {
	if src == nil {
		src = b.static
	}
	table, err := src.Load(ctx)
	if err != nil {
		b.log.Error("failed to load static layouts", "layoutId", layoutID, "error", err)
		return nil, false
	}
	bundle, ok := table[layoutID]
	if !ok {
		b.log.Warn("unknown layout id", "layoutId", layoutID)
		return nil, false
	}
	bp, items, ok := layouts.SelectBreakpoint(bundle)
	if !ok {
		b.log.Warn("layout has no recognised breakpoint", "layoutId", layoutID, "tried", layouts.Precedence)
		return nil, false
	}
	b.log.Debug("resolved static layout", "layoutId", layoutID, "breakpoint", bp, "cells", len(items))
	return b.Build(items, instances, Options{}), true
}

// StaticBundle returns the bundle registered under id in the builder's default static
// layouts, or nil.
func (b *Builder) StaticBundle(ctx context.Context, id string) (*layouts.Bundle, error) {
	table, err := b.static.Load(ctx)
	if err != nil {
		return nil, err
	}
	return table[id], nil
}

// PlaceholderFallback renders a neutral placeholder naming the missing type.
func PlaceholderFallback(widgetType string) widgets.Component {
	return widgets.ComponentFunc(func(ctx context.Context, in widgets.RenderInput) (interface{}, error) {
		return map[string]interface{}{
			"placeholder": true,
			"message":     fmt.Sprintf("Widget %q is not available", widgetType),
		}, nil
	})
}

func renderFallback(ctx context.Context, c widgets.Component, p RendererProps) (view View) {
	view = View{CellID: p.CellID, Type: p.Type, Status: StatusFallback}
	defer func() {
		if rec := recover(); rec != nil {
			view.Data = nil
			view.Message = fmt.Sprintf("fallback panicked: %v", rec)
		}
	}()
	data, err := c.Render(ctx, widgets.RenderInput{CellID: p.CellID, Props: map[string]interface{}{"type": p.Type}})
	if err != nil {
		view.Message = err.Error()
		return view
	}
	view.Data = data
	return view
}
