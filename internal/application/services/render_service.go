package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/layouts"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/widgetmap"
)

// Where a rendered page came from.
const (
	SourceCMS    = "cms"
	SourceStatic = "static"
	SourceFailed = "failed"
)

// PageView is a rendered page: either its widgets in layout order or a failed panel the
// client can offer a retry for. It is never blank.
type PageView struct {
	Source     string                `json:"source"`
	PageID     string                `json:"pageId,omitempty"`
	Slug       string                `json:"slug,omitempty"`
	LayoutID   string                `json:"layoutId,omitempty"`
	Breakpoint string                `json:"breakpoint,omitempty"`
	Preview    bool                  `json:"preview,omitempty"`
	Theme      models.ThemeOverrides `json:"theme"`
	Widgets    []widgetmap.View      `json:"widgets"`
	Error      string                `json:"error,omitempty"`
	Retry      bool                  `json:"retry,omitempty"`
}

// RenderService resolves pages into rendered widgets.
type RenderService struct {
	pages   *PageLayoutService
	builder *widgetmap.Builder
	log     *logger.Logger
}

// NewRenderService creates a RenderService
func NewRenderService(pages *PageLayoutService, builder *widgetmap.Builder, log *logger.Logger) *RenderService {
	return &RenderService{pages: pages, builder: builder, log: log.With("component", "RenderService")}
}

// RenderPage renders a page from its saved layout when that layout places at least one
// widget, otherwise from the static layout named after the page slug. An unknown page is a
// NotFoundError; every other failure becomes a failed panel.
func (s *RenderService) RenderPage(ctx context.Context, pageID string, preview bool) (view *PageView, err error) {
	ctx, span := startSpan(ctx, "RenderService.RenderPage",
		attribute.String("page.id", pageID),
		attribute.Bool("render.preview", preview))
	defer func() {
		if view != nil {
			span.SetAttributes(attribute.String("render.source", view.Source))
		}
		endSpan(span, err)
	}()

	res, err := s.pages.LoadPageLayout(ctx, pageID)
	if err != nil {
		s.log.Error("Failed to load page layout", "page_id", pageID, "error", err)
		return failedView(pageID, "The page layout could not be loaded"), nil
	}
	if res == nil {
		return nil, apperrors.NewNotFoundError("page", pageID)
	}

	page := res.Page
	env := widgetmap.RenderEnv{Theme: res.ThemeOverrides, Vars: pageVars(page)}

	doc, perr := models.ParseLayoutDocument(res.Layout)
	if perr != nil {
		s.log.Warn("Stored layout is not a layout document", "page_id", pageID, "error", perr)
	}
	if perr == nil && len(doc.Instances) > 0 {
		opts := widgetmap.Options{IsBuilderPreview: preview}
		if !preview {
			opts.Fallback = widgetmap.PlaceholderFallback
		}
		items := doc.Items()
		m := s.builder.Build(items, doc.Instances, opts)
		if len(m) > 0 {
			views, err := widgetmap.RenderAll(ctx, m, items, env)
			if err != nil {
				return failedView(pageID, err.Error()), nil
			}
			return &PageView{
				Source:  SourceCMS,
				PageID:  page.ID,
				Slug:    page.Slug,
				Preview: preview,
				Theme:   res.ThemeOverrides,
				Widgets: views,
			}, nil
		}
		s.log.Warn("Saved layout places no widgets, trying static layout", "page_id", pageID, "items", len(items))
	}

	view, err = s.renderStatic(ctx, page.Slug, env)
	if err != nil {
		s.log.Error("Failed to render static layout", "page_id", pageID, "layout_id", page.Slug, "error", err)
		return failedView(pageID, "The page layout could not be loaded"), nil
	}
	if view == nil {
		return failedView(pageID, "No layout is available for this page"), nil
	}
	view.PageID = page.ID
	view.Slug = page.Slug
	view.Preview = preview
	view.Theme = res.ThemeOverrides
	return view, nil
}

// RenderLayout renders a static layout with its default instances.
func (s *RenderService) RenderLayout(ctx context.Context, layoutID string) (view *PageView, err error) {
	ctx, span := startSpan(ctx, "RenderService.RenderLayout", attribute.String("layout.id", layoutID))
	defer func() { endSpan(span, err) }()

	view, err = s.renderStatic(ctx, layoutID, widgetmap.RenderEnv{Theme: models.ThemeOverrides{}})
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, apperrors.NewNotFoundError("layout", layoutID)
	}
	view.Theme = models.ThemeOverrides{}
	return view, nil
}

// renderStatic returns nil, nil when no usable static layout exists under layoutID.
func (s *RenderService) renderStatic(ctx context.Context, layoutID string, env widgetmap.RenderEnv) (*PageView, error) {
	bundle, err := s.builder.StaticBundle(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	if bundle == nil {
		return nil, nil
	}
	bp, items, ok := layouts.SelectBreakpoint(bundle)
	if !ok {
		return nil, nil
	}
	m, ok := s.builder.BuildFromLayoutID(ctx, layoutID, bundle.Instances, nil)
	if !ok || len(m) == 0 {
		return nil, nil
	}
	views, err := widgetmap.RenderAll(ctx, m, items, env)
	if err != nil {
		return nil, err
	}
	return &PageView{
		Source:     SourceStatic,
		LayoutID:   layoutID,
		Breakpoint: bp,
		Widgets:    views,
	}, nil
}

func failedView(pageID, message string) *PageView {
	return &PageView{
		Source:  SourceFailed,
		PageID:  pageID,
		Theme:   models.ThemeOverrides{},
		Widgets: []widgetmap.View{},
		Error:   message,
		Retry:   true,
	}
}

// pageVars is the environment visibility rules are evaluated against.
func pageVars(page *models.Page) map[string]interface{} {
	return map[string]interface{}{
		"page": map[string]interface{}{
			"id":        page.ID,
			"slug":      page.Slug,
			"title":     page.Title,
			"published": page.IsPublished,
		},
	}
}
