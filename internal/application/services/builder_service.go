package services

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/propsedit"
	"github.com/matchdesk/cms/pkg/validator"
	"github.com/matchdesk/cms/pkg/widgets"
)

// BuilderService runs builder sessions: a page's layout document is opened into the
// props editor, edited in place and saved back through PageLayoutService.
type BuilderService struct {
	pages     *PageLayoutService
	editor    *propsedit.Editor
	registry  *widgets.Registry
	validator *validator.Registry
	log       *logger.Logger
}

// NewBuilderService creates a BuilderService
func NewBuilderService(pages *PageLayoutService, editor *propsedit.Editor, registry *widgets.Registry, log *logger.Logger) *BuilderService {
	return &BuilderService{
		pages:     pages,
		editor:    editor,
		registry:  registry,
		validator: validator.GetRegistry(),
		log:       log.With("component", "BuilderService"),
	}
}

// Open starts a session with the page's saved document and returns the working copy. A
// stored body that is not a layout document is a ValidationError and opens nothing.
func (s *BuilderService) Open(ctx context.Context, pageID string) (*models.LayoutDocument, error) {
	res, err := s.pages.LoadPageLayout(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, apperrors.NewNotFoundError("page", pageID)
	}
	doc, err := models.ParseLayoutDocument(res.Layout)
	if err != nil {
		s.log.Warn("Stored layout is not a layout document, refusing to open", "page_id", pageID, "error", err)
		return nil, apperrors.NewValidationError("layout_json", "stored layout is not a layout document: "+err.Error())
	}
	s.editor.Store().Open(pageID, doc)
	working, _ := s.editor.Store().Document(pageID)
	s.log.Debug("Builder session opened", "page_id", pageID, "instances", len(working.Instances))
	return working, nil
}

// Document returns the working copy of an open session.
func (s *BuilderService) Document(pageID string) (*models.LayoutDocument, error) {
	doc, ok := s.editor.Store().Document(pageID)
	if !ok {
		return nil, apperrors.NewNotFoundError("builder session", pageID)
	}
	return doc, nil
}

func (s *BuilderService) Form(pageID, cellID string) (propsedit.Form, error) {
	return s.editor.Form(pageID, cellID)
}

func (s *BuilderService) SetProp(pageID, cellID, path string, value interface{}) (models.WidgetInstance, error) {
	return s.editor.SetProp(pageID, cellID, path, value)
}

func (s *BuilderService) ApplyRaw(pageID, cellID, text string) (models.WidgetInstance, bool, error) {
	return s.editor.ApplyRaw(pageID, cellID, text)
}

func (s *BuilderService) SetVariant(pageID, cellID, slug string) (models.WidgetInstance, error) {
	return s.editor.SetVariant(pageID, cellID, slug)
}

// Save validates the working document's props against their widget schemas and writes it
// as the page layout. Only the instance map of the stored body changes. The session stays
// open.
func (s *BuilderService) Save(ctx context.Context, pageID string, actor *string) (err error) {
	ctx, span := startSpan(ctx, "BuilderService.Save", attribute.String("page.id", pageID))
	defer func() { endSpan(span, err) }()

	doc, ok := s.editor.Store().Document(pageID)
	if !ok {
		return apperrors.NewNotFoundError("builder session", pageID)
	}
	if err := s.validateProps(doc); err != nil {
		return err
	}
	body, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode layout document of page %s: %w", pageID, err)
	}
	return s.pages.SavePageLayout(ctx, pageID, body, nil, actor)
}

// Close discards a session without saving.
func (s *BuilderService) Close(pageID string) {
	s.editor.Store().Close(pageID)
}

// validateProps checks every instance of a registered type. The first failing cell, in
// cell id order, is reported.
func (s *BuilderService) validateProps(doc *models.LayoutDocument) error {
	cellIDs := make([]string, 0, len(doc.Instances))
	for id := range doc.Instances {
		cellIDs = append(cellIDs, id)
	}
	sort.Strings(cellIDs)

	for _, cellID := range cellIDs {
		inst := doc.Instances[cellID]
		def, ok := s.registry.Get(inst.Type)
		if !ok {
			continue
		}
		rules := make(map[string]validator.PropRule, len(def.Props))
		for name, spec := range def.Props {
			rules[name] = validator.PropRule{Type: spec.Type, Required: spec.Required, Options: spec.Options}
		}
		props := widgets.ApplyDefaults(def.Props, inst.Props)
		if err := s.validator.Props(rules, props); err != nil {
			return apperrors.NewValidationError("instances."+cellID, err.Error())
		}
	}
	return nil
}
