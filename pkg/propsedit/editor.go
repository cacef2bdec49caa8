package propsedit

import (
	"strings"

	apperrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/widgets"
)

// Editor edits widget instances of open builder sessions against the registry's schemas.
// Every successful edit lands in the session document immediately.
type Editor struct {
	registry *widgets.Registry
	store    *Store
	log      *logger.Logger
}

func NewEditor(registry *widgets.Registry, store *Store, log *logger.Logger) *Editor {
	if store == nil {
		store = NewStore()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Editor{registry: registry, store: store, log: log.With("component", "PropsEditor")}
}

// Store exposes the session store.
func (e *Editor) Store() *Store {
	return e.store
}

// Form builds the props form for one instance.
func (e *Editor) Form(pageID, cellID string) (Form, error) {
	inst, err := e.store.Instance(pageID, cellID)
	if err != nil {
		return Form{}, err
	}
	def, _ := e.registry.Get(inst.Type)
	return BuildForm(def, cellID, inst), nil
}

// SetProp stores value at path in the instance's props. String input is coerced to the
// declared prop type when the path is declared in the schema.
func (e *Editor) SetProp(pageID, cellID, path string, value interface{}) (models.WidgetInstance, error) {
	if strings.TrimSpace(path) == "" {
		return models.WidgetInstance{}, apperrors.NewValidationError("path", "is required")
	}
	if !ValidPath(path) {
		return models.WidgetInstance{}, apperrors.NewValidationError("path", "has an empty segment: "+path)
	}
	return e.store.Dispatch(pageID, cellID, func(inst models.WidgetInstance) (models.WidgetInstance, error) {
		if spec, ok := e.specFor(inst.Type, path); ok {
			coerced, err := Coerce(spec, value)
			if err != nil {
				return inst, apperrors.NewValidationError(path, err.Error())
			}
			value = coerced
		}
		inst.Props = SetPath(inst.Props, path, value)
		return inst, nil
	})
}

// ApplyRaw replaces the instance's props with the JSON object in text. A text that does
// not parse leaves the props untouched and reports applied=false without an error.
func (e *Editor) ApplyRaw(pageID, cellID, text string) (inst models.WidgetInstance, applied bool, err error) {
	inst, err = e.store.Dispatch(pageID, cellID, func(inst models.WidgetInstance) (models.WidgetInstance, error) {
		inst.Props, applied = ApplyRaw(inst.Props, text)
		return inst, nil
	})
	if err == nil && !applied {
		e.log.Debug("raw props did not parse, keeping previous value", "pageId", pageID, "cellId", cellID)
	}
	return inst, applied, err
}

// SetVariant selects a style variant for the instance. Unknown slugs are rejected for
// registered widget types.
func (e *Editor) SetVariant(pageID, cellID, slug string) (models.WidgetInstance, error) {
	return e.store.Dispatch(pageID, cellID, func(inst models.WidgetInstance) (models.WidgetInstance, error) {
		if def, ok := e.registry.Get(inst.Type); ok {
			if _, ok := def.Variant(slug); !ok {
				return inst, apperrors.NewValidationError("variant", "unknown style variant "+slug)
			}
		}
		inst.Variant = slug
		return inst, nil
	})
}

func (e *Editor) specFor(widgetType, path string) (widgets.PropSpec, bool) {
	schema, ok := e.registry.PropSchema(widgetType)
	if !ok {
		return widgets.PropSpec{}, false
	}
	if spec, ok := schema[path]; ok {
		return spec, true
	}
	return widgets.PropSpec{}, false
}
