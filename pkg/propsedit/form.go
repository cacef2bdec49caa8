package propsedit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/utils"
	"github.com/matchdesk/cms/pkg/validator"
	"github.com/matchdesk/cms/pkg/widgets"
)

// Control kinds.
const (
	ControlText     = "text"
	ControlNumber   = "number"
	ControlCheckbox = "checkbox"
	ControlSelect   = "select"
)

// Control is one editable input of the props form.
type Control struct {
	Name        string      `json:"name"`
	Label       string      `json:"label"`
	Kind        string      `json:"kind"`
	Value       interface{} `json:"value"`
	Options     []string    `json:"options,omitempty"`
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required,omitempty"`
}

// Form describes the editor for one widget instance.
type Form struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Variant  string    `json:"variant"`
	Known    bool      `json:"known"`
	Controls []Control `json:"controls"`
	Raw      string    `json:"raw"`
}

var controlKinds = map[string]string{
	widgets.PropString:  ControlText,
	widgets.PropNumber:  ControlNumber,
	widgets.PropBoolean: ControlCheckbox,
	widgets.PropSelect:  ControlSelect,
}

// BuildForm lays out the form for an instance. def may be nil for an unknown type, in
// which case only the read-only fields and the raw editor are offered. Props whose type
// has no dedicated control are left to the raw editor.
func BuildForm(def *widgets.Definition, cellID string, inst models.WidgetInstance) Form {
	form := Form{
		ID:       cellID,
		Type:     inst.Type,
		Variant:  inst.VariantOrDefault(),
		Known:    def != nil,
		Controls: []Control{},
		Raw:      RawText(inst.Props),
	}
	if def == nil {
		return form
	}

	names := make([]string, 0, len(def.Props))
	for name := range def.Props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := def.Props[name]
		kind, ok := controlKinds[spec.Type]
		if !ok {
			continue
		}
		value, set := GetPath(inst.Props, name)
		if !set {
			value = spec.Default
		}
		form.Controls = append(form.Controls, Control{
			Name:        name,
			Label:       label(name),
			Kind:        kind,
			Value:       value,
			Options:     spec.Options,
			Description: spec.Description,
			Required:    spec.Required,
		})
	}
	return form
}

// Coerce converts a value typed into a control to the prop's declared type and checks it.
// Props of undeclared or unrecognised types pass through untouched.
func Coerce(spec widgets.PropSpec, value interface{}) (interface{}, error) {
	if s, ok := value.(string); ok {
		switch spec.Type {
		case widgets.PropNumber:
			n, ok := utils.ParseNumber(s)
			if !ok {
				return nil, fmt.Errorf("%q is not a number", s)
			}
			value = n
		case widgets.PropBoolean:
			value = utils.ToBool(s)
		}
	}
	if _, known := controlKinds[spec.Type]; !known {
		return value, nil
	}
	rules := map[string]validator.PropRule{"value": {Type: spec.Type, Options: spec.Options}}
	if err := validator.GetRegistry().Props(rules, map[string]interface{}{"value": value}); err != nil {
		return nil, fmt.Errorf("%s", validator.Fields(err)["value"])
	}
	return value, nil
}

// label turns "showScores" or "chart.type" into "Show Scores" / "Chart Type".
func label(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(' ')
			upper = true
		case upper:
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
