package validator

import (
	"sort"
	"strings"
)

// FieldError is one failed check on a document key.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects field errors from one document.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// ThemeOverrides checks the recognised keys of a theme overrides document. Unknown keys
// are accepted and an empty document is always valid.
func (r *Registry) ThemeOverrides(doc map[string]interface{}) error {
	var errs Errors
	for key, name := range map[string]string{"themeMode": ThemeMode, "themeVariant": ThemeVariant} {
		v, ok := doc[key]
		if !ok {
			continue
		}
		if err := r.Validate(name, v, nil); err != nil {
			errs = append(errs, FieldError{Field: key, Message: err.Error()})
		}
	}
	if wv, ok := doc["widgetVariants"]; ok {
		m, isMap := wv.(map[string]interface{})
		if !isMap {
			errs = append(errs, FieldError{Field: "widgetVariants", Message: "must be an object"})
		}
		for widgetType, slug := range m {
			if err := r.Validate(ThemeVariant, slug, nil); err != nil {
				errs = append(errs, FieldError{Field: "widgetVariants." + widgetType, Message: err.Error()})
			}
		}
	}
	return errs.orNil()
}

// PropRule is the subset of a widget prop declaration the validator needs.
type PropRule struct {
	Type     string
	Required bool
	Options  []string
}

// Props checks props against the declared rules. Props of undeclared or unknown types
// are not checked.
func (r *Registry) Props(rules map[string]PropRule, props map[string]interface{}) error {
	var errs Errors
	for name, rule := range rules {
		v, ok := props[name]
		if !ok || v == nil {
			if rule.Required {
				errs = append(errs, FieldError{Field: name, Message: "is required"})
			}
			continue
		}
		validatorName := "prop_" + rule.Type
		if _, known := r.Get(validatorName); !known {
			continue
		}
		if err := r.Validate(validatorName, v, map[string]interface{}{"options": rule.Options}); err != nil {
			errs = append(errs, FieldError{Field: name, Message: err.Error()})
		}
	}
	return errs.orNil()
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	sort.Slice(e, func(i, j int) bool { return e[i].Field < e[j].Field })
	return e
}

// Fields flattens a validation error into field → message, for API responses.
func Fields(err error) map[string]string {
	errs, ok := err.(Errors)
	if !ok {
		if err == nil {
			return nil
		}
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field] = fe.Message
	}
	return out
}
