// Package validator provides a pluggable validator registry for theme overrides and
// widget props.
package validator

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// ValidatorFunc is the signature for validator functions
// Takes a value and optional configuration, returns an error if validation fails
type ValidatorFunc func(value interface{}, config map[string]interface{}) error

// Registry holds registered validators
type Registry struct {
	validators map[string]ValidatorFunc
	mu         sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Validator names registered by default.
const (
	ThemeMode    = "theme_mode"
	ThemeVariant = "theme_variant"
	PropString   = "prop_string"
	PropNumber   = "prop_number"
	PropBoolean  = "prop_boolean"
	PropSelect   = "prop_select"
)

var themeVariantPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// GetRegistry returns the singleton validator registry
func GetRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry returns a registry with the built-in validators.
func NewRegistry() *Registry {
	r := &Registry{validators: make(map[string]ValidatorFunc)}
	r.registerBuiltins()
	return r
}

// Register adds a validator to the registry
func (r *Registry) Register(name string, fn ValidatorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = fn
}

// Get returns a validator by name
func (r *Registry) Get(name string) (ValidatorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.validators[name]
	return fn, ok
}

// Validate runs a named validator
func (r *Registry) Validate(name string, value interface{}, config map[string]interface{}) error {
	fn, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("validator '%s' not found", name)
	}
	return fn(value, config)
}

// List returns all registered validator names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// registerBuiltins registers all built-in validators
func (r *Registry) registerBuiltins() {
	r.Register(ThemeMode, func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || (str != "light" && str != "dark") {
			return fmt.Errorf("must be 'light' or 'dark'")
		}
		return nil
	})

	r.Register(ThemeVariant, func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok || !themeVariantPattern.MatchString(str) {
			return fmt.Errorf("must match %s", themeVariantPattern.String())
		}
		return nil
	})

	r.Register(PropString, func(value interface{}, config map[string]interface{}) error {
		if _, ok := value.(string); !ok {
			return fmt.Errorf("must be a string")
		}
		return nil
	})

	r.Register(PropNumber, func(value interface{}, config map[string]interface{}) error {
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return nil
		default:
			return fmt.Errorf("must be a number")
		}
	})

	r.Register(PropBoolean, func(value interface{}, config map[string]interface{}) error {
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("must be a boolean")
		}
		return nil
	})

	r.Register(PropSelect, func(value interface{}, config map[string]interface{}) error {
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("must be a string")
		}
		options, _ := config["options"].([]string)
		if len(options) == 0 {
			return nil
		}
		for _, opt := range options {
			if opt == str {
				return nil
			}
		}
		return fmt.Errorf("must be one of %v", options)
	})
}
