package widgets

import (
	"sort"
	"strings"

	"github.com/matchdesk/cms/pkg/logger"
)

const indexSuffix = "/index"

// RegistryBuilder collects widget modules and turns them into an immutable Registry.
// Build never fails: malformed modules are logged and left out.
type RegistryBuilder struct {
	log     *logger.Logger
	modules []Module
}

func NewRegistryBuilder(log *logger.Logger) *RegistryBuilder {
	if log == nil {
		log = logger.Nop()
	}
	return &RegistryBuilder{log: log.With("component", "WidgetRegistry")}
}

// Add queues modules for registration, in manifest order.
func (b *RegistryBuilder) Add(modules ...Module) *RegistryBuilder {
	b.modules = append(b.modules, modules...)
	return b
}

// Build validates the queued modules and returns the registry.
func (b *RegistryBuilder) Build() *Registry {
	reg := &Registry{byID: make(map[string]*Definition)}

	for _, m := range b.dedupe() {
		if m.Component == nil || m.Meta == nil {
			b.log.Debug("module exports no registrable widget, skipping", "path", m.Path)
			continue
		}
		if problems := validateMetadata(m.Meta); len(problems) > 0 {
			b.log.Warn("invalid widget metadata, skipping module",
				"path", m.Path, "problems", strings.Join(problems, "; "))
			continue
		}
		if existing, ok := reg.byID[m.Meta.ID]; ok {
			b.log.Warn("duplicate widget id, skipping module",
				"path", m.Path, "id", m.Meta.ID, "registeredBy", existing.Path)
			continue
		}
		def := newDefinition(m)
		reg.defs = append(reg.defs, def)
		reg.byID[def.ID] = def
	}

	b.log.Info("widget registry built", "widgets", len(reg.defs), "candidates", len(b.modules))
	return reg
}

// dedupe drops flat-file modules shadowed by a directory-index module for the same
// logical path. The surviving module keeps the position of the first one seen.
func (b *RegistryBuilder) dedupe() []Module {
	out := make([]Module, 0, len(b.modules))
	pos := make(map[string]int, len(b.modules))

	for _, m := range b.modules {
		logical := strings.TrimSuffix(m.Path, indexSuffix)
		i, seen := pos[logical]
		if !seen {
			pos[logical] = len(out)
			out = append(out, m)
			continue
		}
		if isIndex(m.Path) && !isIndex(out[i].Path) {
			b.log.Debug("directory index shadows flat module", "index", m.Path, "flat", out[i].Path)
			out[i] = m
			continue
		}
		b.log.Debug("module shadowed by earlier entry", "path", m.Path, "kept", out[i].Path)
	}
	return out
}

func isIndex(path string) bool {
	return strings.HasSuffix(path, indexSuffix)
}

func validateMetadata(meta *Metadata) []string {
	var problems []string
	if strings.TrimSpace(meta.ID) == "" {
		problems = append(problems, "id is required")
	}
	if strings.TrimSpace(meta.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(meta.Category) == "" {
		problems = append(problems, "category is required")
	}
	if meta.DefaultSize.W < 0 || meta.DefaultSize.H < 0 {
		problems = append(problems, "defaultSize must be positive")
	}
	return problems
}

func newDefinition(m Module) *Definition {
	raw := *m.Meta
	raw.Props = copyProps(m.Meta.Props)
	raw.StyleVariants = append([]StyleVariant(nil), m.Meta.StyleVariants...)
	if raw.DefaultSize.W == 0 || raw.DefaultSize.H == 0 {
		raw.DefaultSize = DefaultWidgetSize
	}

	return &Definition{
		ID:            raw.ID,
		Name:          raw.Name,
		Category:      raw.Category,
		DefaultSize:   raw.DefaultSize,
		Props:         raw.Props,
		StyleVariants: raw.StyleVariants,
		Raw:           &raw,
		Path:          m.Path,
		Component:     m.Component,
	}
}

func copyProps(in map[string]PropSpec) map[string]PropSpec {
	out := make(map[string]PropSpec, len(in))
	for k, v := range in {
		v.Options = append([]string(nil), v.Options...)
		out[k] = v
	}
	return out
}

// Registry is the immutable widget catalog. It is safe for concurrent use.
type Registry struct {
	defs []*Definition
	byID map[string]*Definition
}

// Get returns the definition registered under id. Repeated calls return the same pointer.
func (r *Registry) Get(id string) (*Definition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// All returns every definition in registry order.
func (r *Registry) All() []*Definition {
	return append(make([]*Definition, 0, len(r.defs)), r.defs...)
}

// Len reports the number of registered widgets.
func (r *Registry) Len() int {
	return len(r.defs)
}

// ByCategory returns the definitions whose category matches exactly, in registry order.
func (r *Registry) ByCategory(category string) []*Definition {
	out := make([]*Definition, 0)
	for _, def := range r.defs {
		if def.Category == category {
			out = append(out, def)
		}
	}
	return out
}

// Categories returns the distinct categories, sorted ascending.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, def := range r.defs {
		if _, ok := seen[def.Category]; ok {
			continue
		}
		seen[def.Category] = struct{}{}
		out = append(out, def.Category)
	}
	sort.Strings(out)
	return out
}

// PropSchema returns a copy of the props schema of widget id.
func (r *Registry) PropSchema(id string) (map[string]PropSpec, bool) {
	def, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return copyProps(def.Props), true
}
