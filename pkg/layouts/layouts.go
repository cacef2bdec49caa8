// Package layouts loads the static layout bundles that back pages without a saved CMS
// layout, and selects a breakpoint variant from a bundle.
package layouts

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matchdesk/cms/pkg/models"
)

//go:embed static_layouts.yaml
var embeddedLayouts []byte

// Precedence is the breakpoint order tried when resolving a bundle, widest first.
var Precedence = []string{models.BreakpointXL, models.BreakpointLG, models.BreakpointMD}

// Bundle is one named static layout with its responsive variants and default instances.
type Bundle struct {
	Name        string                           `yaml:"name" json:"name"`
	Breakpoints map[string][]models.LayoutItem   `yaml:"breakpoints" json:"breakpoints"`
	Instances   map[string]models.WidgetInstance `yaml:"instances" json:"instances"`
}

// Table maps layout ids to bundles.
type Table map[string]*Bundle

type file struct {
	Layouts Table `yaml:"layouts"`
}

// Source yields the static layouts table.
type Source interface {
	Load(ctx context.Context) (Table, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Table, error)

func (f SourceFunc) Load(ctx context.Context) (Table, error) { return f(ctx) }

// Parse decodes a layouts YAML document.
func Parse(data []byte) (Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse static layouts: %w", err)
	}
	if f.Layouts == nil {
		return Table{}, nil
	}
	for id, b := range f.Layouts {
		if b == nil {
			return nil, fmt.Errorf("parse static layouts: layout %q is empty", id)
		}
		if b.Instances == nil {
			b.Instances = map[string]models.WidgetInstance{}
		}
	}
	return f.Layouts, nil
}

// EmbeddedSource serves the layouts compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Load(ctx context.Context) (Table, error) {
	return Parse(embeddedLayouts)
}

// FileSource reads layouts from a YAML file on every Load.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (Table, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read static layouts: %w", err)
	}
	return Parse(data)
}

// SelectBreakpoint returns the first variant present in Precedence order.
func SelectBreakpoint(b *Bundle) (string, []models.LayoutItem, bool) {
	if b == nil {
		return "", nil, false
	}
	for _, bp := range Precedence {
		if items, ok := b.Breakpoints[bp]; ok {
			return bp, items, true
		}
	}
	return "", nil, false
}
