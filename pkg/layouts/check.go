package layouts

import (
	"fmt"
	"sort"
)

// Problem is one structural issue found in a static layout bundle.
type Problem struct {
	Layout     string `json:"layout"`
	Breakpoint string `json:"breakpoint,omitempty"`
	Cell       string `json:"cell,omitempty"`
	Message    string `json:"message"`
}

func (p Problem) String() string {
	loc := p.Layout
	if p.Breakpoint != "" {
		loc += "/" + p.Breakpoint
	}
	if p.Cell != "" {
		loc += "#" + p.Cell
	}
	return loc + ": " + p.Message
}

// Check reports duplicate cell ids, bad geometry, cells without an instance and bundles
// that no breakpoint in Precedence can resolve. Results are ordered by layout id.
func Check(t Table) []Problem {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var problems []Problem
	for _, id := range ids {
		b := t[id]
		if _, _, ok := SelectBreakpoint(b); !ok {
			problems = append(problems, Problem{Layout: id, Message: fmt.Sprintf("no breakpoint among %v", Precedence)})
		}

		bps := make([]string, 0, len(b.Breakpoints))
		for bp := range b.Breakpoints {
			bps = append(bps, bp)
		}
		sort.Strings(bps)

		for _, bp := range bps {
			seen := make(map[string]bool)
			for _, item := range b.Breakpoints[bp] {
				p := Problem{Layout: id, Breakpoint: bp, Cell: item.I}
				switch {
				case item.I == "":
					p.Message = "cell id is empty"
				case seen[item.I]:
					p.Message = "duplicate cell id"
				case item.X < 0 || item.Y < 0:
					p.Message = "negative position"
				case item.W < 1 || item.H < 1:
					p.Message = "width and height must be at least 1"
				case !hasInstance(b, item.I):
					p.Message = "cell has no widget instance"
				default:
					seen[item.I] = true
					continue
				}
				seen[item.I] = true
				problems = append(problems, p)
			}
		}
	}
	return problems
}

func hasInstance(b *Bundle, cell string) bool {
	_, ok := b.Instances[cell]
	return ok
}
