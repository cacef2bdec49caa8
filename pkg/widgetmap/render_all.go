package widgetmap

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matchdesk/cms/pkg/models"
)

// renderConcurrency bounds how many cells render at once.
const renderConcurrency = 8

// RenderAll renders every element of m in layout order. Cells of items that are not in m
// are skipped; a cell id that appears twice is rendered once, at its last position.
func RenderAll(ctx context.Context, m Map, items []models.LayoutItem, env RenderEnv) ([]View, error) {
	last := make(map[string]int, len(items))
	for i, item := range items {
		last[item.I] = i
	}

	order := make([]models.LayoutItem, 0, len(m))
	for i, item := range items {
		if _, ok := m[item.I]; ok && last[item.I] == i {
			order = append(order, item)
		}
	}

	views := make([]View, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(renderConcurrency)
	for i, item := range order {
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v := m[item.I].Render(gctx, env)
			layout := item
			v.Layout = &layout
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}
