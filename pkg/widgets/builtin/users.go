package builtin

import (
	"context"

	"github.com/matchdesk/cms/pkg/widgets"
)

var UserActivityMeta = &widgets.Metadata{
	ID:          "user-activity",
	Name:        "User Activity",
	Category:    "users",
	DefaultSize: widgets.Size{W: 6, H: 4},
	Props: map[string]widgets.PropSpec{
		"period":  {Type: widgets.PropSelect, Default: "week", Options: []string{"day", "week", "month"}},
		"showNew": {Type: widgets.PropBoolean, Default: true},
		"chart": {
			Type:    "object",
			Default: map[string]interface{}{"type": "bar", "stacked": false},
		},
	},
}

var UserActivity = widgets.ComponentFunc(func(ctx context.Context, in widgets.RenderInput) (interface{}, error) {
	return map[string]interface{}{
		"query":   map[string]interface{}{"resource": "users/activity", "period": in.Props["period"]},
		"showNew": in.Props["showNew"],
		"chart":   in.Props["chart"],
	}, nil
})

// Sparkline is a shared chart helper that lives next to the widgets but is not itself a
// CMS widget, so it ships without metadata.
var Sparkline = widgets.ComponentFunc(func(ctx context.Context, in widgets.RenderInput) (interface{}, error) {
	return map[string]interface{}{"points": in.Props["points"]}, nil
})
