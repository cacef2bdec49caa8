package builtin

import (
	"context"

	"github.com/matchdesk/cms/pkg/widgets"
)

var LeagueTableMeta = &widgets.Metadata{
	ID:          "league-table",
	Name:        "League Table",
	Category:    "leagues",
	DefaultSize: widgets.Size{W: 6, H: 8},
	Props: map[string]widgets.PropSpec{
		"leagueId": {Type: widgets.PropString, Required: true, Description: "League to show standings for"},
		"season":   {Type: widgets.PropString, Default: "current"},
		"rows":     {Type: widgets.PropNumber, Default: 20},
		"showForm": {Type: widgets.PropBoolean, Default: false},
	},
	StyleVariants: []widgets.StyleVariant{
		{Slug: "striped", Label: "Striped", CSSClass: "league-table--striped"},
	},
}

var LeagueTable = widgets.ComponentFunc(func(ctx context.Context, in widgets.RenderInput) (interface{}, error) {
	rows, err := positiveInt(in.Props["rows"], "rows")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"resource": "standings",
			"leagueId": in.Props["leagueId"],
			"season":   in.Props["season"],
			"rows":     rows,
		},
		"showForm": in.Props["showForm"],
	}, nil
})
