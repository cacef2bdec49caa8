package builtin

import (
	"context"

	"github.com/matchdesk/cms/pkg/widgets"
)

// MatchListMeta describes the match list widget.
var MatchListMeta = &widgets.Metadata{
	ID:          "match-list",
	Name:        "Match List",
	Category:    "matches",
	Preview:     "/previews/match-list.png",
	DefaultSize: widgets.Size{W: 6, H: 6},
	Props: map[string]widgets.PropSpec{
		"title":      {Type: widgets.PropString, Default: "Recent Matches"},
		"limit":      {Type: widgets.PropNumber, Default: 10, Description: "Number of matches shown"},
		"status":     {Type: widgets.PropSelect, Default: "all", Options: []string{"all", "scheduled", "live", "finished"}},
		"showScores": {Type: widgets.PropBoolean, Default: true},
		"leagueId":   {Type: widgets.PropString, Description: "Restrict to one league"},
	},
	StyleVariants: []widgets.StyleVariant{
		{Slug: "default", Label: "Default"},
		{Slug: "compact", Label: "Compact", Description: "Single-line rows", CSSClass: "match-list--compact"},
		{Slug: "card", Label: "Cards", SupportedTokens: []string{"surface", "accent"}, CSSClass: "match-list--card"},
	},
}

// MatchList renders the match list view model. Match data is fetched by the client using
// the query it describes.
var MatchList = widgets.ComponentFunc(func(ctx context.Context, in widgets.RenderInput) (interface{}, error) {
	return map[string]interface{}{
		"title": in.Props["title"],
		"query": map[string]interface{}{
			"resource": "matches",
			"status":   in.Props["status"],
			"leagueId": in.Props["leagueId"],
			"limit":    in.Props["limit"],
		},
		"showScores": in.Props["showScores"],
	}, nil
})

// UpcomingEventsMeta describes the upcoming events widget.
var UpcomingEventsMeta = &widgets.Metadata{
	ID:          "upcoming-events",
	Name:        "Upcoming Events",
	Category:    "matches",
	DefaultSize: widgets.Size{W: 4, H: 5},
	Props: map[string]widgets.PropSpec{
		"title":     {Type: widgets.PropString, Default: "Upcoming Events"},
		"daysAhead": {Type: widgets.PropNumber, Default: 7, Required: true},
	},
}

var UpcomingEvents = widgets.ComponentFunc(func(ctx context.Context, in widgets.RenderInput) (interface{}, error) {
	days, err := positiveInt(in.Props["daysAhead"], "daysAhead")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"title": in.Props["title"],
		"query": map[string]interface{}{"resource": "events", "daysAhead": days},
	}, nil
})
