// Package builtin holds the widgets shipped with the CMS and the static manifest that
// lists them for the registry.
package builtin

import (
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/widgets"
)

// Modules returns the widget manifest in registration order. Some widgets still have a
// legacy flat-file entry next to their directory index; the registry keeps the index.
func Modules() []widgets.Module {
	return []widgets.Module{
		{Path: "widgets/match-list", Component: MatchList, Meta: legacyMatchListMeta},
		{Path: "widgets/match-list/index", Component: MatchList, Meta: MatchListMeta},
		{Path: "widgets/league-table/index", Component: LeagueTable, Meta: LeagueTableMeta},
		{Path: "widgets/prediction-accuracy/index", Component: PredictionAccuracy, Meta: PredictionAccuracyMeta},
		{Path: "widgets/upcoming-events", Component: UpcomingEvents, Meta: UpcomingEventsMeta},
		{Path: "widgets/kpi-card/index", Component: KPICard, Meta: KPICardMeta},
		{Path: "widgets/user-activity/index", Component: UserActivity, Meta: UserActivityMeta},
		{Path: "widgets/model-leaderboard", Component: ModelLeaderboard, Meta: ModelLeaderboardMeta},
		{Path: "widgets/charts/sparkline", Component: Sparkline},
	}
}

// NewRegistry builds a registry from the built-in manifest.
func NewRegistry(log *logger.Logger) *widgets.Registry {
	return widgets.NewRegistryBuilder(log).Add(Modules()...).Build()
}

var legacyMatchListMeta = &widgets.Metadata{
	ID:       "match-list",
	Name:     "Match List (legacy)",
	Category: "matches",
	Props: map[string]widgets.PropSpec{
		"limit": {Type: widgets.PropNumber, Default: 5},
	},
}
