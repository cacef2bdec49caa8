package builtin

import (
	"context"
	"fmt"

	"github.com/matchdesk/cms/pkg/utils"
	"github.com/matchdesk/cms/pkg/widgets"
)

var PredictionAccuracyMeta = &widgets.Metadata{
	ID:          "prediction-accuracy",
	Name:        "Prediction Accuracy",
	Category:    "analytics",
	DefaultSize: widgets.Size{W: 4, H: 4},
	Props: map[string]widgets.PropSpec{
		"window":    {Type: widgets.PropSelect, Default: "30d", Options: []string{"7d", "30d", "90d", "season"}},
		"modelId":   {Type: widgets.PropString},
		"showTrend": {Type: widgets.PropBoolean, Default: true},
	},
	StyleVariants: []widgets.StyleVariant{
		{Slug: "gauge", Label: "Gauge", CSSClass: "accuracy--gauge"},
		{Slug: "line", Label: "Line chart", CSSClass: "accuracy--line", Overrides: map[string]interface{}{"showTrend": true}},
	},
}

var PredictionAccuracy = widgets.ComponentFunc(func(ctx context.Context, in widgets.RenderInput) (interface{}, error) {
	return map[string]interface{}{
		"chart": chartKind(in.Variant.Slug),
		"query": map[string]interface{}{
			"resource": "predictions/accuracy",
			"window":   in.Props["window"],
			"modelId":  in.Props["modelId"],
		},
		"showTrend": in.Props["showTrend"],
	}, nil
})

var ModelLeaderboardMeta = &widgets.Metadata{
	ID:       "model-leaderboard",
	Name:     "Model Leaderboard",
	Category: "analytics",
	Props: map[string]widgets.PropSpec{
		"metric": {Type: widgets.PropSelect, Default: "accuracy", Options: []string{"accuracy", "logloss", "roi"}},
		"top":    {Type: widgets.PropNumber, Default: 5},
	},
}

var ModelLeaderboard = widgets.ComponentFunc(func(ctx context.Context, in widgets.RenderInput) (interface{}, error) {
	top, err := positiveInt(in.Props["top"], "top")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"resource": "models/leaderboard", "metric": in.Props["metric"], "top": top},
	}, nil
})

var KPICardMeta = &widgets.Metadata{
	ID:          "kpi-card",
	Name:        "KPI Card",
	Category:    "analytics",
	DefaultSize: widgets.Size{W: 3, H: 2},
	Props: map[string]widgets.PropSpec{
		"label":  {Type: widgets.PropString, Default: "KPI", Required: true},
		"metric": {Type: widgets.PropString, Required: true},
		"format": {Type: widgets.PropSelect, Default: "number", Options: []string{"number", "percent", "currency"}},
		"style":  {Type: "color", Description: "Accent colour token"},
	},
	StyleVariants: []widgets.StyleVariant{
		{Slug: "accent", Label: "Accent", SupportedTokens: []string{"accent"}, CSSClass: "kpi--accent"},
		{Slug: "outline", Label: "Outline", CSSClass: "kpi--outline"},
	},
}

var KPICard = widgets.ComponentFunc(func(ctx context.Context, in widgets.RenderInput) (interface{}, error) {
	metric, _ := in.Props["metric"].(string)
	if metric == "" && !in.IsPreview {
		return nil, fmt.Errorf("kpi-card: metric is required")
	}
	return map[string]interface{}{
		"label":  in.Props["label"],
		"metric": metric,
		"format": in.Props["format"],
	}, nil
})

func chartKind(variant string) string {
	if variant == "line" {
		return "line"
	}
	return "gauge"
}

func positiveInt(v interface{}, name string) (int, error) {
	n, ok := utils.ToInt(v)
	if !ok || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %v", name, v)
	}
	return n, nil
}
