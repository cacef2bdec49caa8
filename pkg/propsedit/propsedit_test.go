package propsedit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/widgets"
)

func testRegistry() *widgets.Registry {
	noop := widgets.ComponentFunc(func(ctx context.Context, in widgets.RenderInput) (interface{}, error) { return nil, nil })
	return widgets.NewRegistryBuilder(nil).Add(widgets.Module{
		Path:      "widgets/match-list",
		Component: noop,
		Meta: &widgets.Metadata{
			ID: "match-list", Name: "Match List", Category: "matches",
			Props: map[string]widgets.PropSpec{
				"title":      {Type: widgets.PropString, Default: "Matches", Required: true},
				"limit":      {Type: widgets.PropNumber, Default: 10},
				"showScores": {Type: widgets.PropBoolean, Default: true},
				"status":     {Type: widgets.PropSelect, Default: "all", Options: []string{"all", "live"}},
				"chart.type": {Type: widgets.PropString, Default: "bar"},
				"palette":    {Type: "color"},
			},
			StyleVariants: []widgets.StyleVariant{{Slug: "compact", Label: "Compact"}},
		},
	}).Build()
}

func TestSetPath_NestedKeepsSiblings(t *testing.T) {
	props := map[string]interface{}{
		"title": "x",
		"chart": map[string]interface{}{"type": "bar", "stacked": true},
	}

	out := SetPath(props, "chart.type", "line")

	assert.Equal(t, map[string]interface{}{
		"title": "x",
		"chart": map[string]interface{}{"type": "line", "stacked": true},
	}, out)
	assert.Equal(t, "bar", props["chart"].(map[string]interface{})["type"], "input must not change")
}

func TestSetPath_CreatesIntermediates(t *testing.T) {
	out := SetPath(nil, "a.b.c", 1)
	assert.Equal(t, map[string]interface{}{"a": map[string]interface{}{"b": map[string]interface{}{"c": 1}}}, out)

	out = SetPath(map[string]interface{}{"a": "scalar", "z": 2}, "a.b", true)
	assert.Equal(t, map[string]interface{}{"a": map[string]interface{}{"b": true}, "z": 2}, out)

	v, ok := GetPath(out, "a.b")
	assert.True(t, ok)
	assert.Equal(t, true, v)
	_, ok = GetPath(out, "z.q")
	assert.False(t, ok)
}

func TestApplyRaw(t *testing.T) {
	prior := map[string]interface{}{"limit": 5}

	tests := []struct {
		name    string
		text    string
		applied bool
		want    map[string]interface{}
	}{
		{"object", `{"limit": 8, "title": "New"}`, true, map[string]interface{}{"limit": float64(8), "title": "New"}},
		{"empty object", `{}`, true, map[string]interface{}{}},
		{"truncated", `{"limit": 8`, false, prior},
		{"array", `[1,2]`, false, prior},
		{"null", `null`, false, prior},
		{"garbage", `limit=8`, false, prior},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, applied := ApplyRaw(prior, tt.text)
			assert.Equal(t, tt.applied, applied)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestBuildForm(t *testing.T) {
	def, _ := testRegistry().Get("match-list")
	inst := models.WidgetInstance{Type: "match-list", Props: map[string]interface{}{
		"limit": 3,
		"chart": map[string]interface{}{"type": "pie"},
	}}

	form := BuildForm(def, "cell-1", inst)

	assert.Equal(t, "cell-1", form.ID)
	assert.Equal(t, "match-list", form.Type)
	assert.Equal(t, "default", form.Variant)
	assert.True(t, form.Known)

	byName := map[string]Control{}
	var names []string
	for _, c := range form.Controls {
		byName[c.Name] = c
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"chart.type", "limit", "showScores", "status", "title"}, names, "palette has no control")
	assert.Equal(t, ControlNumber, byName["limit"].Kind)
	assert.Equal(t, 3, byName["limit"].Value)
	assert.Equal(t, ControlCheckbox, byName["showScores"].Kind)
	assert.Equal(t, true, byName["showScores"].Value)
	assert.Equal(t, ControlSelect, byName["status"].Kind)
	assert.Equal(t, []string{"all", "live"}, byName["status"].Options)
	assert.Equal(t, "pie", byName["chart.type"].Value)
	assert.Equal(t, "Chart Type", byName["chart.type"].Label)
	assert.Equal(t, "Show Scores", byName["showScores"].Label)
	assert.Contains(t, form.Raw, `"limit": 3`)

	unknown := BuildForm(nil, "c", models.WidgetInstance{Type: "ghost"})
	assert.False(t, unknown.Known)
	assert.Empty(t, unknown.Controls)
	assert.Equal(t, "{}", unknown.Raw)
}

func openEditor(t *testing.T) *Editor {
	t.Helper()
	ed := NewEditor(testRegistry(), nil, nil)
	ed.Store().Open("page-1", &models.LayoutDocument{
		Instances: map[string]models.WidgetInstance{
			"a": {Type: "match-list", Props: map[string]interface{}{"title": "Live", "chart": map[string]interface{}{"stacked": true}}},
			"g": {Type: "ghost"},
		},
		Layout: []models.LayoutItem{{I: "a", W: 4, H: 4}},
	})
	return ed
}

func TestEditor_SetPropDispatchesImmediately(t *testing.T) {
	ed := openEditor(t)

	inst, err := ed.SetProp("page-1", "a", "limit", "25")
	require.NoError(t, err)
	assert.Equal(t, 25, inst.Props["limit"])

	_, err = ed.SetProp("page-1", "a", "chart.type", "line")
	require.NoError(t, err)

	doc, ok := ed.Store().Document("page-1")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"title": "Live",
		"limit": 25,
		"chart": map[string]interface{}{"stacked": true, "type": "line"},
	}, doc.Instances["a"].Props)
}

func TestEditor_SetPropValidation(t *testing.T) {
	ed := openEditor(t)

	_, err := ed.SetProp("page-1", "a", "limit", "many")
	assert.True(t, apperrors.IsValidation(err))

	_, err = ed.SetProp("page-1", "a", "status", "finished")
	assert.True(t, apperrors.IsValidation(err))

	inst, err := ed.Store().Instance("page-1", "a")
	require.NoError(t, err)
	_, hasLimit := inst.Props["limit"]
	assert.False(t, hasLimit)

	inst, err = ed.SetProp("page-1", "a", "showScores", "false")
	require.NoError(t, err)
	assert.Equal(t, false, inst.Props["showScores"])

	inst, err = ed.SetProp("page-1", "g", "anything", "goes")
	require.NoError(t, err)
	assert.Equal(t, "goes", inst.Props["anything"])

	_, err = ed.SetProp("page-1", "missing", "limit", 1)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = ed.SetProp("page-2", "a", "limit", 1)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = ed.SetProp("page-1", "a", " ", 1)
	assert.True(t, apperrors.IsValidation(err))
}

func TestEditor_SetPropRejectsEmptySegments(t *testing.T) {
	ed := openEditor(t)

	for _, path := range []string{"chart.", ".chart", "chart..type", "chart. .type"} {
		_, err := ed.SetProp("page-1", "a", path, "line")
		assert.True(t, apperrors.IsValidation(err), path)
	}

	inst, err := ed.Store().Instance("page-1", "a")
	require.NoError(t, err)
	_, hasBlank := inst.Props[""]
	assert.False(t, hasBlank)
	assert.Equal(t, map[string]interface{}{"stacked": true}, inst.Props["chart"])

	assert.True(t, ValidPath("chart.type"))
	assert.False(t, ValidPath(""))
}

func TestEditor_ApplyRawParseFailureIsSilent(t *testing.T) {
	ed := openEditor(t)

	inst, applied, err := ed.ApplyRaw("page-1", "a", `{"title": `)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "Live", inst.Props["title"])

	inst, applied, err = ed.ApplyRaw("page-1", "a", `{"title": "Fixtures"}`)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, map[string]interface{}{"title": "Fixtures"}, inst.Props)

	doc, _ := ed.Store().Document("page-1")
	assert.Equal(t, "Fixtures", doc.Instances["a"].Props["title"])
}

func TestEditor_SetVariant(t *testing.T) {
	ed := openEditor(t)

	inst, err := ed.SetVariant("page-1", "a", "compact")
	require.NoError(t, err)
	assert.Equal(t, "compact", inst.Variant)

	_, err = ed.SetVariant("page-1", "a", "neon")
	assert.True(t, apperrors.IsValidation(err))

	form, err := ed.Form("page-1", "a")
	require.NoError(t, err)
	assert.Equal(t, "compact", form.Variant)
}

func TestStore_SessionsAreCopies(t *testing.T) {
	s := NewStore()
	original := &models.LayoutDocument{Instances: map[string]models.WidgetInstance{
		"a": {Type: "kpi", Props: map[string]interface{}{"v": 1}},
	}}
	s.Open("p", original)

	doc, _ := s.Document("p")
	doc.Instances["a"].Props["v"] = 99

	again, _ := s.Document("p")
	assert.Equal(t, 1, again.Instances["a"].Props["v"])
	assert.Equal(t, 1, original.Instances["a"].Props["v"])

	s.Close("p")
	_, ok := s.Document("p")
	assert.False(t, ok)
}
