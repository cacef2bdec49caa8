package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matchdesk/cms/internal/application/services"
	"github.com/matchdesk/cms/internal/interfaces/middleware"
	"github.com/matchdesk/cms/internal/interfaces/rest"
	"github.com/matchdesk/cms/pkg/auth"
	appErrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/propsedit"
	"github.com/matchdesk/cms/pkg/widgets/builtin"
)

// MockPageService is a mock implementation of the PageService
type MockPageService struct {
	mock.Mock
}

func (m *MockPageService) GetAllPages(ctx context.Context) []*models.Page {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Page)
}

func (m *MockPageService) CreatePage(ctx context.Context, in services.CreatePageInput, actor *string) (*models.Page, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page), args.Error(1)
}

func (m *MockPageService) GetPageByID(ctx context.Context, id string) (*models.Page, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page), args.Error(1)
}

func (m *MockPageService) GetPageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page), args.Error(1)
}

func (m *MockPageService) DeletePage(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPageService) LoadPageLayout(ctx context.Context, pageID string) (*models.PageLayoutResult, error) {
	args := m.Called(ctx, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PageLayoutResult), args.Error(1)
}

func (m *MockPageService) SavePageLayout(ctx context.Context, pageID string, body json.RawMessage, overrides *models.ThemeOverrides, actor *string) error {
	return m.Called(ctx, pageID, body, overrides, actor).Error(0)
}

func (m *MockPageService) UpdatePageThemeOverrides(ctx context.Context, pageID string, overrides models.ThemeOverrides, actor *string) (models.ThemeOverrides, error) {
	args := m.Called(ctx, pageID, overrides, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.ThemeOverrides), args.Error(1)
}

func (m *MockPageService) MergePageThemeOverrides(ctx context.Context, pageID string, partial models.ThemeOverrides, actor *string) (models.ThemeOverrides, error) {
	args := m.Called(ctx, pageID, partial, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.ThemeOverrides), args.Error(1)
}

func (m *MockPageService) GetPageThemeOverrideAuditLog(ctx context.Context, pageID string, limit int) ([]*models.AuditEntry, error) {
	args := m.Called(ctx, pageID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditEntry), args.Error(1)
}

// MockRenderService is a mock implementation of the RenderService
type MockRenderService struct {
	mock.Mock
}

func (m *MockRenderService) RenderPage(ctx context.Context, pageID string, preview bool) (*services.PageView, error) {
	args := m.Called(ctx, pageID, preview)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PageView), args.Error(1)
}

func (m *MockRenderService) RenderLayout(ctx context.Context, layoutID string) (*services.PageView, error) {
	args := m.Called(ctx, layoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PageView), args.Error(1)
}

// MockBuilderService is a mock implementation of the BuilderService
type MockBuilderService struct {
	mock.Mock
}

func (m *MockBuilderService) Open(ctx context.Context, pageID string) (*models.LayoutDocument, error) {
	args := m.Called(ctx, pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LayoutDocument), args.Error(1)
}

func (m *MockBuilderService) Document(pageID string) (*models.LayoutDocument, error) {
	args := m.Called(pageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LayoutDocument), args.Error(1)
}

func (m *MockBuilderService) Form(pageID, cellID string) (propsedit.Form, error) {
	args := m.Called(pageID, cellID)
	return args.Get(0).(propsedit.Form), args.Error(1)
}

func (m *MockBuilderService) SetProp(pageID, cellID, path string, value interface{}) (models.WidgetInstance, error) {
	args := m.Called(pageID, cellID, path, value)
	return args.Get(0).(models.WidgetInstance), args.Error(1)
}

func (m *MockBuilderService) SetVariant(pageID, cellID, slug string) (models.WidgetInstance, error) {
	args := m.Called(pageID, cellID, slug)
	return args.Get(0).(models.WidgetInstance), args.Error(1)
}

func (m *MockBuilderService) ApplyRaw(pageID, cellID, text string) (models.WidgetInstance, bool, error) {
	args := m.Called(pageID, cellID, text)
	return args.Get(0).(models.WidgetInstance), args.Bool(1), args.Error(2)
}

func (m *MockBuilderService) Save(ctx context.Context, pageID string, actor *string) error {
	return m.Called(ctx, pageID, actor).Error(0)
}

func (m *MockBuilderService) Close(pageID string) {
	m.Called(pageID)
}

type testServer struct {
	router  *gin.Engine
	pages   *MockPageService
	render  *MockRenderService
	builder *MockBuilderService
}

// newTestServer mounts the routes behind a stub authenticator that signs every request
// in as user.
func newTestServer(user auth.UserSession) *testServer {
	gin.SetMode(gin.TestMode)
	ts := &testServer{
		router:  gin.New(),
		pages:   new(MockPageService),
		render:  new(MockRenderService),
		builder: new(MockBuilderService),
	}
	stubAuth := func(c *gin.Context) {
		c.Set(auth.ContextKeyUser, user)
		c.Next()
	}
	rest.RegisterRoutes(ts.router.Group("/api"), rest.Handlers{
		Widgets: rest.NewWidgetHandler(builtin.NewRegistry(logger.Nop())),
		Pages:   rest.NewPageHandler(ts.pages),
		Render:  rest.NewRenderHandler(ts.render),
		Builder: rest.NewBuilderHandler(ts.builder),
	}, stubAuth, middleware.RequirePageAdmin())
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

var admin = auth.UserSession{ID: "admin-1", Name: "Admin", Admin: true}

func TestWidgetHandler(t *testing.T) {
	ts := newTestServer(admin)

	t.Run("List", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/api/cms/widgets", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["widgets"], 7)
	})

	t.Run("ListByCategory", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/api/cms/widgets?category=leagues", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["widgets"], 1)
	})

	t.Run("Categories", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/api/cms/widgets/categories", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []interface{}{"analytics", "leagues", "matches", "users"}, decode(t, w)["categories"])
	})

	t.Run("Schema", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/api/cms/widgets/league-table/schema", "")
		assert.Equal(t, http.StatusOK, w.Code)
		props := decode(t, w)["props"].(map[string]interface{})
		assert.Contains(t, props, "leagueId")
	})

	t.Run("Unknown", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/api/cms/widgets/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decode(t, w)["code"])
	})
}

func TestPageHandler_CreatePage(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ts := newTestServer(admin)
		in := services.CreatePageInput{Slug: "home", Title: "Home"}
		ts.pages.On("CreatePage", mock.Anything, in, mock.MatchedBy(func(actor *string) bool {
			return actor != nil && *actor == "admin-1"
		})).Return(&models.Page{ID: "p1", Slug: "home", Title: "Home"}, nil)

		w := ts.do(http.MethodPost, "/api/cms/pages", `{"slug":"home","title":"Home"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "p1", decode(t, w)["page"].(map[string]interface{})["id"])
		ts.pages.AssertExpectations(t)
	})

	t.Run("DuplicateSlug", func(t *testing.T) {
		ts := newTestServer(admin)
		ts.pages.On("CreatePage", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, appErrors.NewConflictError("page", "slug", "home"))

		w := ts.do(http.MethodPost, "/api/cms/pages", `{"slug":"home","title":"Home"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CONFLICT", decode(t, w)["code"])
	})

	t.Run("RequiresAdmin", func(t *testing.T) {
		ts := newTestServer(auth.UserSession{ID: "viewer"})

		w := ts.do(http.MethodPost, "/api/cms/pages", `{"slug":"home","title":"Home"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		ts.pages.AssertNotCalled(t, "CreatePage", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPageHandler_GetPageBySlug(t *testing.T) {
	ts := newTestServer(admin)
	ts.pages.On("GetPageBySlug", mock.Anything, "home").Return(&models.Page{ID: "p1", Slug: "home"}, nil)
	ts.pages.On("GetPageBySlug", mock.Anything, "nope").Return(nil, nil)

	w := ts.do(http.MethodGet, "/api/cms/pages/slug/home", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/api/cms/pages/slug/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPageHandler_ListPages(t *testing.T) {
	ts := newTestServer(auth.UserSession{ID: "viewer"})
	ts.pages.On("GetAllPages", mock.Anything).Return([]*models.Page{})

	w := ts.do(http.MethodGet, "/api/cms/pages", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w)["pages"])
}

func TestPageHandler_SaveLayout(t *testing.T) {
	t.Run("LayoutBytesPassedThrough", func(t *testing.T) {
		ts := newTestServer(admin)
		layout := "{ \"instances\" : {} ,\n \"layout\": [] }"
		ts.pages.On("SavePageLayout", mock.Anything, "p1", json.RawMessage(layout), (*models.ThemeOverrides)(nil), mock.Anything).Return(nil)

		w := ts.do(http.MethodPut, "/api/cms/pages/p1/layout", `{"layout_json": `+layout+`}`)
		assert.Equal(t, http.StatusOK, w.Code)
		ts.pages.AssertExpectations(t)
	})

	t.Run("WithTheme", func(t *testing.T) {
		ts := newTestServer(admin)
		ts.pages.On("SavePageLayout", mock.Anything, "p1", mock.Anything, mock.MatchedBy(func(o *models.ThemeOverrides) bool {
			return o != nil && o.Mode() == "dark"
		}), mock.Anything).Return(nil)

		w := ts.do(http.MethodPut, "/api/cms/pages/p1/layout", `{"layout_json": {}, "theme_overrides": {"themeMode": "dark"}}`)
		assert.Equal(t, http.StatusOK, w.Code)
		ts.pages.AssertExpectations(t)
	})

	t.Run("MissingLayout", func(t *testing.T) {
		ts := newTestServer(admin)

		w := ts.do(http.MethodPut, "/api/cms/pages/p1/layout", `{"theme_overrides": {}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPageHandler_GetLayout(t *testing.T) {
	ts := newTestServer(admin)
	ts.pages.On("LoadPageLayout", mock.Anything, "p1").Return(&models.PageLayoutResult{
		Layout:         json.RawMessage(`{}`),
		Page:           &models.Page{ID: "p1"},
		ThemeOverrides: models.ThemeOverrides{},
	}, nil)
	ts.pages.On("LoadPageLayout", mock.Anything, "nope").Return(nil, nil)

	w := ts.do(http.MethodGet, "/api/cms/pages/p1/layout", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{}, decode(t, w)["layout_json"])

	w = ts.do(http.MethodGet, "/api/cms/pages/nope/layout", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPageHandler_Theme(t *testing.T) {
	t.Run("ReplaceValidationError", func(t *testing.T) {
		ts := newTestServer(admin)
		ts.pages.On("UpdatePageThemeOverrides", mock.Anything, "p1", models.ThemeOverrides{"themeMode": "sepia"}, mock.Anything).
			Return(nil, appErrors.NewValidationError("theme_overrides", "themeMode: must be one of light, dark"))

		w := ts.do(http.MethodPut, "/api/cms/pages/p1/theme", `{"themeMode":"sepia"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])
	})

	t.Run("MergeConflict", func(t *testing.T) {
		ts := newTestServer(admin)
		ts.pages.On("MergePageThemeOverrides", mock.Anything, "p1", mock.Anything, mock.Anything).
			Return(nil, appErrors.NewConflictError("page theme overrides", "overrides_version", ""))

		w := ts.do(http.MethodPatch, "/api/cms/pages/p1/theme", `{"themeVariant":"ocean"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("MergeSuccess", func(t *testing.T) {
		ts := newTestServer(admin)
		ts.pages.On("MergePageThemeOverrides", mock.Anything, "p1", models.ThemeOverrides{"themeVariant": "ocean"}, mock.Anything).
			Return(models.ThemeOverrides{"themeMode": "dark", "themeVariant": "ocean"}, nil)

		w := ts.do(http.MethodPatch, "/api/cms/pages/p1/theme", `{"themeVariant":"ocean"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		theme := decode(t, w)["theme_overrides"].(map[string]interface{})
		assert.Equal(t, "dark", theme["themeMode"])
	})
}

func TestPageHandler_ThemeAudit(t *testing.T) {
	ts := newTestServer(admin)
	ts.pages.On("GetPageThemeOverrideAuditLog", mock.Anything, "p1", services.DefaultAuditLimit).Return([]*models.AuditEntry{}, nil)
	ts.pages.On("GetPageThemeOverrideAuditLog", mock.Anything, "p1", 5).Return([]*models.AuditEntry{{ID: "a1"}}, nil)

	w := ts.do(http.MethodGet, "/api/cms/pages/p1/theme/audit", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/api/cms/pages/p1/theme/audit?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["entries"], 1)

	w = ts.do(http.MethodGet, "/api/cms/pages/p1/theme/audit?limit=lots", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	ts.pages.AssertExpectations(t)
}

func TestRenderHandler(t *testing.T) {
	ts := newTestServer(auth.UserSession{ID: "viewer"})
	ts.render.On("RenderPage", mock.Anything, "p1", true).Return(&services.PageView{Source: services.SourceCMS}, nil)
	ts.render.On("RenderPage", mock.Anything, "p2", false).Return(&services.PageView{Source: services.SourceFailed, Retry: true}, nil)
	ts.render.On("RenderLayout", mock.Anything, "nope").Return(nil, appErrors.NewNotFoundError("layout", "nope"))

	w := ts.do(http.MethodGet, "/api/cms/pages/p1/render?preview=1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cms", decode(t, w)["source"])

	w = ts.do(http.MethodGet, "/api/cms/pages/p2/render", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["retry"])

	w = ts.do(http.MethodGet, "/api/cms/layouts/nope/render", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	ts.render.AssertExpectations(t)
}

func TestBuilderHandler(t *testing.T) {
	t.Run("EditPropByPath", func(t *testing.T) {
		ts := newTestServer(admin)
		ts.builder.On("SetProp", "p1", "c1", "chart.type", "bar").
			Return(models.WidgetInstance{Type: "prediction-accuracy", Props: map[string]interface{}{"chart": map[string]interface{}{"type": "bar"}}}, nil)

		w := ts.do(http.MethodPatch, "/api/cms/builder/p1/instances/c1/props", `{"path":"chart.type","value":"bar"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		ts.builder.AssertExpectations(t)
	})

	t.Run("EditVariant", func(t *testing.T) {
		ts := newTestServer(admin)
		ts.builder.On("SetVariant", "p1", "c1", "compact").Return(models.WidgetInstance{Variant: "compact"}, nil)

		w := ts.do(http.MethodPatch, "/api/cms/builder/p1/instances/c1/props", `{"variant":"compact"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		ts.builder.AssertExpectations(t)
	})

	t.Run("EditRejectsUnknownFields", func(t *testing.T) {
		ts := newTestServer(admin)

		w := ts.do(http.MethodPatch, "/api/cms/builder/p1/instances/c1/props", `{"pathh":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("RawNotApplied", func(t *testing.T) {
		ts := newTestServer(admin)
		ts.builder.On("ApplyRaw", "p1", "c1", `{"title":`).
			Return(models.WidgetInstance{Props: map[string]interface{}{"title": "Old"}}, false, nil)

		w := ts.do(http.MethodPut, "/api/cms/builder/p1/instances/c1/raw", `{"raw":"{\"title\":"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["applied"])
	})

	t.Run("SaveWithoutSession", func(t *testing.T) {
		ts := newTestServer(admin)
		ts.builder.On("Save", mock.Anything, "p1", mock.Anything).Return(appErrors.NewNotFoundError("builder session", "p1"))

		w := ts.do(http.MethodPost, "/api/cms/builder/p1/save", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("RequiresAdmin", func(t *testing.T) {
		ts := newTestServer(auth.UserSession{ID: "viewer"})

		w := ts.do(http.MethodPost, "/api/cms/builder/p1/open", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
