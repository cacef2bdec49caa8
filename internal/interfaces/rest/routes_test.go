package rest_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matchdesk/cms/internal/interfaces/middleware"
	"github.com/matchdesk/cms/internal/interfaces/rest"
	"github.com/matchdesk/cms/pkg/auth"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/widgets/builtin"
)

func TestRegisterRoutes_RequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth.SetSecret("routes-test-secret")

	pages := new(MockPageService)
	pages.On("GetAllPages", mock.Anything).Return([]*models.Page{{ID: "p1"}})

	router := gin.New()
	rest.RegisterRoutes(router.Group("/api"), rest.Handlers{
		Widgets: rest.NewWidgetHandler(builtin.NewRegistry(logger.Nop())),
		Pages:   rest.NewPageHandler(pages),
		Render:  rest.NewRenderHandler(new(MockRenderService)),
		Builder: rest.NewBuilderHandler(new(MockBuilderService)),
	}, middleware.RequireAuth(), middleware.RequirePageAdmin())

	req := httptest.NewRequest(http.MethodGet, "/api/cms/pages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := auth.GenerateToken(auth.UserSession{ID: "u1", Name: "Editor"})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/cms/pages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/cms/pages/p1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	pages.AssertNotCalled(t, "DeletePage", mock.Anything, mock.Anything)
}
