package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matchdesk/cms/pkg/auth"
	"github.com/matchdesk/cms/pkg/logger"
	"github.com/matchdesk/cms/pkg/versioning"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/p", append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })...)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	auth.SetSecret("middleware-secret")
	token, err := auth.GenerateToken(auth.UserSession{ID: "u1"})
	require.NoError(t, err)

	r := newRouter(RequireAuth())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer garbage").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "Bearer "+token).Code)
}

func TestRequirePageAdmin(t *testing.T) {
	auth.SetSecret("middleware-secret")
	editor, err := auth.GenerateToken(auth.UserSession{ID: "u1"})
	require.NoError(t, err)
	admin, err := auth.GenerateToken(auth.UserSession{ID: "u2", Admin: true})
	require.NoError(t, err)

	r := newRouter(RequireAuth(), RequirePageAdmin())

	assert.Equal(t, http.StatusForbidden, do(r, "Bearer "+editor).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "Bearer "+admin).Code)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://admin.example.com"}))
	r.OPTIONS("/api/cms/pages", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodOptions, "/api/cms/pages", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext(), RequestLogger(logger.FromZap(zap.New(core))))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestAttachTraceContextEchoesRequestID(t *testing.T) {
	r := newRouter(AttachTraceContext())
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
}

func TestAPIVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen versioning.APIVersion
	r := gin.New()
	r.GET("/p", APIVersion(), func(c *gin.Context) {
		seen = versioning.FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	send := func(version string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		if version != "" {
			req.Header.Set(versioning.Header, version)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := send("")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "v1.0", rec.Header().Get(versioning.Header))
	assert.Equal(t, versioning.Current, seen)

	rec = send("v1.4")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, versioning.APIVersion{Major: 1, Minor: 4}, seen)

	rec = send("v2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNSUPPORTED_API_VERSION")
}
