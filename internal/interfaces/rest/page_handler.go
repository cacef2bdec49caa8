package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchdesk/cms/internal/application/services"
	appErrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/utils"
)

// PageService defines the interface for page, layout and theme operations
type PageService interface {
	GetAllPages(ctx context.Context) []*models.Page
	CreatePage(ctx context.Context, in services.CreatePageInput, actor *string) (*models.Page, error)
	GetPageByID(ctx context.Context, id string) (*models.Page, error)
	GetPageBySlug(ctx context.Context, slug string) (*models.Page, error)
	DeletePage(ctx context.Context, id string) error
	LoadPageLayout(ctx context.Context, pageID string) (*models.PageLayoutResult, error)
	SavePageLayout(ctx context.Context, pageID string, body json.RawMessage, overrides *models.ThemeOverrides, actor *string) error
	UpdatePageThemeOverrides(ctx context.Context, pageID string, overrides models.ThemeOverrides, actor *string) (models.ThemeOverrides, error)
	MergePageThemeOverrides(ctx context.Context, pageID string, partial models.ThemeOverrides, actor *string) (models.ThemeOverrides, error)
	GetPageThemeOverrideAuditLog(ctx context.Context, pageID string, limit int) ([]*models.AuditEntry, error)
}

// PageHandler handles CMS page API endpoints
type PageHandler struct {
	svc PageService
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(svc PageService) *PageHandler {
	return &PageHandler{svc: svc}
}

// ============================================================================
// Request Types
// ============================================================================

// SaveLayoutRequest is the body of PUT /pages/:id/layout. The layout document is kept
// byte-for-byte; a missing or null theme_overrides leaves the page theme alone.
type SaveLayoutRequest struct {
	LayoutJSON     json.RawMessage        `json:"layout_json" binding:"required"`
	ThemeOverrides *models.ThemeOverrides `json:"theme_overrides"`
}

// ============================================================================
// Pages
// ============================================================================

// ListPages handles GET /api/cms/pages
func (h *PageHandler) ListPages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pages": h.svc.GetAllPages(c.Request.Context())})
}

// CreatePage handles POST /api/cms/pages
func (h *PageHandler) CreatePage(c *gin.Context) {
	var req services.CreatePageInput
	if !BindJSON(c, &req) {
		return
	}
	page, err := h.svc.CreatePage(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{fieldMessage: "Page created", "page": page})
}

// GetPage handles GET /api/cms/pages/:id
func (h *PageHandler) GetPage(c *gin.Context) {
	id := c.Param("id")
	HandleGetEnvelope(c, "page", func() (interface{}, error) {
		page, err := h.svc.GetPageByID(c.Request.Context(), id)
		if err == nil && page == nil {
			err = appErrors.NewNotFoundError("page", id)
		}
		return page, err
	})
}

// GetPageBySlug handles GET /api/cms/pages/slug/:slug
func (h *PageHandler) GetPageBySlug(c *gin.Context) {
	slug := c.Param("slug")
	HandleGetEnvelope(c, "page", func() (interface{}, error) {
		page, err := h.svc.GetPageBySlug(c.Request.Context(), slug)
		if err == nil && page == nil {
			err = appErrors.NewNotFoundError("page", slug)
		}
		return page, err
	})
}

// DeletePage handles DELETE /api/cms/pages/:id
func (h *PageHandler) DeletePage(c *gin.Context) {
	HandleDeleteEnvelope(c, "Page deleted", func() error {
		return h.svc.DeletePage(c.Request.Context(), c.Param("id"))
	})
}

// ============================================================================
// Layout
// ============================================================================

// GetLayout handles GET /api/cms/pages/:id/layout
func (h *PageHandler) GetLayout(c *gin.Context) {
	id := c.Param("id")
	res, err := h.svc.LoadPageLayout(c.Request.Context(), id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if res == nil {
		RespondAppError(c, appErrors.NewNotFoundError("page", id))
		return
	}
	c.JSON(http.StatusOK, res)
}

// SaveLayout handles PUT /api/cms/pages/:id/layout
func (h *PageHandler) SaveLayout(c *gin.Context) {
	var req SaveLayoutRequest
	if !BindJSON(c, &req) {
		return
	}
	if err := h.svc.SavePageLayout(c.Request.Context(), c.Param("id"), req.LayoutJSON, req.ThemeOverrides, actorFromContext(c)); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{fieldMessage: "Layout saved"})
}

// ============================================================================
// Theme overrides
// ============================================================================

// ReplaceTheme handles PUT /api/cms/pages/:id/theme
func (h *PageHandler) ReplaceTheme(c *gin.Context) {
	var doc models.ThemeOverrides
	if !BindJSON(c, &doc) {
		return
	}
	stored, err := h.svc.UpdatePageThemeOverrides(c.Request.Context(), c.Param("id"), doc, actorFromContext(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{fieldMessage: "Theme overrides saved", "theme_overrides": stored})
}

// MergeTheme handles PATCH /api/cms/pages/:id/theme
func (h *PageHandler) MergeTheme(c *gin.Context) {
	var partial models.ThemeOverrides
	if !BindJSON(c, &partial) {
		return
	}
	stored, err := h.svc.MergePageThemeOverrides(c.Request.Context(), c.Param("id"), partial, actorFromContext(c))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{fieldMessage: "Theme overrides merged", "theme_overrides": stored})
}

// GetThemeAudit handles GET /api/cms/pages/:id/theme/audit?limit=
func (h *PageHandler) GetThemeAudit(c *gin.Context) {
	limit := services.DefaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, ok := utils.ToInt(raw)
		if !ok || n < 1 {
			RespondAppError(c, appErrors.NewValidationError("limit", "must be a positive integer"))
			return
		}
		limit = n
	}
	HandleGetEnvelope(c, "entries", func() (interface{}, error) {
		return h.svc.GetPageThemeOverrideAuditLog(c.Request.Context(), c.Param("id"), limit)
	})
}
