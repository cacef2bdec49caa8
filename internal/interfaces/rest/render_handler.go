package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchdesk/cms/internal/application/services"
	"github.com/matchdesk/cms/pkg/utils"
)

// RenderService defines the interface for page rendering
type RenderService interface {
	RenderPage(ctx context.Context, pageID string, preview bool) (*services.PageView, error)
	RenderLayout(ctx context.Context, layoutID string) (*services.PageView, error)
}

// RenderHandler serves rendered pages and static layouts
type RenderHandler struct {
	svc RenderService
}

// NewRenderHandler creates a new RenderHandler
func NewRenderHandler(svc RenderService) *RenderHandler {
	return &RenderHandler{svc: svc}
}

// RenderPage handles GET /api/cms/pages/:id/render[?preview=1]. A page that cannot be
// rendered still answers 200 with a failed panel.
func (h *RenderHandler) RenderPage(c *gin.Context) {
	view, err := h.svc.RenderPage(c.Request.Context(), c.Param("id"), utils.ToBool(c.Query("preview")))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RenderLayout handles GET /api/cms/layouts/:layoutId/render
func (h *RenderHandler) RenderLayout(c *gin.Context) {
	view, err := h.svc.RenderLayout(c.Request.Context(), c.Param("layoutId"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
