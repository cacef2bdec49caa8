package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/widgets"
)

// WidgetHandler serves the widget catalog
type WidgetHandler struct {
	registry *widgets.Registry
}

// NewWidgetHandler creates a new WidgetHandler
func NewWidgetHandler(registry *widgets.Registry) *WidgetHandler {
	return &WidgetHandler{registry: registry}
}

// ListWidgets handles GET /api/cms/widgets[?category=]
func (h *WidgetHandler) ListWidgets(c *gin.Context) {
	defs := h.registry.All()
	if category := c.Query("category"); category != "" {
		defs = h.registry.ByCategory(category)
	}
	c.JSON(http.StatusOK, gin.H{"widgets": defs})
}

// ListCategories handles GET /api/cms/widgets/categories
func (h *WidgetHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.registry.Categories()})
}

// GetWidget handles GET /api/cms/widgets/:id
func (h *WidgetHandler) GetWidget(c *gin.Context) {
	id := c.Param("id")
	def, ok := h.registry.Get(id)
	if !ok {
		RespondAppError(c, appErrors.NewNotFoundError("widget", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"widget": def})
}

// GetWidgetSchema handles GET /api/cms/widgets/:id/schema
func (h *WidgetHandler) GetWidgetSchema(c *gin.Context) {
	id := c.Param("id")
	schema, ok := h.registry.PropSchema(id)
	if !ok {
		RespondAppError(c, appErrors.NewNotFoundError("widget", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "props": schema})
}
