package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/matchdesk/cms/pkg/errors"
	"github.com/matchdesk/cms/pkg/models"
	"github.com/matchdesk/cms/pkg/propsedit"
)

// BuilderService defines the interface for builder sessions
type BuilderService interface {
	Open(ctx context.Context, pageID string) (*models.LayoutDocument, error)
	Document(pageID string) (*models.LayoutDocument, error)
	Form(pageID, cellID string) (propsedit.Form, error)
	SetProp(pageID, cellID, path string, value interface{}) (models.WidgetInstance, error)
	SetVariant(pageID, cellID, slug string) (models.WidgetInstance, error)
	ApplyRaw(pageID, cellID, text string) (models.WidgetInstance, bool, error)
	Save(ctx context.Context, pageID string, actor *string) error
	Close(pageID string)
}

// BuilderHandler handles page builder session endpoints
type BuilderHandler struct {
	svc BuilderService
}

// NewBuilderHandler creates a new BuilderHandler
func NewBuilderHandler(svc BuilderService) *BuilderHandler {
	return &BuilderHandler{svc: svc}
}

// ============================================================================
// Request Types
// ============================================================================

// PropEditRequest sets one prop by dotted path, or selects a style variant.
type PropEditRequest struct {
	Path    string      `json:"path"`
	Value   interface{} `json:"value"`
	Variant *string     `json:"variant"`
}

// RawPropsRequest replaces an instance's props with the JSON object in Raw.
type RawPropsRequest struct {
	Raw string `json:"raw"`
}

// ============================================================================
// Sessions
// ============================================================================

// Open handles POST /api/cms/builder/:pageId/open
func (h *BuilderHandler) Open(c *gin.Context) {
	HandleGetEnvelope(c, "document", func() (interface{}, error) {
		return h.svc.Open(c.Request.Context(), c.Param("pageId"))
	})
}

// Document handles GET /api/cms/builder/:pageId/document
func (h *BuilderHandler) Document(c *gin.Context) {
	HandleGetEnvelope(c, "document", func() (interface{}, error) {
		return h.svc.Document(c.Param("pageId"))
	})
}

// Close handles DELETE /api/cms/builder/:pageId
func (h *BuilderHandler) Close(c *gin.Context) {
	HandleDeleteEnvelope(c, "Builder session closed", func() error {
		h.svc.Close(c.Param("pageId"))
		return nil
	})
}

// Save handles POST /api/cms/builder/:pageId/save
func (h *BuilderHandler) Save(c *gin.Context) {
	if err := h.svc.Save(c.Request.Context(), c.Param("pageId"), actorFromContext(c)); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{fieldMessage: "Layout saved"})
}

// ============================================================================
// Instances
// ============================================================================

// Form handles GET /api/cms/builder/:pageId/instances/:cellId/form
func (h *BuilderHandler) Form(c *gin.Context) {
	HandleGetEnvelope(c, "form", func() (interface{}, error) {
		return h.svc.Form(c.Param("pageId"), c.Param("cellId"))
	})
}

// EditProps handles PATCH /api/cms/builder/:pageId/instances/:cellId/props
func (h *BuilderHandler) EditProps(c *gin.Context) {
	var req PropEditRequest
	if !BindJSONStrict(c, &req) {
		return
	}
	pageID, cellID := c.Param("pageId"), c.Param("cellId")

	var (
		inst models.WidgetInstance
		err  error
	)
	switch {
	case req.Variant != nil:
		inst, err = h.svc.SetVariant(pageID, cellID, *req.Variant)
	case req.Path != "":
		inst, err = h.svc.SetProp(pageID, cellID, req.Path, req.Value)
	default:
		err = appErrors.NewValidationError("path", "either path or variant is required")
	}
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instance": inst})
}

// ApplyRaw handles PUT /api/cms/builder/:pageId/instances/:cellId/raw. Text that is not a
// JSON object is not an error: the props are left as they were and applied is false.
func (h *BuilderHandler) ApplyRaw(c *gin.Context) {
	var req RawPropsRequest
	if !BindJSON(c, &req) {
		return
	}
	inst, applied, err := h.svc.ApplyRaw(c.Param("pageId"), c.Param("cellId"), req.Raw)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instance": inst, "applied": applied})
}
