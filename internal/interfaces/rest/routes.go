package rest

import "github.com/gin-gonic/gin"

// Handlers groups the CMS endpoint handlers.
type Handlers struct {
	Widgets *WidgetHandler
	Pages   *PageHandler
	Render  *RenderHandler
	Builder *BuilderHandler
}

// RegisterRoutes mounts the CMS API under api. Every route requires authentication;
// writes, the theme audit log and builder sessions also require requireAdmin.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, requireAuth, requireAdmin gin.HandlerFunc) {
	cms := api.Group("/cms")
	cms.Use(requireAuth)

	widgets := cms.Group("/widgets")
	{
		widgets.GET("", h.Widgets.ListWidgets)
		widgets.GET("/categories", h.Widgets.ListCategories)
		widgets.GET("/:id", h.Widgets.GetWidget)
		widgets.GET("/:id/schema", h.Widgets.GetWidgetSchema)
	}

	pages := cms.Group("/pages")
	{
		pages.GET("", h.Pages.ListPages)
		pages.POST("", requireAdmin, h.Pages.CreatePage)
		pages.GET("/slug/:slug", h.Pages.GetPageBySlug)
		pages.GET("/:id", h.Pages.GetPage)
		pages.DELETE("/:id", requireAdmin, h.Pages.DeletePage)

		pages.GET("/:id/layout", h.Pages.GetLayout)
		pages.PUT("/:id/layout", requireAdmin, h.Pages.SaveLayout)

		pages.PUT("/:id/theme", requireAdmin, h.Pages.ReplaceTheme)
		pages.PATCH("/:id/theme", requireAdmin, h.Pages.MergeTheme)
		pages.GET("/:id/theme/audit", requireAdmin, h.Pages.GetThemeAudit)

		pages.GET("/:id/render", h.Render.RenderPage)
	}

	cms.GET("/layouts/:layoutId/render", h.Render.RenderLayout)

	builder := cms.Group("/builder/:pageId")
	builder.Use(requireAdmin)
	{
		builder.POST("/open", h.Builder.Open)
		builder.GET("/document", h.Builder.Document)
		builder.DELETE("", h.Builder.Close)
		builder.POST("/save", h.Builder.Save)
		builder.GET("/instances/:cellId/form", h.Builder.Form)
		builder.PATCH("/instances/:cellId/props", h.Builder.EditProps)
		builder.PUT("/instances/:cellId/raw", h.Builder.ApplyRaw)
	}
}
