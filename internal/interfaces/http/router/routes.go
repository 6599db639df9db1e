package router

import (
	"github.com/gin-gonic/gin"

	"github.com/stockwave/harmony/internal/interfaces/http/handler"
)

// VariationRoutes maps the variation editing API. storeCalls guards the
// routes that reach the remote store (open, submit, image upload).
func VariationRoutes(h *handler.VariationHandler, storeCalls ...gin.HandlerFunc) *DomainGroup {
	guarded := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, storeCalls...), fn)
	}

	products := NewDomainGroup("variations", "")

	session := products.Group("session", "/products/:id/variation-session")
	session.POST("", guarded(h.OpenSession)...).
		GET("", h.GetSession).
		DELETE("", h.Discard).
		PUT("/attributes", h.UpdateAttributes).
		POST("/generate", h.Generate).
		POST("/bulk", h.BulkEdit).
		GET("/payload", h.Preview).
		POST("/submit", guarded(h.Submit)...)

	session.Group("variation", "/variations/:index").
		PATCH("", h.UpdateVariation).
		DELETE("", h.DeleteVariation).
		POST("/image", guarded(h.UploadImage)...)

	products.POST("/variations/generate", h.GenerateStateless)
	return products
}

// SystemRoutes maps ping and service info under the API prefix
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "").
		GET("/ping", h.Ping).
		GET("/system/info", h.GetSystemInfo)
}

// RegisterHealth maps the unversioned health probe
func RegisterHealth(engine *gin.Engine, h *handler.SystemHandler) {
	engine.GET("/health", h.Health)
}
