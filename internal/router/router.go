package router

import (
	"github.com/gin-gonic/gin"

	"docintake/internal/handler"
	"docintake/internal/middleware"
)

// Handlers bundles the HTTP handlers mounted by Setup.
type Handlers struct {
	Analysis *handler.AnalysisHandler
	Upload   *handler.UploadHandler
	Document *handler.DocumentHandler
	Field    *handler.FieldHandler
	Health   *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(h Handlers, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")

	// Stateless pipeline
	v1.GET("/types", h.Analysis.Types)
	v1.POST("/classify", h.Analysis.Classify)
	v1.POST("/extract", h.Analysis.Extract)
	v1.POST("/analyze", h.Analysis.Analyze)
	v1.POST("/deduplicate", h.Analysis.Deduplicate)
	v1.POST("/card-details", h.Analysis.CardDetails)

	// Ingestion
	upload := v1.Group("/upload")
	upload.POST("/image", h.Upload.Images)
	upload.POST("/audio", h.Upload.Audio)

	// Stored documents
	docs := v1.Group("/documents")
	docs.GET("", h.Document.List)
	docs.GET("/:id", h.Document.GetByID)
	docs.DELETE("/:id", h.Document.Delete)
	docs.POST("/:id/reanalyze", h.Document.Reanalyze)
	docs.GET("/:id/export", h.Document.Export)

	// Field edits
	docs.POST("/:id/fields", h.Field.Add)
	docs.PUT("/:id/fields/:fieldId", h.Field.Edit)
	docs.POST("/:id/fields/:fieldId/reset", h.Field.Reset)
	docs.DELETE("/:id/fields/:fieldId", h.Field.Delete)

	return r
}
