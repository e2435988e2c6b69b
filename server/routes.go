package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all catalog routes with the engine.
//
// API endpoints:
//
//	GET    /api/lookup?code=  - Resolve a StilBAR code
//	GET    /api/compounds     - List the catalog
//	POST   /api/compounds     - Add a compound
//	DELETE /api/compounds     - Delete compounds by identity
//	POST   /api/batch         - Resolve a batch of codes
//
// Pages:
//
//	GET  /                 - Converter page
//	GET  /compounds        - Catalog table with add/delete forms
//	POST /compounds/add    - Add form target
//	POST /compounds/delete - Delete form target
//	GET  /about            - Notation reference
//
// Operational:
//
//	GET /healthz - Health check
//	GET /metrics - Prometheus metrics
func RegisterRoutes(engine *gin.Engine, handlers *Handlers, gatherer prometheus.Gatherer) {
	api := engine.Group("/api")
	{
		api.GET("/lookup", handlers.HandleLookup)
		api.GET("/compounds", handlers.HandleListCompounds)
		api.POST("/compounds", handlers.HandleAddCompound)
		api.DELETE("/compounds", handlers.HandleDeleteCompounds)
		api.POST("/batch", handlers.HandleBatch)
	}

	engine.GET("/", handlers.PageConverter)
	engine.GET("/compounds", handlers.PageCompounds)
	engine.POST("/compounds/add", handlers.PageAddCompound)
	engine.POST("/compounds/delete", handlers.PageDeleteCompounds)
	engine.GET("/about", handlers.PageAbout)

	engine.GET("/healthz", handlers.HandleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
