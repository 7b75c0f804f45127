package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter registers every route on a new gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	// Dates and ledger keys are opaque and may contain '/', sent as %2F.
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery(), requestLogger(h.logger), cors.Default())

	r.GET("/health", h.Health)

	foods := r.Group("/foods")
	foods.GET("", h.ListFoods)
	foods.POST("", h.CreateFood)
	foods.GET("/:name", h.GetFood)
	foods.PUT("/:name", h.RenameFood)
	foods.DELETE("/:name", h.DeleteFood)
	foods.POST("/:name/ingredients", h.AddIngredient)
	foods.PUT("/:name/ingredients/:id", h.EditIngredient)
	foods.DELETE("/:name/ingredients/:id", h.DeleteIngredient)

	r.GET("/coordinates", h.GetCoordinates)
	r.PUT("/coordinates", h.SetCoordinates)

	r.POST("/consumptions", h.RecordConsumption)
	r.GET("/entries", h.ListEntries)
	r.DELETE("/entries/:key", h.ClearEntry)
	r.DELETE("/entries/:key/usages/:food", h.DeleteUsage)

	r.GET("/shopping-lists/:date", h.GetShoppingList)
	r.POST("/shopping-lists/:date/export", h.ExportShoppingList)

	r.POST("/imports", h.ImportFood)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
