package http

import (
	"github.com/gin-gonic/gin"
	"github.com/platelens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Model-backed endpoints
		v1.POST("/analyze", handler.AnalyzeImage)
		v1.GET("/cultural_info/:food_name", handler.CulturalInfo)

		// Meal log
		v1.POST("/save_meal", handler.SaveMeal)
		v1.GET("/meal_history", handler.MealHistory)

		// Pure transformations
		v1.POST("/report", handler.NutritionReport)
		v1.POST("/health_score", handler.HealthScore)
	}

	return router
}
