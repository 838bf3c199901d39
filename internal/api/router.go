package api

import (
	"github.com/aprilhs/copyforge/internal/api/handler"
	"github.com/aprilhs/copyforge/internal/api/middleware"
	"github.com/aprilhs/copyforge/internal/service"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	copyService *service.CopyService,
	libraryService *service.LibraryService,
	mode string,
	cors middleware.CORSConfig,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cors))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	copyHandler := handler.NewCopyHandler(copyService)
	exampleHandler := handler.NewExampleHandler(libraryService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Copy generation
		v1.POST("/copy", copyHandler.GenerateCopy)

		// Reference library
		v1.GET("/examples", exampleHandler.ListExamples)
		v1.GET("/examples/:id", exampleHandler.GetExample)

		// Stats
		v1.GET("/stats", exampleHandler.GetStats)
	}

	return r
}
