package handler

import (
	"net/http"
	"strconv"

	"github.com/aprilhs/copyforge/internal/service"
	"github.com/gin-gonic/gin"
)

// ExampleHandler handles reference-library endpoints.
type ExampleHandler struct {
	library *service.LibraryService
}

// NewExampleHandler creates a new example handler.
// Parameters:
//   - library: library service instance.
// Returns:
//   - *ExampleHandler: initialized handler.
func NewExampleHandler(library *service.LibraryService) *ExampleHandler {
	return &ExampleHandler{
		library: library,
	}
}

// ListExamples handles GET /api/v1/examples.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ExampleHandler) ListExamples(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	industry := c.Query("industry")

	examples, err := h.library.List(c.Request.Context(), industry, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list examples: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"examples": examples,
		"total":    len(examples),
	})
}

// GetExample handles GET /api/v1/examples/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ExampleHandler) GetExample(c *gin.Context) {
	example, err := h.library.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Example not found",
		})
		return
	}

	c.JSON(http.StatusOK, example)
}

// GetStats handles GET /api/v1/stats.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ExampleHandler) GetStats(c *gin.Context) {
	stats, err := h.library.GetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get stats: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
