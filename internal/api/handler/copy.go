package handler

import (
	"net/http"
	"strings"

	"github.com/aprilhs/copyforge/internal/domain"
	"github.com/aprilhs/copyforge/internal/service"
	"github.com/gin-gonic/gin"
)

// CopyHandler handles copy-generation endpoints.
type CopyHandler struct {
	copyService *service.CopyService
}

// NewCopyHandler creates a new copy handler.
// Parameters:
//   - copyService: copy pipeline service instance.
// Returns:
//   - *CopyHandler: initialized handler.
func NewCopyHandler(copyService *service.CopyService) *CopyHandler {
	return &CopyHandler{
		copyService: copyService,
	}
}

// GenerateCopy handles POST /api/v1/copy.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CopyHandler) GenerateCopy(c *gin.Context) {
	var req domain.CoreMessaging
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if err := validateRequest(&req); err != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	result := h.copyService.GenerateCopy(c.Request.Context(), &req)
	c.JSON(http.StatusOK, result)
}

// validateRequest checks the fields the pipeline cannot sanity-check
// itself. Sampling parameters must lie in [0,1] before they reach the
// cache key and the generation service.
func validateRequest(req *domain.CoreMessaging) string {
	if strings.TrimSpace(req.PrimaryAnchor.Content) == "" {
		return "primaryAnchor.content is required"
	}
	switch req.PrimaryAnchor.Type {
	case domain.AnchorProductCategory, domain.AnchorUseCase, domain.AnchorCompetitiveAlternative:
	default:
		return "primaryAnchor.type must be one of product_category, use_case, competitive_alternative"
	}
	if t := req.Settings.Temperature; t < 0 || t > 1 {
		return "generationSettings.temperature must be between 0 and 1"
	}
	if p := req.Settings.TopP; p < 0 || p > 1 {
		return "generationSettings.top_p must be between 0 and 1"
	}
	return ""
}
