package adapt

import (
	"net/http"
	"strconv"

	"cuisine-adapter/internal/api/handlers"
	"cuisine-adapter/internal/core/adaptation"
	"cuisine-adapter/internal/core/transfer"

	"github.com/gin-gonic/gin"
)

// Handler 改編與預覽處理器
type Handler struct {
	adaptation *adaptation.Service
	transfer   *transfer.Service
}

// NewHandler 創建改編處理器
func NewHandler(adaptationSvc *adaptation.Service, transferSvc *transfer.Service) *Handler {
	return &Handler{adaptation: adaptationSvc, transfer: transferSvc}
}

// clampIntensity 強度夾到 [0,1]，HTTP 層統一做
func clampIntensity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Adapt POST /api/v1/adapt
func (h *Handler) Adapt(c *gin.Context) {
	var req adaptation.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err.Error())
		return
	}
	if req.Intensity == 0 {
		req.Intensity = 0.5
	}
	req.Intensity = clampIntensity(req.Intensity)

	result, err := h.adaptation.AdaptRecipe(c.Request.Context(), req)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// History GET /api/v1/adaptations?recipe_id=
func (h *Handler) History(c *gin.Context) {
	recipeID, err := strconv.ParseInt(c.Query("recipe_id"), 10, 64)
	if err != nil {
		handlers.BadRequest(c, "recipe_id query parameter must be an integer")
		return
	}

	records, err := h.adaptation.History(c.Request.Context(), recipeID)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recipe_id":   recipeID,
		"adaptations": records,
		"count":       len(records),
	})
}

// PreviewCompatibility GET /api/v1/preview/compatibility?source=&target=
func (h *Handler) PreviewCompatibility(c *gin.Context) {
	source := c.Query("source")
	target := c.Query("target")
	if source == "" || target == "" {
		handlers.BadRequest(c, "source and target query parameters are required")
		return
	}

	preview, err := h.adaptation.PreviewCompatibility(c.Request.Context(), source, target)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// PreviewImpact GET /api/v1/preview/adaptation-impact?source=&target=&intensity=
func (h *Handler) PreviewImpact(c *gin.Context) {
	source := c.Query("source")
	target := c.Query("target")
	if source == "" || target == "" {
		handlers.BadRequest(c, "source and target query parameters are required")
		return
	}

	intensity := 0.5
	if raw := c.Query("intensity"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			handlers.BadRequest(c, "intensity must be a number")
			return
		}
		intensity = clampIntensity(v)
	}

	preview, err := h.adaptation.PreviewImpact(c.Request.Context(), source, target, intensity)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Transferability GET /api/v1/transferability
func (h *Handler) Transferability(c *gin.Context) {
	matrix, err := h.transfer.Transferability(c.Request.Context())
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, matrix)
}
