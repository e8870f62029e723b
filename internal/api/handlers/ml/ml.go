package ml

import (
	"net/http"

	"cuisine-adapter/internal/api/handlers"
	"cuisine-adapter/internal/core/trainer"
	"cuisine-adapter/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Handler 輔助嵌入模型處理器
type Handler struct {
	trainer           *trainer.Service
	defaultDimensions int
}

// NewHandler 創建模型處理器
func NewHandler(trainerSvc *trainer.Service, defaultDimensions int) *Handler {
	return &Handler{trainer: trainerSvc, defaultDimensions: defaultDimensions}
}

type trainRequest struct {
	Dimensions int `json:"dimensions"`
}

// Train POST /api/v1/ml/train
func (h *Handler) Train(c *gin.Context) {
	var req trainRequest
	// body 可省略，省略時用設定檔的維度
	_ = c.ShouldBindJSON(&req)
	if req.Dimensions <= 0 {
		req.Dimensions = h.defaultDimensions
	}

	result, err := h.trainer.Train(c.Request.Context(), req.Dimensions)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Status GET /api/v1/ml/status
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.trainer.Status())
}

// Embedding GET /api/v1/ml/embedding/:name
func (h *Handler) Embedding(c *gin.Context) {
	status := h.trainer.Status()
	if !status.ModelTrained {
		handlers.Error(c, common.ErrModelNotTrained)
		return
	}

	name := c.Param("name")
	vec := h.trainer.Embedding(name)
	if len(vec) == 0 {
		handlers.Error(c, common.ErrNotFound.WithDetail(common.NormalizeName(name)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ingredient": common.NormalizeName(name),
		"embedding":  vec,
		"dimensions": len(vec),
	})
}
