package external

import (
	"io"
	"net/http"

	"cuisine-adapter/internal/api/handlers"
	"cuisine-adapter/internal/core/external"

	"github.com/gin-gonic/gin"
)

// Handler 外部代理處理器
type Handler struct {
	proxy *external.Service
}

// NewHandler 創建外部代理處理器
func NewHandler(proxySvc *external.Service) *Handler {
	return &Handler{proxy: proxySvc}
}

type setKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// Route ANY /api/v1/external/*path 的總入口。
// gin 的 catch-all 不能與同層靜態路由並存，set-key 與 key 在這裡分流。
func (h *Handler) Route(c *gin.Context) {
	switch c.Param("path") {
	case "/set-key":
		if c.Request.Method != http.MethodPost {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
			return
		}
		h.SetKey(c)
	case "/key":
		if c.Request.Method != http.MethodGet {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
			return
		}
		h.GetKey(c)
	default:
		h.Proxy(c)
	}
}

// SetKey POST /api/v1/external/set-key
func (h *Handler) SetKey(c *gin.Context) {
	var req setKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err.Error())
		return
	}

	masked := h.proxy.SetKey(req.APIKey)
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"masked_key": masked,
	})
}

// GetKey GET /api/v1/external/key
func (h *Handler) GetKey(c *gin.Context) {
	masked, err := h.proxy.MaskedKey()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not set"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"masked_key": masked})
}

// Proxy ANY /api/v1/external/*path?base=
// base 以外的查詢參數與請求體原樣轉發，回應透傳。
func (h *Handler) Proxy(c *gin.Context) {
	base := c.Query("base")

	query := make(map[string]string)
	for k, vals := range c.Request.URL.Query() {
		if k == "base" || len(vals) == 0 {
			continue
		}
		query[k] = vals[0]
	}

	var body []byte
	if c.Request.Body != nil {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			handlers.BadRequest(c, "cannot read request body: "+err.Error())
			return
		}
		body = data
	}

	result, err := h.proxy.Forward(
		c.Request.Context(),
		c.Request.Method,
		base,
		c.Param("path"),
		query,
		body,
	)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(result.StatusCode, contentType, result.Body)
}
