package upload

import (
	"io"
	"net/http"
	"strings"

	"cuisine-adapter/internal/api/handlers"
	"cuisine-adapter/internal/core/ingest"

	"github.com/gin-gonic/gin"
)

// Handler 資料上傳處理器
type Handler struct {
	ingest *ingest.Service
}

// NewHandler 創建上傳處理器
func NewHandler(ingestSvc *ingest.Service) *Handler {
	return &Handler{ingest: ingestSvc}
}

// Recipes POST /api/v1/upload/recipes
// multipart form，欄位名 file。副檔名 .json 走 JSON 路徑，其餘當 CSV。
func (h *Handler) Recipes(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		handlers.BadRequest(c, "multipart field `file` is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		handlers.BadRequest(c, "cannot open uploaded file: "+err.Error())
		return
	}
	defer f.Close()

	var summary *ingest.Summary
	if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".json") {
		data, err := io.ReadAll(f)
		if err != nil {
			handlers.BadRequest(c, "cannot read uploaded file: "+err.Error())
			return
		}
		summary, err = h.ingest.IngestRecipesJSON(c.Request.Context(), data, fileHeader.Filename)
		if err != nil {
			handlers.Error(c, err)
			return
		}
	} else {
		summary, err = h.ingest.IngestRecipesCSV(c.Request.Context(), f, fileHeader.Filename)
		if err != nil {
			handlers.Error(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, summary)
}

// Molecules POST /api/v1/upload/molecules
func (h *Handler) Molecules(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		handlers.BadRequest(c, "multipart field `file` is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		handlers.BadRequest(c, "cannot open uploaded file: "+err.Error())
		return
	}
	defer f.Close()

	summary, err := h.ingest.IngestMoleculesCSV(c.Request.Context(), f, fileHeader.Filename)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
