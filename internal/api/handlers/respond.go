package handlers

import (
	"errors"
	"net/http"

	"cuisine-adapter/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error 把領域錯誤轉成 HTTP 響應。
// CustomError 帶自己的狀態碼與代碼，其餘一律 500。
func Error(c *gin.Context, err error) {
	var custom *common.CustomError
	if errors.As(err, &custom) {
		c.JSON(custom.Status, common.ErrorResponse{
			Code:    custom.Code,
			Message: custom.Message,
			Details: custom.Detail,
		})
		return
	}

	common.LogError("未分類的內部錯誤",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "internal server error",
	})
}

// BadRequest 參數綁定失敗的快捷回應
func BadRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, common.ErrorResponse{
		Code:    common.ErrCodeInvalidRequest,
		Message: "invalid request",
		Details: detail,
	})
}
