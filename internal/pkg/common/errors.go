package common

import (
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Detail  string // 哪個菜系/食譜、哪個階段
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As 鏈
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 讓帶上下文的副本仍可與預定義錯誤值比對
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// WithDetail 回傳帶上下文的副本（預定義錯誤值本身不可變）
func (e *CustomError) WithDetail(detail string) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: e.Message,
		Detail:  detail,
		Status:  e.Status,
		Err:     e,
	}
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeConflict        = "CONFLICT"          // 409
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// 領域錯誤代碼
	ErrCodeCuisineNotFound  = "CUISINE_NOT_FOUND"  // 菜系不存在
	ErrCodeRecipeNotFound   = "RECIPE_NOT_FOUND"   // 食譜不存在
	ErrCodeNoRecipes        = "NO_RECIPES"         // 菜系存在但沒有食譜/食材
	ErrCodeEmptyRecipe      = "EMPTY_RECIPE"       // 食譜存在但沒有食材
	ErrCodeMissingEmbedding = "MISSING_EMBEDDING"  // 菜系尚未計算 identity
	ErrCodeModelNotTrained  = "MODEL_NOT_TRAINED"  // 輔助模型尚未訓練
	ErrCodeNotEnoughData    = "NOT_ENOUGH_DATA"    // 資料量不足以訓練
	ErrCodeIngestionFailed  = "INGESTION_FAILED"   // 上傳資料整批失敗
	ErrCodeExternalKeyUnset = "EXTERNAL_KEY_UNSET" // 外部代理金鑰未設定
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrConflict        = NewError(ErrCodeConflict, "資源衝突", http.StatusConflict, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)

	// 領域錯誤：NotFound 與 EmptyInput 必須區分 —
	// 前者是查無此物，後者是「存在但沒有可計算的內容」
	ErrCuisineNotFound  = NewError(ErrCodeCuisineNotFound, "菜系不存在", http.StatusNotFound, nil)
	ErrRecipeNotFound   = NewError(ErrCodeRecipeNotFound, "食譜不存在", http.StatusNotFound, nil)
	ErrNoRecipes        = NewError(ErrCodeNoRecipes, "菜系沒有任何食譜或食材", http.StatusBadRequest, nil)
	ErrEmptyRecipe      = NewError(ErrCodeEmptyRecipe, "食譜沒有任何食材", http.StatusBadRequest, nil)
	ErrMissingEmbedding = NewError(ErrCodeMissingEmbedding, "菜系尚未計算 identity", http.StatusConflict, nil)
	ErrModelNotTrained  = NewError(ErrCodeModelNotTrained, "嵌入模型尚未訓練", http.StatusConflict, nil)
	ErrNotEnoughData    = NewError(ErrCodeNotEnoughData, "資料量不足", http.StatusBadRequest, nil)
	ErrExternalKeyUnset = NewError(ErrCodeExternalKeyUnset, "外部 API 金鑰未設定", http.StatusBadRequest, nil)

	// 快取錯誤
	ErrCacheDisabled = NewError("CACHE_DISABLED", "緩存已禁用", http.StatusServiceUnavailable, nil)
)
