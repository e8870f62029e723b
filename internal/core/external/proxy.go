package external

import (
	"context"
	"strings"
	"sync"
	"time"

	"cuisine-adapter/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ForwardResult 外部 API 的原始回應
type ForwardResult struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Service 外部風味資料庫的認證轉發代理。
// API 金鑰只存在記憶體（本地開發用途），重啟後需重新設定。
type Service struct {
	client *resty.Client

	mu     sync.RWMutex
	apiKey string
}

// NewService 創建外部代理服務
func NewService(timeout time.Duration) *Service {
	client := resty.New().
		SetTimeout(timeout)

	return &Service{client: client}
}

// SetKey 設定金鑰並回傳遮罩後的值
func (s *Service) SetKey(key string) string {
	s.mu.Lock()
	s.apiKey = key
	s.mu.Unlock()

	masked := common.MaskKey(key)
	common.LogInfo("外部 API 金鑰已更新", zap.String("masked_key", masked))
	return masked
}

// MaskedKey 回傳遮罩後的金鑰，未設定時回傳錯誤
func (s *Service) MaskedKey() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.apiKey == "" {
		return "", common.ErrExternalKeyUnset
	}
	return common.MaskKey(s.apiKey), nil
}

// Forward 把請求轉發到 base + path，帶上 Bearer 金鑰。
// query 不應包含 base 參數本身；非 2xx 回應原樣透傳給呼叫端。
func (s *Service) Forward(ctx context.Context, method, base, path string, query map[string]string, body []byte) (*ForwardResult, error) {
	s.mu.RLock()
	key := s.apiKey
	s.mu.RUnlock()

	if key == "" {
		return nil, common.ErrExternalKeyUnset.WithDetail("POST to /external/set-key first")
	}
	if base == "" {
		return nil, common.ErrInvalidRequest.WithDetail("missing `base` query parameter with target base URL")
	}

	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	targetURL := base + path

	req := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+key).
		SetQueryParams(query)
	if len(body) > 0 {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, targetURL)
	if err != nil {
		common.LogError("外部請求失敗", zap.String("url", targetURL), zap.Error(err))
		return nil, common.NewError(common.ErrCodeGatewayTimeout, "外部服務無回應", 502, err)
	}

	common.LogDebug("外部請求完成",
		zap.String("method", method),
		zap.String("url", targetURL),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &ForwardResult{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}
