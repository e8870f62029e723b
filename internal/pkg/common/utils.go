package common

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// NormalizeName 正規化名稱：去空白、轉小寫、底線換空格。
// 食材、菜系、分子名稱在進庫與查詢時都必須走這條路，identity 即名稱。
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", " ")
}

// MaskKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// Round4 四捨五入到小數第 4 位，儲存與回傳的分數一律先過這裡
func Round4(v float64) float64 {
	if v >= 0 {
		return float64(int64(v*10000+0.5)) / 10000
	}
	return float64(int64(v*10000-0.5)) / 10000
}

// Round3 四捨五入到小數第 3 位，替換信心值用
func Round3(v float64) float64 {
	if v >= 0 {
		return float64(int64(v*1000+0.5)) / 1000
	}
	return float64(int64(v*1000-0.5)) / 1000
}

// RoundMap4 對整個 mapping 做 Round4
func RoundMap4(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = Round4(v)
	}
	return out
}
