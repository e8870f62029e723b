package transfer

import (
	"context"
	"sync"
	"time"

	"cuisine-adapter/internal/core/identity"
	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"go.uber.org/zap"
)

// Matrix 菜系間的可轉移性矩陣，對角線為 1.0 且對稱
type Matrix struct {
	Cuisines []string    `json:"cuisines"`
	Matrix   [][]float64 `json:"matrix"`
}

// Service 可轉移性服務，內建行程層級快取。
// 單寫多讀，嵌入重算後由 Invalidate 清空。
type Service struct {
	store storage.Store

	mu     sync.RWMutex
	cached *Matrix
}

// NewService 創建新的可轉移性服務
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Invalidate 清空快取，下次查詢會重新計算
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
	common.LogDebug("可轉移性矩陣快取已失效")
}

// Cached 回傳快取的矩陣，未計算過回傳 nil
func (s *Service) Cached() *Matrix {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached
}

// Transferability 回傳快取的矩陣，無快取時計算並填入。
func (s *Service) Transferability(ctx context.Context) (*Matrix, error) {
	if m := s.Cached(); m != nil {
		common.LogCacheHit("memory", "transferability")
		return m, nil
	}
	common.LogCacheMiss("memory", "transferability")
	return s.Compute(ctx)
}

// Compute 計算所有已有嵌入的菜系之間的兩兩餘弦相似度。
// 不足兩個菜系時回傳空矩陣（不是錯誤），向量補零對齊到全域最大長度。
func (s *Service) Compute(ctx context.Context) (*Matrix, error) {
	start := time.Now()

	cuisines, err := s.store.ListCuisines(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	var vectors [][]float64
	maxLen := 0
	for _, c := range cuisines {
		emb, err := s.store.LoadEmbedding(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if emb == nil || len(emb.EmbeddingVector) == 0 {
			continue
		}
		names = append(names, c.Name)
		vectors = append(vectors, emb.EmbeddingVector)
		if len(emb.EmbeddingVector) > maxLen {
			maxLen = len(emb.EmbeddingVector)
		}
	}

	if len(vectors) < 2 {
		empty := &Matrix{Cuisines: []string{}, Matrix: [][]float64{}}
		s.mu.Lock()
		s.cached = empty
		s.mu.Unlock()
		return empty, nil
	}

	for i := range vectors {
		vectors[i] = identity.PadTo(vectors[i], maxLen)
	}

	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		matrix[i][i] = 1.0
		for j := i + 1; j < n; j++ {
			sim := common.Round4(identity.CosineSimilarity(vectors[i], vectors[j]))
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}

	result := &Matrix{Cuisines: names, Matrix: matrix}
	s.mu.Lock()
	s.cached = result
	s.mu.Unlock()

	common.LogComputation("transferability", time.Since(start), nil,
		zap.Int("cuisines", n),
	)
	return result, nil
}
