package trainer

import (
	"context"
	"math"
	"sync"
	"time"

	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// 訓練最少需要的食材數量
const minIngredients = 5

const modelType = "TruncatedSVD (PPMI)"

// Status 模型訓練狀態
type Status struct {
	ModelTrained     bool       `json:"model_trained"`
	ModelType        string     `json:"model_type,omitempty"`
	LastTrained      *time.Time `json:"last_trained,omitempty"`
	Dimensions       int        `json:"dimensions,omitempty"`
	IngredientsCount int        `json:"ingredients_count,omitempty"`
}

// TrainResult 訓練結果摘要
type TrainResult struct {
	ModelType           string  `json:"model_type"`
	Dimensions          int     `json:"dimensions"`
	IngredientsTrained  int     `json:"ingredients_trained"`
	TrainingTimeSeconds float64 `json:"training_time_seconds"`
}

// Service 輔助食材嵌入訓練器。模型狀態只存在記憶體，
// 重啟後歸零。單寫多讀。
type Service struct {
	store storage.Store

	mu         sync.RWMutex
	trained    bool
	lastTime   time.Time
	dimensions int
	embeddings map[string][]float64
}

// NewService 創建新的訓練服務
func NewService(store storage.Store) *Service {
	return &Service{store: store, embeddings: make(map[string][]float64)}
}

// Status 回傳目前的模型狀態
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.trained {
		return Status{ModelTrained: false}
	}
	t := s.lastTime
	return Status{
		ModelTrained:     true,
		ModelType:        modelType,
		LastTrained:      &t,
		Dimensions:       s.dimensions,
		IngredientsCount: len(s.embeddings),
	}
}

// Embedding 查詢某食材的訓練向量，未訓練或不存在回傳空切片。
func (s *Service) Embedding(name string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vec, ok := s.embeddings[common.NormalizeName(name)]
	if !ok {
		return []float64{}
	}
	out := make([]float64, len(vec))
	copy(out, vec)
	return out
}

// Train 以共現矩陣 + PPMI 加權 + 截斷 SVD 訓練食材嵌入。
// 步驟：
//  1. 從食譜-食材關係建立對稱共現矩陣
//  2. PPMI = max(0, log2(cooc·total / (rowSum·colSum) + 1e-10))
//  3. 截斷 SVD 降維到 min(dimensions, n-1)，下限 2
//  4. 各列 L2 正規化後存入記憶體
func (s *Service) Train(ctx context.Context, dimensions int) (*TrainResult, error) {
	start := time.Now()

	names, err := s.store.ListIngredientNames(ctx)
	if err != nil {
		return nil, err
	}
	n := len(names)
	if n < minIngredients {
		return nil, common.ErrNotEnoughData.WithDetail("need at least 5 ingredients")
	}

	index := make(map[string]int, n)
	for i, name := range names {
		index[name] = i
	}

	common.LogInfo("開始訓練食材嵌入", zap.Int("ingredients", n))

	cooc := make([][]float64, n)
	for i := range cooc {
		cooc[i] = make([]float64, n)
	}

	recipes, err := s.store.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	for _, recipe := range recipes {
		ings, err := s.store.RecipeIngredients(ctx, recipe.ID)
		if err != nil {
			return nil, err
		}
		var idxs []int
		for _, ing := range ings {
			if i, ok := index[ing]; ok {
				idxs = append(idxs, i)
			}
		}
		for i := 0; i < len(idxs); i++ {
			for j := i + 1; j < len(idxs); j++ {
				cooc[idxs[i]][idxs[j]] += 1.0
				cooc[idxs[j]][idxs[i]] += 1.0
			}
		}
	}

	total := 0.0
	rowSums := make([]float64, n)
	colSums := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			total += cooc[i][j]
			rowSums[i] += cooc[i][j]
			colSums[j] += cooc[i][j]
		}
	}
	if total == 0 {
		return nil, common.ErrNotEnoughData.WithDetail("no co-occurrence data, upload recipes first")
	}

	// PPMI 加權
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if cooc[i][j] > 0 && rowSums[i] > 0 && colSums[j] > 0 {
				pmi := math.Log2((cooc[i][j]*total)/(rowSums[i]*colSums[j]) + 1e-10)
				cooc[i][j] = math.Max(0, pmi)
			} else {
				cooc[i][j] = 0.0
			}
		}
	}

	dims := dimensions
	if dims > n-1 {
		dims = n - 1
	}
	if dims < 2 {
		dims = 2
	}

	flat := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		flat = append(flat, cooc[i]...)
	}
	dense := mat.NewDense(n, n, flat)

	var svd mat.SVD
	if ok := svd.Factorize(dense, mat.SVDThin); !ok {
		return nil, common.ErrInternalError.WithDetail("SVD factorization failed")
	}

	var u mat.Dense
	svd.UTo(&u)
	sigma := svd.Values(nil)

	// 取前 dims 個奇異值方向投影：U_k · Σ_k
	embeddings := make(map[string][]float64, n)
	for i := 0; i < n; i++ {
		vec := make([]float64, dims)
		for k := 0; k < dims && k < len(sigma); k++ {
			vec[k] = u.At(i, k) * sigma[k]
		}
		norm := 0.0
		for _, v := range vec {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for k := range vec {
				vec[k] /= norm
			}
		}
		embeddings[names[i]] = vec
	}

	s.mu.Lock()
	s.trained = true
	s.lastTime = time.Now().UTC()
	s.dimensions = dims
	s.embeddings = embeddings
	s.mu.Unlock()

	elapsed := time.Since(start)
	common.LogComputation("ml_training", elapsed, nil,
		zap.Int("ingredients", n),
		zap.Int("dimensions", dims),
	)

	return &TrainResult{
		ModelType:           modelType,
		Dimensions:          dims,
		IngredientsTrained:  n,
		TrainingTimeSeconds: math.Round(elapsed.Seconds()*100) / 100,
	}, nil
}
