package identity

import (
	"context"
	"sync"
	"time"

	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"go.uber.org/zap"
)

// 回傳 profile 時食材與分子分布各保留前 20 名
const topK = 20

// Profile 菜系身分檔案，computeCuisineIdentity 的輸出
type Profile struct {
	Cuisine              string             `json:"cuisine"`
	RecipeCount          int                `json:"recipe_count"`
	IngredientCount      int                `json:"ingredient_count"`
	TopIngredients       []RankedIngredient `json:"top_ingredients"`
	MoleculeDistribution map[string]float64 `json:"molecule_distribution"`
	CentralityScores     map[string]float64 `json:"centrality_scores"`
	Embedding2D          []float64          `json:"embedding_2d"`
	VectorDimension      int                `json:"vector_dimension"`
}

// ComputeAllSummary computeAllCuisineIdentities 的輸出
type ComputeAllSummary struct {
	CuisinesProcessed int                      `json:"cuisines_processed"`
	Details           map[string]CuisineCounts `json:"details"`
	Failures          map[string]string        `json:"failures,omitempty"`
}

// CuisineCounts 單一菜系的統計
type CuisineCounts struct {
	RecipeCount     int `json:"recipe_count"`
	IngredientCount int `json:"ingredient_count"`
}

// Service 菜系身分計算服務
type Service struct {
	store storage.Store

	// 同一菜系的並發重算必須序列化（last-writer-wins），
	// 不同菜系各自獨立，用單一寫入鎖足夠
	writeMu sync.Mutex

	// 重算後的失效回呼（轉移矩陣快取、Redis profile 快取）
	recomputeMu sync.Mutex
	onRecompute []func()
}

// NewService 創建新的身分計算服務
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// OnRecompute 註冊重算後的失效回呼
func (s *Service) OnRecompute(f func()) {
	s.recomputeMu.Lock()
	defer s.recomputeMu.Unlock()
	s.onRecompute = append(s.onRecompute, f)
}

func (s *Service) fireRecompute() {
	s.recomputeMu.Lock()
	callbacks := make([]func(), len(s.onRecompute))
	copy(callbacks, s.onRecompute)
	s.recomputeMu.Unlock()

	for _, f := range callbacks {
		f()
	}
}

// ComputeCuisineIdentity 重算並覆寫指定菜系的嵌入，回傳身分檔案。
// 資料未變時重複呼叫產生相同的向量與 mapping。
func (s *Service) ComputeCuisineIdentity(ctx context.Context, cuisineName string) (*Profile, error) {
	start := time.Now()
	name := common.NormalizeName(cuisineName)

	cuisine, err := s.store.GetCuisineByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if cuisine == nil {
		return nil, common.ErrCuisineNotFound.WithDetail(name)
	}

	recipes, err := s.store.ListRecipesByCuisine(ctx, cuisine.ID)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, common.ErrNoRecipes.WithDetail(name)
	}

	// 收集所有食材（保序、允許重複），同時保留每份食譜的清單供共現圖使用
	perRecipe := make([][]string, 0, len(recipes))
	var allIngredients []string
	for _, r := range recipes {
		ings, err := s.store.RecipeIngredients(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		perRecipe = append(perRecipe, ings)
		allIngredients = append(allIngredients, ings...)
	}
	if len(allIngredients) == 0 {
		return nil, common.ErrNoRecipes.WithDetail(name)
	}

	// 1. TF
	freq := TermFrequency(allIngredients)

	// 2. 分子分布
	moleculeDist, err := MoleculeDistribution(freq, func(ing string) (map[string]float64, error) {
		return s.store.MoleculeProfile(ctx, ing)
	})
	if err != nil {
		return nil, err
	}

	// 3. 共現中心性
	centrality := DegreeCentrality(perRecipe)

	// 4. 融合向量
	_, vector := BuildVector(freq, moleculeDist)

	// 佔位投影：完整 PCA 在 compute-all 時跨菜系重算
	placeholder := []float64{0.0, 0.0}
	if len(vector) >= 2 {
		placeholder = []float64{vector[0], vector[1]}
	}

	emb := &storage.CuisineEmbedding{
		CuisineID:            cuisine.ID,
		IngredientFrequency:  freq,
		MoleculeDistribution: moleculeDist,
		CentralityScores:     centrality,
		EmbeddingVector:      vector,
		PCA2D:                placeholder,
	}

	s.writeMu.Lock()
	err = s.store.SaveEmbedding(ctx, emb)
	s.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	common.LogComputation("identity", time.Since(start), nil,
		zap.String("cuisine", name),
		zap.Int("recipes", len(recipes)),
		zap.Int("vector_dimension", len(vector)),
	)

	return &Profile{
		Cuisine:              name,
		RecipeCount:          len(recipes),
		IngredientCount:      len(freq),
		TopIngredients:       TopIngredients(freq, centrality, topK),
		MoleculeDistribution: TopWeights(moleculeDist, topK),
		CentralityScores:     centrality,
		Embedding2D:          placeholder,
		VectorDimension:      len(vector),
	}, nil
}

// ComputeAllCuisineIdentities 重算所有菜系並更新聯合 2D PCA 投影。
// 個別菜系失敗不會中斷整批，失敗原因收進 Failures。
func (s *Service) ComputeAllCuisineIdentities(ctx context.Context) (*ComputeAllSummary, error) {
	cuisines, err := s.store.ListCuisines(ctx)
	if err != nil {
		return nil, err
	}

	summary := &ComputeAllSummary{
		Details:  make(map[string]CuisineCounts),
		Failures: make(map[string]string),
	}

	var vectors [][]float64
	var computed []storage.Cuisine

	for _, c := range cuisines {
		profile, err := s.ComputeCuisineIdentity(ctx, c.Name)
		if err != nil {
			summary.Failures[c.Name] = err.Error()
			continue
		}
		summary.Details[c.Name] = CuisineCounts{
			RecipeCount:     profile.RecipeCount,
			IngredientCount: profile.IngredientCount,
		}

		emb, err := s.store.LoadEmbedding(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if emb != nil && len(emb.EmbeddingVector) > 0 {
			vectors = append(vectors, emb.EmbeddingVector)
			computed = append(computed, c)
		}
	}
	summary.CuisinesProcessed = len(summary.Details)

	// 聯合 PCA：需要至少兩個向量
	if len(vectors) > 1 {
		coords := PCA2D(vectors)
		for i, c := range computed {
			emb, err := s.store.LoadEmbedding(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			if emb == nil {
				continue
			}
			emb.PCA2D = coords[i]
			s.writeMu.Lock()
			err = s.store.SaveEmbedding(ctx, emb)
			s.writeMu.Unlock()
			if err != nil {
				return nil, err
			}
		}
		common.LogInfo("已更新聯合 PCA 投影", zap.Int("cuisines", len(computed)))
	}

	// 整批重算後讓各快取失效
	s.fireRecompute()

	return summary, nil
}
