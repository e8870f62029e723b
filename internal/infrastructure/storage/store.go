package storage

import (
	"context"
	"time"
)

// Cuisine 菜系實體，name 已正規化且唯一
type Cuisine struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Region      string    `json:"region,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Recipe 食譜實體，恰好屬於一個菜系
type Recipe struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CuisineID    int64     `json:"cuisine_id"`
	Instructions string    `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CuisineEmbedding 菜系嵌入，derived cache-like 實體。
// 每個菜系至多一筆，重算時整筆覆寫，不留版本。
type CuisineEmbedding struct {
	CuisineID            int64              `json:"cuisine_id"`
	IngredientFrequency  map[string]float64 `json:"ingredient_frequency"`
	MoleculeDistribution map[string]float64 `json:"molecule_distribution"`
	CentralityScores     map[string]float64 `json:"centrality_scores"`
	EmbeddingVector      []float64          `json:"embedding_vector"`
	PCA2D                []float64          `json:"pca_2d"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// Substitution 一次替換事件
type Substitution struct {
	Original    string  `json:"original"`
	Replacement string  `json:"replacement"`
	Reason      string  `json:"reason"`
	Confidence  float64 `json:"confidence"`
}

// AdaptationRecord 一次 adaptation 的不可變日誌記錄，append-only
type AdaptationRecord struct {
	ID                  string         `json:"id"`
	RecipeID            int64          `json:"recipe_id"`
	SourceCuisine       string         `json:"source_cuisine"`
	TargetCuisine       string         `json:"target_cuisine"`
	Intensity           float64        `json:"intensity"`
	IdentityScore       float64        `json:"identity_score"`
	CompatibilityScore  float64        `json:"compatibility_score"`
	AdaptationDistance  float64        `json:"adaptation_distance"`
	FlavorCoherence     float64        `json:"flavor_coherence"`
	OriginalIngredients []string       `json:"original_ingredients"`
	AdaptedIngredients  []string       `json:"adapted_ingredients"`
	Substitutions       []Substitution `json:"substitutions"`
	CreatedAt           time.Time      `json:"created_at"`
}

// Store 核心與外部協作層（持久化）之間的唯一邊界。
// 查無資料時回傳 (nil, nil)，錯誤一律原樣上拋，不在這層重試。
type Store interface {
	// 菜系與食譜
	GetCuisineByName(ctx context.Context, name string) (*Cuisine, error)
	ListCuisines(ctx context.Context) ([]Cuisine, error)
	GetRecipeByID(ctx context.Context, id int64) (*Recipe, error)
	ListRecipesByCuisine(ctx context.Context, cuisineID int64) ([]Recipe, error)
	ListRecipes(ctx context.Context) ([]Recipe, error)

	// 食材（順序保留、允許重複）與分子
	RecipeIngredients(ctx context.Context, recipeID int64) ([]string, error)
	MoleculeProfile(ctx context.Context, ingredientName string) (map[string]float64, error)
	ListIngredientNames(ctx context.Context) ([]string, error)

	// 嵌入（upsert 語義，整筆覆寫）
	LoadEmbedding(ctx context.Context, cuisineID int64) (*CuisineEmbedding, error)
	SaveEmbedding(ctx context.Context, emb *CuisineEmbedding) error

	// adaptation 日誌
	AppendAdaptation(ctx context.Context, rec *AdaptationRecord) error
	ListAdaptationsByRecipe(ctx context.Context, recipeID int64) ([]AdaptationRecord, error)

	// 資料匯入路徑
	UpsertCuisine(ctx context.Context, name string) (int64, error)
	UpsertIngredient(ctx context.Context, name string) (int64, error)
	InsertRecipe(ctx context.Context, name string, cuisineID int64, instructions string) (int64, error)
	AddRecipeIngredient(ctx context.Context, recipeID, ingredientID int64, quantity string) error
	UpsertMolecule(ctx context.Context, name, category string) (int64, error)
	LinkIngredientMolecule(ctx context.Context, ingredientID, moleculeID int64, intensity float64) error

	Close() error
}
