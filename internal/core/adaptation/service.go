package adaptation

import (
	"context"
	"sort"
	"strconv"
	"time"

	"cuisine-adapter/internal/core/identity"
	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Request 改編請求，intensity 需在呼叫前夾到 [0,1]
type Request struct {
	RecipeID      int64   `json:"recipe_id" binding:"required"`
	SourceCuisine string  `json:"source_cuisine" binding:"required"`
	TargetCuisine string  `json:"target_cuisine" binding:"required"`
	Intensity     float64 `json:"intensity"`
}

// Scores 改編的五項分數，前四項同時落庫
type Scores struct {
	Identity           float64 `json:"identity_score"`
	Compatibility      float64 `json:"compatibility_score"`
	AdaptationDistance float64 `json:"adaptation_distance"`
	FlavorCoherence    float64 `json:"flavor_coherence"`
	MultiObjective     float64 `json:"multi_objective_score"`
}

// Result 改編結果
type Result struct {
	ID                  string                 `json:"id"`
	RecipeName          string                 `json:"recipe_name"`
	SourceCuisine       string                 `json:"source_cuisine"`
	TargetCuisine       string                 `json:"target_cuisine"`
	Intensity           float64                `json:"intensity"`
	Scores              Scores                 `json:"scores"`
	OriginalIngredients []string               `json:"original_ingredients"`
	AdaptedIngredients  []string               `json:"adapted_ingredients"`
	Substitutions       []storage.Substitution `json:"substitutions"`
	SubstitutionCount   int                    `json:"substitution_count"`
	CreatedAt           time.Time              `json:"created_at"`
}

// Service 食譜改編服務
type Service struct {
	store storage.Store
}

// NewService 創建新的改編服務
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

func (s *Service) moleculeLookup(ctx context.Context) identity.MoleculeLookup {
	return func(ingredient string) (map[string]float64, error) {
		return s.store.MoleculeProfile(ctx, ingredient)
	}
}

// recipeVector 組建食譜向量，做法與菜系向量一致（TF + 分子分布的融合）
func (s *Service) recipeVector(ctx context.Context, ingredients []string) ([]float64, error) {
	freq := identity.TermFrequency(ingredients)
	moleculeDist, err := identity.MoleculeDistribution(freq, s.moleculeLookup(ctx))
	if err != nil {
		return nil, err
	}
	_, vector := identity.BuildVector(freq, moleculeDist)
	return vector, nil
}

// flavorCoherence 原始與改編食材清單的分子分布餘弦相似度
func (s *Service) flavorCoherence(ctx context.Context, original, adapted []string) (float64, error) {
	lookup := s.moleculeLookup(ctx)

	originalMol, err := identity.MoleculeDistribution(identity.TermFrequency(original), lookup)
	if err != nil {
		return 0, err
	}
	adaptedMol, err := identity.MoleculeDistribution(identity.TermFrequency(adapted), lookup)
	if err != nil {
		return 0, err
	}

	// 兩邊用聯合鍵序對齊後再取餘弦
	keys := unionSorted(originalMol, adaptedMol)
	originalVec := projectOnto(originalMol, keys)
	adaptedVec := projectOnto(adaptedMol, keys)

	return identity.CosineSimilarity(originalVec, adaptedVec), nil
}

func (s *Service) loadEmbedding(ctx context.Context, cuisineName string) (*storage.CuisineEmbedding, error) {
	name := common.NormalizeName(cuisineName)
	cuisine, err := s.store.GetCuisineByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if cuisine == nil {
		return nil, common.ErrCuisineNotFound.WithDetail(name)
	}
	emb, err := s.store.LoadEmbedding(ctx, cuisine.ID)
	if err != nil {
		return nil, err
	}
	if emb == nil || len(emb.EmbeddingVector) == 0 {
		return nil, common.ErrMissingEmbedding.WithDetail(name)
	}
	return emb, nil
}

// AdaptRecipe 執行完整的改編流程並寫入歷史紀錄。
func (s *Service) AdaptRecipe(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	source := common.NormalizeName(req.SourceCuisine)
	target := common.NormalizeName(req.TargetCuisine)

	common.LogInfo("開始改編食譜",
		zap.Int64("recipe_id", req.RecipeID),
		zap.String("source", source),
		zap.String("target", target),
		zap.Float64("intensity", req.Intensity),
	)

	recipe, err := s.store.GetRecipeByID(ctx, req.RecipeID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, common.ErrRecipeNotFound.WithDetail(strconv.FormatInt(req.RecipeID, 10))
	}

	original, err := s.store.RecipeIngredients(ctx, req.RecipeID)
	if err != nil {
		return nil, err
	}
	if len(original) == 0 {
		return nil, common.ErrEmptyRecipe.WithDetail(recipe.Name)
	}

	sourceEmb, err := s.loadEmbedding(ctx, source)
	if err != nil {
		return nil, err
	}
	targetEmb, err := s.loadEmbedding(ctx, target)
	if err != nil {
		return nil, err
	}

	recipeVec, err := s.recipeVector(ctx, original)
	if err != nil {
		return nil, err
	}

	// 1–2. 身分與相容性分數
	identityScore := identity.CosineSimilarity(recipeVec, sourceEmb.EmbeddingVector)
	compatibilityScore := identity.CosineSimilarity(recipeVec, targetEmb.EmbeddingVector)

	// 3–4. 依來源中心性挑出待替換食材
	toReplace := RankForReplacement(original, sourceEmb.CentralityScores, req.Intensity)

	// 5. 從目標菜系候選池挑出分子相容性最佳的替換
	pool := CandidatePool(targetEmb.IngredientFrequency, original)
	replacements, err := SelectReplacements(toReplace, pool, s.moleculeLookup(ctx))
	if err != nil {
		return nil, err
	}

	// 6. 套用替換，保留食譜原始順序
	adapted := make([]string, len(original))
	copy(adapted, original)
	substitutions := make([]storage.Substitution, 0, len(replacements))
	for _, r := range replacements {
		for i, ing := range adapted {
			if ing == r.Original {
				adapted[i] = r.Replacement
				reason := "low centrality in source, high frequency in target"
				if r.Score > 0.5 {
					reason += ", good molecular compatibility"
				}
				confidence := r.Score + 0.3
				if confidence > 1.0 {
					confidence = 1.0
				}
				substitutions = append(substitutions, storage.Substitution{
					Original:    r.Original,
					Replacement: r.Replacement,
					Reason:      reason,
					Confidence:  common.Round3(confidence),
				})
				break
			}
		}
	}

	// 7–9. 距離、風味連貫性、多目標分數
	distance := AdaptationDistance(original, adapted)
	coherence, err := s.flavorCoherence(ctx, original, adapted)
	if err != nil {
		return nil, err
	}
	multiScore := MultiObjectiveScore(identityScore, compatibilityScore, distance, coherence)

	record := &storage.AdaptationRecord{
		ID:                  ulid.Make().String(),
		RecipeID:            req.RecipeID,
		SourceCuisine:       source,
		TargetCuisine:       target,
		Intensity:           req.Intensity,
		IdentityScore:       common.Round4(identityScore),
		CompatibilityScore:  common.Round4(compatibilityScore),
		AdaptationDistance:  common.Round4(distance),
		FlavorCoherence:     common.Round4(coherence),
		OriginalIngredients: original,
		AdaptedIngredients:  adapted,
		Substitutions:       substitutions,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.store.AppendAdaptation(ctx, record); err != nil {
		return nil, err
	}

	common.LogComputation("adaptation", time.Since(start), nil,
		zap.String("id", record.ID),
		zap.Int("substitutions", len(substitutions)),
	)

	return &Result{
		ID:            record.ID,
		RecipeName:    recipe.Name,
		SourceCuisine: source,
		TargetCuisine: target,
		Intensity:     req.Intensity,
		Scores: Scores{
			Identity:           record.IdentityScore,
			Compatibility:      record.CompatibilityScore,
			AdaptationDistance: record.AdaptationDistance,
			FlavorCoherence:    record.FlavorCoherence,
			MultiObjective:     common.Round4(multiScore),
		},
		OriginalIngredients: original,
		AdaptedIngredients:  adapted,
		Substitutions:       substitutions,
		SubstitutionCount:   len(substitutions),
		CreatedAt:           record.CreatedAt,
	}, nil
}

// History 查詢某食譜的改編歷史，新到舊。
func (s *Service) History(ctx context.Context, recipeID int64) ([]storage.AdaptationRecord, error) {
	recipe, err := s.store.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, common.ErrRecipeNotFound
	}
	return s.store.ListAdaptationsByRecipe(ctx, recipeID)
}

func unionSorted(a, b map[string]float64) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func projectOnto(m map[string]float64, keys []string) []float64 {
	vec := make([]float64, len(keys))
	for i, k := range keys {
		vec[i] = m[k]
	}
	return vec
}
