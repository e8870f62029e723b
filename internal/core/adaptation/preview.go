package adaptation

import (
	"context"
	"sort"

	"cuisine-adapter/internal/core/identity"
	"cuisine-adapter/internal/pkg/common"
)

// CompatibilityPreview 兩菜系的相容性預覽
type CompatibilityPreview struct {
	SourceCuisine      string  `json:"source_cuisine"`
	TargetCuisine      string  `json:"target_cuisine"`
	CompatibilityScore float64 `json:"compatibility_score"`
	SharedIngredients  int     `json:"shared_ingredients"`
	SharedMolecules    int     `json:"shared_molecules"`
}

// ImpactPreview 改編前的影響估計
type ImpactPreview struct {
	EstimatedIdentityChange float64  `json:"estimated_identity_change"`
	EstimatedFlavorShift    float64  `json:"estimated_flavor_shift"`
	RiskIngredients         []string `json:"risk_ingredients"`
}

// IngredientRisk 單一食材的替換風險評估
type IngredientRisk struct {
	Ingredient  string  `json:"ingredient"`
	Centrality  float64 `json:"centrality"`
	RiskLevel   string  `json:"risk_level"`
	Replaceable bool    `json:"replaceable"`
}

// PreviewCompatibility 計算兩菜系嵌入向量的餘弦相容性，
// 並統計共享食材與共享分子的數量。
func (s *Service) PreviewCompatibility(ctx context.Context, sourceCuisine, targetCuisine string) (*CompatibilityPreview, error) {
	srcEmb, err := s.loadEmbedding(ctx, sourceCuisine)
	if err != nil {
		return nil, err
	}
	tgtEmb, err := s.loadEmbedding(ctx, targetCuisine)
	if err != nil {
		return nil, err
	}

	compatibility := identity.CosineSimilarity(srcEmb.EmbeddingVector, tgtEmb.EmbeddingVector)

	sharedIngredients := 0
	for ing := range srcEmb.IngredientFrequency {
		if _, ok := tgtEmb.IngredientFrequency[ing]; ok {
			sharedIngredients++
		}
	}
	sharedMolecules := 0
	for mol := range srcEmb.MoleculeDistribution {
		if _, ok := tgtEmb.MoleculeDistribution[mol]; ok {
			sharedMolecules++
		}
	}

	return &CompatibilityPreview{
		SourceCuisine:      common.NormalizeName(sourceCuisine),
		TargetCuisine:      common.NormalizeName(targetCuisine),
		CompatibilityScore: common.Round4(compatibility),
		SharedIngredients:  sharedIngredients,
		SharedMolecules:    sharedMolecules,
	}, nil
}

// PreviewImpact 在不執行完整改編的情況下估計改編影響。
// 風險食材：來源中心性最低的前 10 名中，不存在於目標菜系者，最多取 5 個。
func (s *Service) PreviewImpact(ctx context.Context, sourceCuisine, targetCuisine string, intensity float64) (*ImpactPreview, error) {
	srcEmb, err := s.loadEmbedding(ctx, sourceCuisine)
	if err != nil {
		return nil, err
	}
	tgtEmb, err := s.loadEmbedding(ctx, targetCuisine)
	if err != nil {
		return nil, err
	}

	similarity := identity.CosineSimilarity(srcEmb.EmbeddingVector, tgtEmb.EmbeddingVector)
	distance := 1.0 - similarity

	type ranked struct {
		name       string
		centrality float64
	}
	candidates := make([]ranked, 0, len(srcEmb.CentralityScores))
	for ing, cent := range srcEmb.CentralityScores {
		candidates = append(candidates, ranked{name: ing, centrality: cent})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].centrality != candidates[j].centrality {
			return candidates[i].centrality < candidates[j].centrality
		}
		return candidates[i].name < candidates[j].name
	})
	if len(candidates) > 10 {
		candidates = candidates[:10]
	}

	risks := make([]string, 0, 5)
	for _, c := range candidates {
		if _, ok := tgtEmb.IngredientFrequency[c.name]; !ok {
			risks = append(risks, c.name)
			if len(risks) == 5 {
				break
			}
		}
	}

	return &ImpactPreview{
		EstimatedIdentityChange: common.Round4(distance * intensity),
		EstimatedFlavorShift:    common.Round4(distance * intensity * 0.8),
		RiskIngredients:         risks,
	}, nil
}

// IngredientRisks 依中心性四分位數評估菜系內每個食材的替換風險。
// >= P75 為 high 且不可替換，>= P25 為 medium，其餘 low。
// 結果依中心性遞減排序。
func (s *Service) IngredientRisks(ctx context.Context, cuisineName string) ([]IngredientRisk, error) {
	emb, err := s.loadEmbedding(ctx, cuisineName)
	if err != nil {
		return nil, err
	}
	if len(emb.CentralityScores) == 0 {
		return []IngredientRisk{}, nil
	}

	values := make([]float64, 0, len(emb.CentralityScores))
	for _, v := range emb.CentralityScores {
		values = append(values, v)
	}
	p25 := Percentile(values, 25)
	p75 := Percentile(values, 75)

	results := make([]IngredientRisk, 0, len(emb.CentralityScores))
	for ing, cent := range emb.CentralityScores {
		level := "low"
		replaceable := true
		switch {
		case cent >= p75:
			level = "high"
			replaceable = false
		case cent >= p25:
			level = "medium"
		}
		results = append(results, IngredientRisk{
			Ingredient:  ing,
			Centrality:  common.Round4(cent),
			RiskLevel:   level,
			Replaceable: replaceable,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Centrality != results[j].Centrality {
			return results[i].Centrality > results[j].Centrality
		}
		return results[i].Ingredient < results[j].Ingredient
	})
	return results, nil
}

// Percentile 線性插值百分位數，p 介於 0 到 100。
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(rank)
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}
