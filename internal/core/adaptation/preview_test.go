package adaptation

import (
	"context"
	"testing"

	"cuisine-adapter/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewCompatibility(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	preview, err := svc.PreviewCompatibility(context.Background(), "Italian", "Indian")
	require.NoError(t, err)

	assert.Equal(t, "italian", preview.SourceCuisine)
	assert.Equal(t, "indian", preview.TargetCuisine)
	// garlic 是唯一共享食材
	assert.Equal(t, 1, preview.SharedIngredients)
	assert.GreaterOrEqual(t, preview.CompatibilityScore, 0.0)
	assert.LessOrEqual(t, preview.CompatibilityScore, 1.0)
}

func TestPreviewCompatibilityUnknownCuisine(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	_, err := svc.PreviewCompatibility(context.Background(), "italian", "atlantis")
	assert.ErrorIs(t, err, common.ErrCuisineNotFound)
}

func TestPreviewImpact(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	preview, err := svc.PreviewImpact(context.Background(), "italian", "indian", 0.5)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, preview.EstimatedIdentityChange, 0.0)
	assert.LessOrEqual(t, preview.EstimatedIdentityChange, 1.0)
	// 風味偏移固定是身分變化的 0.8 倍
	assert.InDelta(t, preview.EstimatedIdentityChange*0.8, preview.EstimatedFlavorShift, 1e-3)
	assert.LessOrEqual(t, len(preview.RiskIngredients), 5)

	// 風險食材必須不存在於目標菜系
	for _, ing := range preview.RiskIngredients {
		assert.NotContains(t, []string{"cumin", "turmeric", "ghee", "rice", "garlic", "coriander", "chili", "ginger"}, ing)
	}
}

func TestPreviewImpactZeroIntensity(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	preview, err := svc.PreviewImpact(context.Background(), "italian", "indian", 0.0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, preview.EstimatedIdentityChange)
	assert.Equal(t, 0.0, preview.EstimatedFlavorShift)
}

func TestIngredientRisks(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	risks, err := svc.IngredientRisks(context.Background(), "italian")
	require.NoError(t, err)
	require.NotEmpty(t, risks)

	// 依中心性遞減
	for i := 1; i < len(risks); i++ {
		assert.GreaterOrEqual(t, risks[i-1].Centrality, risks[i].Centrality)
	}

	// 最高中心性的一定是 high 且不可替換
	assert.Equal(t, "high", risks[0].RiskLevel)
	assert.False(t, risks[0].Replaceable)

	// 最低中心性的可替換
	last := risks[len(risks)-1]
	assert.True(t, last.Replaceable)

	for _, r := range risks {
		assert.Contains(t, []string{"low", "medium", "high"}, r.RiskLevel)
	}
}

func TestIngredientRisksMissingEmbedding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.UpsertCuisine(ctx, "peruvian")
	require.NoError(t, err)

	svc := NewService(f.store)
	_, err = svc.IngredientRisks(ctx, "peruvian")
	assert.ErrorIs(t, err, common.ErrMissingEmbedding)
}
