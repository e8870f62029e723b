package adaptation

import (
	"context"
	"testing"

	"cuisine-adapter/internal/core/identity"
	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture 建好兩個菜系、各自的嵌入，以及一份待改編的食譜
type fixture struct {
	store    storage.Store
	recipeID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	seed := func(cuisine string, recipes [][]string) int64 {
		cuisineID, err := store.UpsertCuisine(ctx, cuisine)
		require.NoError(t, err)
		for _, ingredients := range recipes {
			recipeID, err := store.InsertRecipe(ctx, cuisine+" dish", cuisineID, "")
			require.NoError(t, err)
			for _, ing := range ingredients {
				ingID, err := store.UpsertIngredient(ctx, ing)
				require.NoError(t, err)
				require.NoError(t, store.AddRecipeIngredient(ctx, recipeID, ingID, ""))
			}
		}
		return cuisineID
	}

	seed("italian", [][]string{
		{"tomato", "basil", "olive oil", "garlic", "mozzarella"},
		{"tomato", "basil", "parmesan", "pasta", "garlic"},
	})
	seed("indian", [][]string{
		{"cumin", "turmeric", "ghee", "rice", "garlic"},
		{"cumin", "coriander", "chili", "rice", "ginger"},
	})

	link := func(ingredient, molecule string, intensity float64) {
		ingID, err := store.UpsertIngredient(ctx, ingredient)
		require.NoError(t, err)
		molID, err := store.UpsertMolecule(ctx, molecule, "")
		require.NoError(t, err)
		require.NoError(t, store.LinkIngredientMolecule(ctx, ingID, molID, intensity))
	}
	link("tomato", "umami", 0.8)
	link("basil", "herbal", 0.9)
	link("cumin", "earthy", 0.9)
	link("mozzarella", "creamy", 0.7)
	link("ghee", "creamy", 0.8)

	// 兩個菜系都先算好嵌入
	identitySvc := identity.NewService(store)
	_, err := identitySvc.ComputeCuisineIdentity(ctx, "italian")
	require.NoError(t, err)
	_, err = identitySvc.ComputeCuisineIdentity(ctx, "indian")
	require.NoError(t, err)

	// 待改編的食譜掛在 italian 下
	italian, err := store.GetCuisineByName(ctx, "italian")
	require.NoError(t, err)
	recipeID, err := store.InsertRecipe(ctx, "caprese", italian.ID, "assemble and serve")
	require.NoError(t, err)
	for _, ing := range []string{"tomato", "mozzarella", "basil", "olive oil", "garlic"} {
		ingID, err := store.UpsertIngredient(ctx, ing)
		require.NoError(t, err)
		require.NoError(t, store.AddRecipeIngredient(ctx, recipeID, ingID, ""))
	}

	return &fixture{store: store, recipeID: recipeID}
}

func TestAdaptRecipe(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	result, err := svc.AdaptRecipe(context.Background(), Request{
		RecipeID:      f.recipeID,
		SourceCuisine: "italian",
		TargetCuisine: "indian",
		Intensity:     0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "caprese", result.RecipeName)
	assert.Equal(t, "italian", result.SourceCuisine)
	assert.Equal(t, "indian", result.TargetCuisine)
	assert.Len(t, result.OriginalIngredients, 5)
	assert.Len(t, result.AdaptedIngredients, 5)

	// 5 食材、強度 0.5 → 最多 max(1, floor(5·0.5·0.6)) = 1 筆替換
	assert.LessOrEqual(t, result.SubstitutionCount, 1)
	assert.GreaterOrEqual(t, result.SubstitutionCount, 1)

	// 替換食材必須來自目標菜系且不重複
	seen := map[string]bool{}
	for _, sub := range result.Substitutions {
		assert.False(t, seen[sub.Replacement], "replacement reused: %s", sub.Replacement)
		seen[sub.Replacement] = true
		assert.Contains(t, sub.Reason, "low centrality in source, high frequency in target")
		assert.GreaterOrEqual(t, sub.Confidence, 0.0)
		assert.LessOrEqual(t, sub.Confidence, 1.0)
	}

	// 分數範圍
	assert.GreaterOrEqual(t, result.Scores.Identity, 0.0)
	assert.LessOrEqual(t, result.Scores.Identity, 1.0)
	assert.GreaterOrEqual(t, result.Scores.Compatibility, 0.0)

	// 一換一：對稱差 2 / 原集合 5 = 0.4
	assert.InDelta(t, 0.4, result.Scores.AdaptationDistance, 1e-9)

	// 歷史已落庫
	records, err := svc.History(context.Background(), f.recipeID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.ID, records[0].ID)
	assert.NotEmpty(t, records[0].ID)
}

func TestAdaptRecipeHighIntensity(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	result, err := svc.AdaptRecipe(context.Background(), Request{
		RecipeID:      f.recipeID,
		SourceCuisine: "italian",
		TargetCuisine: "indian",
		Intensity:     1.0,
	})
	require.NoError(t, err)

	// 強度 1.0 → 目標替換 3 個（受候選池限制）
	assert.LessOrEqual(t, result.SubstitutionCount, 3)
	assert.Greater(t, result.SubstitutionCount, 0)
	assert.Greater(t, result.Scores.AdaptationDistance, 0.0)
}

func TestAdaptRecipeNotFound(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	_, err := svc.AdaptRecipe(context.Background(), Request{
		RecipeID:      99999,
		SourceCuisine: "italian",
		TargetCuisine: "indian",
		Intensity:     0.5,
	})
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)
}

func TestAdaptRecipeMissingEmbedding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 新菜系存在但沒算過嵌入
	_, err := f.store.UpsertCuisine(ctx, "peruvian")
	require.NoError(t, err)

	svc := NewService(f.store)
	_, err = svc.AdaptRecipe(ctx, Request{
		RecipeID:      f.recipeID,
		SourceCuisine: "italian",
		TargetCuisine: "peruvian",
		Intensity:     0.5,
	})
	assert.ErrorIs(t, err, common.ErrMissingEmbedding)
}

func TestAdaptRecipeUnknownCuisine(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	_, err := svc.AdaptRecipe(context.Background(), Request{
		RecipeID:      f.recipeID,
		SourceCuisine: "atlantis",
		TargetCuisine: "indian",
		Intensity:     0.5,
	})
	assert.ErrorIs(t, err, common.ErrCuisineNotFound)
}

func TestHistoryUnknownRecipe(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store)

	_, err := svc.History(context.Background(), 424242)
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)
}
