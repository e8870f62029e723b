package identity

import (
	"context"
	"testing"

	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCuisine 建一個菜系與它的食譜，回傳 cuisine id
func seedCuisine(t *testing.T, store storage.Store, name string, recipes [][]string) int64 {
	t.Helper()
	ctx := context.Background()

	cuisineID, err := store.UpsertCuisine(ctx, name)
	require.NoError(t, err)

	for _, ingredients := range recipes {
		recipeID, err := store.InsertRecipe(ctx, name+" recipe", cuisineID, "")
		require.NoError(t, err)
		for _, ing := range ingredients {
			ingID, err := store.UpsertIngredient(ctx, ing)
			require.NoError(t, err)
			require.NoError(t, store.AddRecipeIngredient(ctx, recipeID, ingID, ""))
		}
	}
	return cuisineID
}

func linkMolecule(t *testing.T, store storage.Store, ingredient, molecule string, intensity float64) {
	t.Helper()
	ctx := context.Background()

	ingID, err := store.UpsertIngredient(ctx, ingredient)
	require.NoError(t, err)
	molID, err := store.UpsertMolecule(ctx, molecule, "")
	require.NoError(t, err)
	require.NoError(t, store.LinkIngredientMolecule(ctx, ingID, molID, intensity))
}

func TestComputeCuisineIdentity(t *testing.T) {
	store := storage.NewMemoryStore()
	cuisineID := seedCuisine(t, store, "italian", [][]string{
		{"tomato", "basil", "olive oil"},
		{"tomato", "mozzarella"},
	})
	linkMolecule(t, store, "tomato", "umami", 0.8)
	linkMolecule(t, store, "basil", "herbal", 1.0)

	svc := NewService(store)
	profile, err := svc.ComputeCuisineIdentity(context.Background(), "Italian")
	require.NoError(t, err)

	assert.Equal(t, "italian", profile.Cuisine)
	assert.Equal(t, 2, profile.RecipeCount)
	assert.Equal(t, 4, profile.IngredientCount)
	assert.Greater(t, profile.VectorDimension, 0)

	// tomato 出現在兩份食譜，頻率最高
	require.NotEmpty(t, profile.TopIngredients)
	assert.Equal(t, "tomato", profile.TopIngredients[0].Name)

	// tomato 與所有其他食材共現過，中心性 1.0
	assert.Equal(t, 1.0, profile.CentralityScores["tomato"])

	// 嵌入已落庫
	emb, err := store.LoadEmbedding(context.Background(), cuisineID)
	require.NoError(t, err)
	require.NotNil(t, emb)
	assert.Len(t, emb.EmbeddingVector, profile.VectorDimension)
}

func TestComputeCuisineIdentityIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	seedCuisine(t, store, "thai", [][]string{
		{"lemongrass", "chili", "fish sauce"},
	})

	svc := NewService(store)
	first, err := svc.ComputeCuisineIdentity(context.Background(), "thai")
	require.NoError(t, err)
	second, err := svc.ComputeCuisineIdentity(context.Background(), "thai")
	require.NoError(t, err)

	assert.Equal(t, first.VectorDimension, second.VectorDimension)
	assert.Equal(t, first.CentralityScores, second.CentralityScores)
	assert.Equal(t, first.MoleculeDistribution, second.MoleculeDistribution)
}

func TestComputeCuisineIdentityNotFound(t *testing.T) {
	svc := NewService(storage.NewMemoryStore())
	_, err := svc.ComputeCuisineIdentity(context.Background(), "atlantis")
	assert.ErrorIs(t, err, common.ErrCuisineNotFound)
}

func TestComputeCuisineIdentityNoRecipes(t *testing.T) {
	store := storage.NewMemoryStore()
	_, err := store.UpsertCuisine(context.Background(), "empty land")
	require.NoError(t, err)

	svc := NewService(store)
	_, err = svc.ComputeCuisineIdentity(context.Background(), "empty land")
	assert.ErrorIs(t, err, common.ErrNoRecipes)
}

func TestComputeAllCuisineIdentities(t *testing.T) {
	store := storage.NewMemoryStore()
	seedCuisine(t, store, "italian", [][]string{{"tomato", "basil"}})
	seedCuisine(t, store, "indian", [][]string{{"cumin", "turmeric"}})
	// 沒有食譜的菜系收進 Failures，不中斷整批
	_, err := store.UpsertCuisine(context.Background(), "empty land")
	require.NoError(t, err)

	svc := NewService(store)
	fired := 0
	svc.OnRecompute(func() { fired++ })

	summary, err := svc.ComputeAllCuisineIdentities(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.CuisinesProcessed)
	assert.Contains(t, summary.Failures, "empty land")
	assert.Equal(t, 1, fired, "recompute hook should fire once per batch")

	// 聯合 PCA 已更新兩個菜系的 2D 座標
	for _, name := range []string{"italian", "indian"} {
		c, err := store.GetCuisineByName(context.Background(), name)
		require.NoError(t, err)
		emb, err := store.LoadEmbedding(context.Background(), c.ID)
		require.NoError(t, err)
		require.NotNil(t, emb)
		assert.Len(t, emb.PCA2D, 2)
	}
}
