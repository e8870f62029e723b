package trainer

import (
	"context"
	"errors"
	"math"
	"testing"

	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecipes(t *testing.T, recipes [][]string) storage.Store {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()

	cuisineID, err := store.UpsertCuisine(ctx, "test cuisine")
	require.NoError(t, err)
	for _, ingredients := range recipes {
		recipeID, err := store.InsertRecipe(ctx, "dish", cuisineID, "")
		require.NoError(t, err)
		for _, ing := range ingredients {
			ingID, err := store.UpsertIngredient(ctx, ing)
			require.NoError(t, err)
			require.NoError(t, store.AddRecipeIngredient(ctx, recipeID, ingID, ""))
		}
	}
	return store
}

func TestTrainNotEnoughIngredients(t *testing.T) {
	store := seedRecipes(t, [][]string{
		{"tomato", "basil"},
	})

	svc := NewService(store)
	_, err := svc.Train(context.Background(), 10)
	require.Error(t, err)

	var custom *common.CustomError
	require.True(t, errors.As(err, &custom))
	assert.Equal(t, common.ErrCodeNotEnoughData, custom.Code)
	assert.False(t, svc.Status().ModelTrained)
}

func TestTrainNoCooccurrence(t *testing.T) {
	// 五種食材但每道食譜只有單一食材，沒有任何共現
	store := seedRecipes(t, [][]string{
		{"tomato"}, {"basil"}, {"garlic"}, {"cumin"}, {"rice"},
	})

	svc := NewService(store)
	_, err := svc.Train(context.Background(), 10)
	require.Error(t, err)

	var custom *common.CustomError
	require.True(t, errors.As(err, &custom))
	assert.Equal(t, common.ErrCodeNotEnoughData, custom.Code)
}

func TestTrainAndQueryEmbeddings(t *testing.T) {
	store := seedRecipes(t, [][]string{
		{"tomato", "basil", "garlic"},
		{"tomato", "basil", "mozzarella"},
		{"cumin", "rice", "garlic"},
		{"cumin", "rice", "turmeric"},
	})

	svc := NewService(store)
	result, err := svc.Train(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, "TruncatedSVD (PPMI)", result.ModelType)
	assert.Equal(t, 7, result.IngredientsTrained)
	// 7 種食材，維度被截到 n-1 = 6
	assert.Equal(t, 6, result.Dimensions)

	status := svc.Status()
	assert.True(t, status.ModelTrained)
	assert.Equal(t, "TruncatedSVD (PPMI)", status.ModelType)
	assert.Equal(t, 6, status.Dimensions)
	assert.Equal(t, 7, status.IngredientsCount)
	require.NotNil(t, status.LastTrained)

	vec := svc.Embedding("tomato")
	require.Len(t, vec, 6)

	// 各列 L2 正規化
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	// 名稱查詢前先正規化
	assert.Equal(t, vec, svc.Embedding("  Tomato  "))

	// 不存在的食材回傳空切片
	assert.Empty(t, svc.Embedding("saffron"))
}

func TestTrainDimensionFloor(t *testing.T) {
	store := seedRecipes(t, [][]string{
		{"tomato", "basil", "garlic", "cumin", "rice"},
	})

	svc := NewService(store)
	result, err := svc.Train(context.Background(), 1)
	require.NoError(t, err)
	// 要求 1 維也會被提到下限 2
	assert.Equal(t, 2, result.Dimensions)
	assert.Len(t, svc.Embedding("rice"), 2)
}

func TestStatusBeforeTraining(t *testing.T) {
	svc := NewService(storage.NewMemoryStore())
	status := svc.Status()
	assert.False(t, status.ModelTrained)
	assert.Empty(t, status.ModelType)
	assert.Nil(t, status.LastTrained)
	assert.Empty(t, svc.Embedding("tomato"))
}
