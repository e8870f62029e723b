package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestRecipesCSVPipeSeparated(t *testing.T) {
	csvData := `recipe_name,cuisine,ingredients,instructions
Caprese Salad,Italian,tomato|basil|mozzarella,slice and serve
Dal Tadka,Indian,dal|cumin|turmeric,simmer the lentils
`
	store := storage.NewMemoryStore()
	svc := NewService(store)

	summary, err := svc.IngestRecipesCSV(context.Background(), strings.NewReader(csvData), "recipes.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.RecipesInserted)
	assert.Equal(t, 6, summary.IngredientsInserted)
	assert.Equal(t, 2, summary.CuisinesInserted)
	assert.Equal(t, 6, summary.MappingsCreated)
	assert.Empty(t, summary.Errors)

	cuisines, err := store.ListCuisines(context.Background())
	require.NoError(t, err)
	require.Len(t, cuisines, 2)

	italian, err := store.GetCuisineByName(context.Background(), "italian")
	require.NoError(t, err)
	require.NotNil(t, italian)

	recipes, err := store.ListRecipesByCuisine(context.Background(), italian.ID)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Caprese Salad", recipes[0].Name)

	ings, err := store.RecipeIngredients(context.Background(), recipes[0].ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tomato", "basil", "mozzarella"}, ings)
}

func TestIngestRecipesCSVCommaSeparated(t *testing.T) {
	// 食材欄沒有 | 時退回逗號分隔，欄位要加引號
	csvData := `name,region,ingredient list
Fried Rice,Chinese,"rice, egg, scallion"
`
	store := storage.NewMemoryStore()
	svc := NewService(store)

	summary, err := svc.IngestRecipesCSV(context.Background(), strings.NewReader(csvData), "recipes.csv")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RecipesInserted)
	assert.Equal(t, 3, summary.IngredientsInserted)

	chinese, err := store.GetCuisineByName(context.Background(), "chinese")
	require.NoError(t, err)
	require.NotNil(t, chinese)

	recipes, err := store.ListRecipesByCuisine(context.Background(), chinese.ID)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
}

func TestIngestRecipesCSVMissingColumns(t *testing.T) {
	csvData := `title,stuff
Some Dish,whatever
`
	svc := NewService(storage.NewMemoryStore())
	_, err := svc.IngestRecipesCSV(context.Background(), strings.NewReader(csvData), "bad.csv")
	require.Error(t, err)

	var custom *common.CustomError
	require.True(t, errors.As(err, &custom))
	assert.Equal(t, common.ErrCodeInvalidRequest, custom.Code)
}

func TestIngestRecipesCSVRowErrorsCollected(t *testing.T) {
	csvData := `recipe_name,cuisine,ingredients
Good Dish,Italian,tomato|basil
Bad Dish,,tomato
,Italian,basil
`
	store := storage.NewMemoryStore()
	svc := NewService(store)

	summary, err := svc.IngestRecipesCSV(context.Background(), strings.NewReader(csvData), "recipes.csv")
	require.NoError(t, err)

	// 缺菜系列進 Errors，缺名稱列直接跳過
	assert.Equal(t, 1, summary.RecipesInserted)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "missing cuisine")
}

func TestIngestRecipesJSON(t *testing.T) {
	jsonData := []byte(`[
		{"name": "Caprese Salad", "cuisine": "Italian", "ingredients": ["tomato", "basil"]},
		{"recipe_name": "Dal Tadka", "cuisine_name": "Indian", "ingredients": [{"name": "dal"}, {"name": "cumin"}]},
		{"cuisine": "Thai", "ingredients": ["lemongrass"]}
	]`)

	store := storage.NewMemoryStore()
	svc := NewService(store)

	summary, err := svc.IngestRecipesJSON(context.Background(), jsonData, "recipes.json")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.RecipesInserted)
	assert.Equal(t, 4, summary.IngredientsInserted)
	assert.Equal(t, 2, summary.CuisinesInserted)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "record 2")

	indian, err := store.GetCuisineByName(context.Background(), "indian")
	require.NoError(t, err)
	require.NotNil(t, indian)

	recipes, err := store.ListRecipesByCuisine(context.Background(), indian.ID)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Dal Tadka", recipes[0].Name)
}

func TestIngestRecipesJSONSingleObject(t *testing.T) {
	jsonData := []byte(`{"name": "Pho", "cuisine": "Vietnamese", "ingredients": ["rice noodle", "beef"]}`)

	svc := NewService(storage.NewMemoryStore())
	summary, err := svc.IngestRecipesJSON(context.Background(), jsonData, "recipe.json")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RecipesInserted)
	assert.Equal(t, 2, summary.IngredientsInserted)
}

func TestIngestRecipesJSONInvalid(t *testing.T) {
	svc := NewService(storage.NewMemoryStore())
	_, err := svc.IngestRecipesJSON(context.Background(), []byte(`not json`), "recipe.json")
	require.Error(t, err)

	var custom *common.CustomError
	require.True(t, errors.As(err, &custom))
	assert.Equal(t, common.ErrCodeInvalidRequest, custom.Code)
}

func TestIngestMoleculesCSV(t *testing.T) {
	csvData := `ingredient,molecule,category,intensity
tomato,glutamate,umami,0.8
basil,linalool,herbal,
garlic,allicin,pungent,not-a-number
`
	store := storage.NewMemoryStore()
	svc := NewService(store)

	summary, err := svc.IngestMoleculesCSV(context.Background(), strings.NewReader(csvData), "molecules.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.MoleculesInserted)
	assert.Equal(t, 2, summary.MappingsCreated)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "bad intensity")

	profile, err := store.MoleculeProfile(context.Background(), "tomato")
	require.NoError(t, err)
	require.Len(t, profile, 1)
	assert.Equal(t, 0.8, profile["glutamate"])

	// intensity 欄空白時預設 1.0
	profile, err = store.MoleculeProfile(context.Background(), "basil")
	require.NoError(t, err)
	require.Len(t, profile, 1)
	assert.Equal(t, 1.0, profile["linalool"])
}

func TestIngestMoleculesCSVMissingColumns(t *testing.T) {
	csvData := `foo,bar
a,b
`
	svc := NewService(storage.NewMemoryStore())
	_, err := svc.IngestMoleculesCSV(context.Background(), strings.NewReader(csvData), "bad.csv")
	require.Error(t, err)

	var custom *common.CustomError
	require.True(t, errors.As(err, &custom))
	assert.Equal(t, common.ErrCodeInvalidRequest, custom.Code)
}
