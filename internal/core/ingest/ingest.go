package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"go.uber.org/zap"
)

// Summary 匯入結果摘要，單列錯誤不會中斷整批
type Summary struct {
	RecipesInserted     int      `json:"recipes_inserted,omitempty"`
	IngredientsInserted int      `json:"ingredients_inserted,omitempty"`
	CuisinesInserted    int      `json:"cuisines_inserted,omitempty"`
	MoleculesInserted   int      `json:"molecules_inserted,omitempty"`
	MappingsCreated     int      `json:"mappings_created"`
	Errors              []string `json:"errors"`
}

// Service 食譜與分子資料的批次匯入服務
type Service struct {
	store storage.Store
}

// NewService 創建新的匯入服務
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// recipeColumns CSV 欄位偵測結果，-1 表示該欄不存在
type recipeColumns struct {
	recipe       int
	cuisine      int
	ingredients  int
	instructions int
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

// detectRecipeColumns 依欄名關鍵字偵測欄位位置。
// 支援 recipe_name,cuisine,ingredients 與 recipe_name,cuisine,ingredients,instructions 兩種形式。
func detectRecipeColumns(header []string) (recipeColumns, error) {
	cols := recipeColumns{recipe: -1, cuisine: -1, ingredients: -1, instructions: -1}
	for i, h := range header {
		name := normalizeHeader(h)
		switch {
		case strings.Contains(name, "recipe") || strings.Contains(name, "name"):
			if cols.recipe == -1 {
				cols.recipe = i
			}
		case strings.Contains(name, "cuisine") || strings.Contains(name, "region"):
			if cols.cuisine == -1 {
				cols.cuisine = i
			}
		case strings.Contains(name, "ingredient"):
			if cols.ingredients == -1 {
				cols.ingredients = i
			}
		case strings.Contains(name, "instruction") || strings.Contains(name, "step") || strings.Contains(name, "method"):
			if cols.instructions == -1 {
				cols.instructions = i
			}
		}
	}
	if cols.recipe == -1 || cols.cuisine == -1 {
		return cols, common.ErrInvalidRequest.WithDetail(
			fmt.Sprintf("CSV must have recipe/name and cuisine columns, found: %v", header))
	}
	return cols, nil
}

// splitIngredients 先試 | 分隔，沒有才用逗號
func splitIngredients(raw string) []string {
	sep := ","
	if strings.Contains(raw, "|") {
		sep = "|"
	}
	var names []string
	for _, part := range strings.Split(raw, sep) {
		if s := strings.TrimSpace(part); s != "" {
			names = append(names, s)
		}
	}
	return names
}

func fieldAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// IngestRecipesCSV 匯入食譜 CSV。
// 欄位彈性偵測，食材欄支援 | 或 , 分隔，單列失敗收進 Errors 繼續處理。
func (s *Service) IngestRecipesCSV(ctx context.Context, r io.Reader, filename string) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, common.ErrInvalidRequest.WithDetail("cannot read CSV header: " + err.Error())
	}
	cols, err := detectRecipeColumns(header)
	if err != nil {
		return nil, err
	}

	common.LogInfo("開始匯入食譜 CSV",
		zap.String("filename", filename),
		zap.Strings("columns", header),
	)

	summary := &Summary{Errors: []string{}}
	seenCuisines, seenIngredients, err := s.knownNames(ctx)
	if err != nil {
		return nil, err
	}

	for rowIdx := 0; ; rowIdx++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", rowIdx, err))
			continue
		}

		recipeName := fieldAt(record, cols.recipe)
		if recipeName == "" {
			continue
		}
		cuisineName := common.NormalizeName(fieldAt(record, cols.cuisine))
		if cuisineName == "" {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: missing cuisine", rowIdx))
			continue
		}

		if err := s.insertRecipe(ctx, summary, seenCuisines, seenIngredients,
			recipeName, cuisineName,
			splitIngredients(fieldAt(record, cols.ingredients)),
			fieldAt(record, cols.instructions),
		); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", rowIdx, err))
		}
	}

	common.LogInfo("食譜匯入完成",
		zap.Int("recipes", summary.RecipesInserted),
		zap.Int("ingredients", summary.IngredientsInserted),
		zap.Int("cuisines", summary.CuisinesInserted),
		zap.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

// recipeRecord JSON 匯入的單筆食譜
type recipeRecord struct {
	Name         string        `json:"name"`
	RecipeName   string        `json:"recipe_name"`
	Cuisine      string        `json:"cuisine"`
	CuisineName  string        `json:"cuisine_name"`
	Ingredients  []interface{} `json:"ingredients"`
	Instructions string        `json:"instructions"`
}

// IngestRecipesJSON 匯入 JSON 食譜陣列：[{name, cuisine, ingredients: [...], instructions}]。
// 食材可以是字串或 {name, quantity} 物件。
func (s *Service) IngestRecipesJSON(ctx context.Context, data []byte, filename string) (*Summary, error) {
	var records []recipeRecord
	if err := common.ParseJSONBytes(data, &records); err != nil {
		// 允許單一物件形式
		var single recipeRecord
		if err2 := common.ParseJSONBytes(data, &single); err2 != nil {
			return nil, common.ErrInvalidRequest.WithDetail("invalid JSON: " + err.Error())
		}
		records = []recipeRecord{single}
	}

	common.LogInfo("開始匯入食譜 JSON",
		zap.String("filename", filename),
		zap.Int("records", len(records)),
	)

	summary := &Summary{Errors: []string{}}
	seenCuisines, seenIngredients, err := s.knownNames(ctx)
	if err != nil {
		return nil, err
	}

	for idx, rec := range records {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			name = strings.TrimSpace(rec.RecipeName)
		}
		cuisineName := strings.TrimSpace(rec.Cuisine)
		if cuisineName == "" {
			cuisineName = strings.TrimSpace(rec.CuisineName)
		}
		if name == "" || cuisineName == "" {
			summary.Errors = append(summary.Errors, fmt.Sprintf("record %d: missing name or cuisine", idx))
			continue
		}

		var ingredients []string
		for _, raw := range rec.Ingredients {
			switch v := raw.(type) {
			case string:
				if s := strings.TrimSpace(v); s != "" {
					ingredients = append(ingredients, s)
				}
			case map[string]interface{}:
				if n, ok := v["name"].(string); ok && strings.TrimSpace(n) != "" {
					ingredients = append(ingredients, strings.TrimSpace(n))
				}
			}
		}

		if err := s.insertRecipe(ctx, summary, seenCuisines, seenIngredients,
			name, common.NormalizeName(cuisineName), ingredients, rec.Instructions,
		); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("record %d: %v", idx, err))
		}
	}
	return summary, nil
}

// IngestMoleculesCSV 匯入分子 CSV：ingredient,molecule,category,intensity。
// intensity 欄缺漏時預設 1.0；同一 (食材, 分子) 已存在時不覆寫。
func (s *Service) IngestMoleculesCSV(ctx context.Context, r io.Reader, filename string) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, common.ErrInvalidRequest.WithDetail("cannot read CSV header: " + err.Error())
	}

	ingCol, molCol, catCol, intCol := -1, -1, -1, -1
	for i, h := range header {
		name := normalizeHeader(h)
		switch {
		case strings.Contains(name, "ingredient"):
			ingCol = i
		case strings.Contains(name, "molecule") || strings.Contains(name, "compound"):
			molCol = i
		case strings.Contains(name, "category") || strings.Contains(name, "type"):
			catCol = i
		case strings.Contains(name, "intensity") || strings.Contains(name, "score"):
			intCol = i
		}
	}
	if ingCol == -1 || molCol == -1 {
		return nil, common.ErrInvalidRequest.WithDetail(
			fmt.Sprintf("CSV must have ingredient and molecule columns, found: %v", header))
	}

	common.LogInfo("開始匯入分子 CSV",
		zap.String("filename", filename),
		zap.Strings("columns", header),
	)

	summary := &Summary{Errors: []string{}}
	for rowIdx := 0; ; rowIdx++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", rowIdx, err))
			continue
		}

		ingName := fieldAt(record, ingCol)
		molName := fieldAt(record, molCol)
		if ingName == "" || molName == "" {
			continue
		}

		intensity := 1.0
		if raw := fieldAt(record, intCol); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: bad intensity %q", rowIdx, raw))
				continue
			}
			intensity = v
		}

		ingredientID, err := s.store.UpsertIngredient(ctx, common.NormalizeName(ingName))
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", rowIdx, err))
			continue
		}
		moleculeID, err := s.store.UpsertMolecule(ctx, common.NormalizeName(molName), fieldAt(record, catCol))
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", rowIdx, err))
			continue
		}
		summary.MoleculesInserted++

		if err := s.store.LinkIngredientMolecule(ctx, ingredientID, moleculeID, intensity); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: %v", rowIdx, err))
			continue
		}
		summary.MappingsCreated++
	}

	common.LogInfo("分子匯入完成",
		zap.Int("molecules", summary.MoleculesInserted),
		zap.Int("mappings", summary.MappingsCreated),
		zap.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

// knownNames 預載既有菜系與食材名稱，匯入時用來統計新增數量
func (s *Service) knownNames(ctx context.Context) (map[string]bool, map[string]bool, error) {
	cuisines, err := s.store.ListCuisines(ctx)
	if err != nil {
		return nil, nil, err
	}
	seenCuisines := make(map[string]bool, len(cuisines))
	for _, c := range cuisines {
		seenCuisines[c.Name] = true
	}

	ingredients, err := s.store.ListIngredientNames(ctx)
	if err != nil {
		return nil, nil, err
	}
	seenIngredients := make(map[string]bool, len(ingredients))
	for _, name := range ingredients {
		seenIngredients[name] = true
	}
	return seenCuisines, seenIngredients, nil
}

func (s *Service) insertRecipe(
	ctx context.Context,
	summary *Summary,
	seenCuisines, seenIngredients map[string]bool,
	recipeName, cuisineName string,
	ingredients []string,
	instructions string,
) error {
	cuisineID, err := s.store.UpsertCuisine(ctx, cuisineName)
	if err != nil {
		return err
	}
	if !seenCuisines[cuisineName] {
		seenCuisines[cuisineName] = true
		summary.CuisinesInserted++
	}

	recipeID, err := s.store.InsertRecipe(ctx, recipeName, cuisineID, instructions)
	if err != nil {
		return err
	}
	summary.RecipesInserted++

	for _, ing := range ingredients {
		name := common.NormalizeName(ing)
		ingredientID, err := s.store.UpsertIngredient(ctx, name)
		if err != nil {
			return err
		}
		if !seenIngredients[name] {
			seenIngredients[name] = true
			summary.IngredientsInserted++
		}
		if err := s.store.AddRecipeIngredient(ctx, recipeID, ingredientID, ""); err != nil {
			return err
		}
		summary.MappingsCreated++
	}
	return nil
}
