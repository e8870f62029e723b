package storage

import (
	"context"
	"sync"
	"time"
)

// memoryStore 純記憶體實作，測試與零依賴開發用
type memoryStore struct {
	mu sync.RWMutex

	cuisines    map[int64]*Cuisine
	recipes     map[int64]*Recipe
	ingredients map[int64]string // id -> name
	molecules   map[int64]string

	recipeIngredients map[int64][]recipeIngredient // recipe_id -> 依插入順序
	moleculeLinks     map[int64]map[int64]float64  // ingredient_id -> molecule_id -> intensity
	embeddings        map[int64]*CuisineEmbedding
	adaptations       []AdaptationRecord

	nextID int64
}

type recipeIngredient struct {
	ingredientID int64
	quantity     string
}

// NewMemoryStore 建立空的記憶體 Store
func NewMemoryStore() Store {
	return &memoryStore{
		cuisines:          make(map[int64]*Cuisine),
		recipes:           make(map[int64]*Recipe),
		ingredients:       make(map[int64]string),
		molecules:         make(map[int64]string),
		recipeIngredients: make(map[int64][]recipeIngredient),
		moleculeLinks:     make(map[int64]map[int64]float64),
		embeddings:        make(map[int64]*CuisineEmbedding),
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) nextSeq() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) GetCuisineByName(_ context.Context, name string) (*Cuisine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.cuisines {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) ListCuisines(_ context.Context) ([]Cuisine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Cuisine, 0, len(m.cuisines))
	for _, c := range m.cuisines {
		out = append(out, *c)
	}
	// 穩定輸出順序
	sortCuisines(out)
	return out, nil
}

func sortCuisines(cs []Cuisine) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].Name < cs[j-1].Name; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

func (m *memoryStore) GetRecipeByID(_ context.Context, id int64) (*Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recipes[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memoryStore) ListRecipesByCuisine(_ context.Context, cuisineID int64) ([]Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Recipe
	for id := int64(1); id <= m.nextID; id++ {
		if r, ok := m.recipes[id]; ok && r.CuisineID == cuisineID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryStore) ListRecipes(_ context.Context) ([]Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Recipe
	for id := int64(1); id <= m.nextID; id++ {
		if r, ok := m.recipes[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryStore) RecipeIngredients(_ context.Context, recipeID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.recipeIngredients[recipeID]
	out := make([]string, 0, len(items))
	for _, ri := range items {
		out = append(out, m.ingredients[ri.ingredientID])
	}
	return out, nil
}

func (m *memoryStore) MoleculeProfile(_ context.Context, ingredientName string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ingID int64 = -1
	for id, name := range m.ingredients {
		if name == ingredientName {
			ingID = id
			break
		}
	}
	profile := make(map[string]float64)
	if ingID < 0 {
		return profile, nil
	}
	for molID, intensity := range m.moleculeLinks[ingID] {
		profile[m.molecules[molID]] = intensity
	}
	return profile, nil
}

func (m *memoryStore) ListIngredientNames(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for id := int64(1); id <= m.nextID; id++ {
		if name, ok := m.ingredients[id]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func (m *memoryStore) LoadEmbedding(_ context.Context, cuisineID int64) (*CuisineEmbedding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emb, ok := m.embeddings[cuisineID]
	if !ok {
		return nil, nil
	}
	cp := *emb
	return &cp, nil
}

func (m *memoryStore) SaveEmbedding(_ context.Context, emb *CuisineEmbedding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *emb
	cp.UpdatedAt = time.Now().UTC()
	m.embeddings[emb.CuisineID] = &cp
	return nil
}

func (m *memoryStore) AppendAdaptation(_ context.Context, rec *AdaptationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adaptations = append(m.adaptations, *rec)
	return nil
}

func (m *memoryStore) ListAdaptationsByRecipe(_ context.Context, recipeID int64) ([]AdaptationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []AdaptationRecord
	for i := len(m.adaptations) - 1; i >= 0; i-- {
		if m.adaptations[i].RecipeID == recipeID {
			out = append(out, m.adaptations[i])
		}
	}
	return out, nil
}

func (m *memoryStore) UpsertCuisine(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cuisines {
		if c.Name == name {
			return c.ID, nil
		}
	}
	id := m.nextSeq()
	m.cuisines[id] = &Cuisine{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	return id, nil
}

func (m *memoryStore) UpsertIngredient(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, n := range m.ingredients {
		if n == name {
			return id, nil
		}
	}
	id := m.nextSeq()
	m.ingredients[id] = name
	return id, nil
}

func (m *memoryStore) InsertRecipe(_ context.Context, name string, cuisineID int64, instructions string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSeq()
	m.recipes[id] = &Recipe{ID: id, Name: name, CuisineID: cuisineID, Instructions: instructions, CreatedAt: time.Now().UTC()}
	return id, nil
}

func (m *memoryStore) AddRecipeIngredient(_ context.Context, recipeID, ingredientID int64, quantity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipeIngredients[recipeID] = append(m.recipeIngredients[recipeID], recipeIngredient{ingredientID, quantity})
	return nil
}

func (m *memoryStore) UpsertMolecule(_ context.Context, name, _ string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, n := range m.molecules {
		if n == name {
			return id, nil
		}
	}
	id := m.nextSeq()
	m.molecules[id] = name
	return id, nil
}

func (m *memoryStore) LinkIngredientMolecule(_ context.Context, ingredientID, moleculeID int64, intensity float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	links, ok := m.moleculeLinks[ingredientID]
	if !ok {
		links = make(map[int64]float64)
		m.moleculeLinks[ingredientID] = links
	}
	// 先到先贏，與 SQLite 實作一致
	if _, exists := links[moleculeID]; !exists {
		links[moleculeID] = intensity
	}
	return nil
}
