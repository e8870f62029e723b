package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteStore 以 SQLite 實作 Store 介面
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite 開啟 SQLite 資料庫並啟用 WAL 模式
func OpenSQLite(ctx context.Context, path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// 啟用 WAL 以提升並發讀取
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// 啟用外鍵
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// 初始化 schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close 關閉資料庫連線
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// Ping 就緒檢查用
func (s *sqliteStore) Ping() error {
	return s.db.Ping()
}

// initSchema 建表（若不存在）
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS cuisines (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	region TEXT,
	description TEXT,
	created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS recipes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	cuisine_id INTEGER NOT NULL,
	instructions TEXT,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	FOREIGN KEY(cuisine_id) REFERENCES cuisines(id)
);

CREATE TABLE IF NOT EXISTS ingredients (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	category TEXT
);

CREATE TABLE IF NOT EXISTS recipe_ingredients (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recipe_id INTEGER NOT NULL,
	ingredient_id INTEGER NOT NULL,
	quantity TEXT,
	FOREIGN KEY(recipe_id) REFERENCES recipes(id) ON DELETE CASCADE,
	FOREIGN KEY(ingredient_id) REFERENCES ingredients(id)
);

CREATE TABLE IF NOT EXISTS flavor_molecules (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	category TEXT
);

CREATE TABLE IF NOT EXISTS ingredient_molecules (
	ingredient_id INTEGER NOT NULL,
	molecule_id INTEGER NOT NULL,
	intensity_score REAL NOT NULL DEFAULT 1.0,
	PRIMARY KEY(ingredient_id, molecule_id),
	FOREIGN KEY(ingredient_id) REFERENCES ingredients(id),
	FOREIGN KEY(molecule_id) REFERENCES flavor_molecules(id)
);

CREATE TABLE IF NOT EXISTS cuisine_embeddings (
	cuisine_id INTEGER PRIMARY KEY,
	ingredient_frequency TEXT,
	molecule_distribution TEXT,
	centrality_scores TEXT,
	embedding_vector TEXT,
	pca_2d TEXT,
	updated_at TEXT NOT NULL,
	FOREIGN KEY(cuisine_id) REFERENCES cuisines(id)
);

CREATE TABLE IF NOT EXISTS adaptation_results (
	id TEXT PRIMARY KEY,
	recipe_id INTEGER NOT NULL,
	source_cuisine TEXT NOT NULL,
	target_cuisine TEXT NOT NULL,
	intensity REAL NOT NULL,
	identity_score REAL,
	compatibility_score REAL,
	adaptation_distance REAL,
	flavor_coherence REAL,
	original_ingredients TEXT,
	adapted_ingredients TEXT,
	substitutions TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY(recipe_id) REFERENCES recipes(id)
);

CREATE INDEX IF NOT EXISTS idx_recipes_cuisine ON recipes(cuisine_id);
CREATE INDEX IF NOT EXISTS idx_recipe_ingredients_recipe ON recipe_ingredients(recipe_id);
CREATE INDEX IF NOT EXISTS idx_adaptations_recipe ON adaptation_results(recipe_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteStore) GetCuisineByName(ctx context.Context, name string) (*Cuisine, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(region,''), COALESCE(description,''), created_at FROM cuisines WHERE name = ?`, name)

	var c Cuisine
	var created string
	if err := row.Scan(&c.ID, &c.Name, &c.Region, &c.Description, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.CreatedAt = parseTime(created)
	return &c, nil
}

func (s *sqliteStore) ListCuisines(ctx context.Context) ([]Cuisine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(region,''), COALESCE(description,''), created_at FROM cuisines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Cuisine
	for rows.Next() {
		var c Cuisine
		var created string
		if err := rows.Scan(&c.ID, &c.Name, &c.Region, &c.Description, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqliteStore) GetRecipeByID(ctx context.Context, id int64) (*Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, cuisine_id, COALESCE(instructions,''), created_at FROM recipes WHERE id = ?`, id)

	var r Recipe
	var created string
	if err := row.Scan(&r.ID, &r.Name, &r.CuisineID, &r.Instructions, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.CreatedAt = parseTime(created)
	return &r, nil
}

func (s *sqliteStore) ListRecipesByCuisine(ctx context.Context, cuisineID int64) ([]Recipe, error) {
	return s.queryRecipes(ctx,
		`SELECT id, name, cuisine_id, COALESCE(instructions,''), created_at FROM recipes WHERE cuisine_id = ? ORDER BY id`, cuisineID)
}

func (s *sqliteStore) ListRecipes(ctx context.Context) ([]Recipe, error) {
	return s.queryRecipes(ctx,
		`SELECT id, name, cuisine_id, COALESCE(instructions,''), created_at FROM recipes ORDER BY id`)
}

func (s *sqliteStore) queryRecipes(ctx context.Context, query string, args ...interface{}) ([]Recipe, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Recipe
	for rows.Next() {
		var r Recipe
		var created string
		if err := rows.Scan(&r.ID, &r.Name, &r.CuisineID, &r.Instructions, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTime(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecipeIngredients 依插入順序回傳食材名稱，允許重複
func (s *sqliteStore) RecipeIngredients(ctx context.Context, recipeID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.name FROM recipe_ingredients ri
		 JOIN ingredients i ON i.id = ri.ingredient_id
		 WHERE ri.recipe_id = ? ORDER BY ri.id`, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *sqliteStore) MoleculeProfile(ctx context.Context, ingredientName string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.name, im.intensity_score FROM ingredient_molecules im
		 JOIN flavor_molecules m ON m.id = im.molecule_id
		 JOIN ingredients i ON i.id = im.ingredient_id
		 WHERE i.name = ?`, ingredientName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profile := make(map[string]float64)
	for rows.Next() {
		var name string
		var intensity float64
		if err := rows.Scan(&name, &intensity); err != nil {
			return nil, err
		}
		profile[name] = intensity
	}
	return profile, rows.Err()
}

func (s *sqliteStore) ListIngredientNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM ingredients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *sqliteStore) LoadEmbedding(ctx context.Context, cuisineID int64) (*CuisineEmbedding, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cuisine_id, ingredient_frequency, molecule_distribution, centrality_scores,
		        embedding_vector, pca_2d, updated_at
		 FROM cuisine_embeddings WHERE cuisine_id = ?`, cuisineID)

	var emb CuisineEmbedding
	var freq, mol, cent, vec, pca, updated string
	if err := row.Scan(&emb.CuisineID, &freq, &mol, &cent, &vec, &pca, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := unmarshalJSON(freq, &emb.IngredientFrequency); err != nil {
		return nil, fmt.Errorf("corrupt ingredient_frequency for cuisine %d: %w", cuisineID, err)
	}
	if err := unmarshalJSON(mol, &emb.MoleculeDistribution); err != nil {
		return nil, fmt.Errorf("corrupt molecule_distribution for cuisine %d: %w", cuisineID, err)
	}
	if err := unmarshalJSON(cent, &emb.CentralityScores); err != nil {
		return nil, fmt.Errorf("corrupt centrality_scores for cuisine %d: %w", cuisineID, err)
	}
	if err := unmarshalJSON(vec, &emb.EmbeddingVector); err != nil {
		return nil, fmt.Errorf("corrupt embedding_vector for cuisine %d: %w", cuisineID, err)
	}
	if err := unmarshalJSON(pca, &emb.PCA2D); err != nil {
		return nil, fmt.Errorf("corrupt pca_2d for cuisine %d: %w", cuisineID, err)
	}
	emb.UpdatedAt = parseTime(updated)
	return &emb, nil
}

// SaveEmbedding upsert 語義，整筆覆寫
func (s *sqliteStore) SaveEmbedding(ctx context.Context, emb *CuisineEmbedding) error {
	freq, err := json.Marshal(emb.IngredientFrequency)
	if err != nil {
		return err
	}
	mol, err := json.Marshal(emb.MoleculeDistribution)
	if err != nil {
		return err
	}
	cent, err := json.Marshal(emb.CentralityScores)
	if err != nil {
		return err
	}
	vec, err := json.Marshal(emb.EmbeddingVector)
	if err != nil {
		return err
	}
	pca, err := json.Marshal(emb.PCA2D)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cuisine_embeddings
		 (cuisine_id, ingredient_frequency, molecule_distribution, centrality_scores, embedding_vector, pca_2d, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cuisine_id) DO UPDATE SET
		   ingredient_frequency = excluded.ingredient_frequency,
		   molecule_distribution = excluded.molecule_distribution,
		   centrality_scores = excluded.centrality_scores,
		   embedding_vector = excluded.embedding_vector,
		   pca_2d = excluded.pca_2d,
		   updated_at = excluded.updated_at`,
		emb.CuisineID, string(freq), string(mol), string(cent), string(vec), string(pca),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *sqliteStore) AppendAdaptation(ctx context.Context, rec *AdaptationRecord) error {
	orig, err := json.Marshal(rec.OriginalIngredients)
	if err != nil {
		return err
	}
	adapted, err := json.Marshal(rec.AdaptedIngredients)
	if err != nil {
		return err
	}
	subs, err := json.Marshal(rec.Substitutions)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO adaptation_results
		 (id, recipe_id, source_cuisine, target_cuisine, intensity,
		  identity_score, compatibility_score, adaptation_distance, flavor_coherence,
		  original_ingredients, adapted_ingredients, substitutions, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RecipeID, rec.SourceCuisine, rec.TargetCuisine, rec.Intensity,
		rec.IdentityScore, rec.CompatibilityScore, rec.AdaptationDistance, rec.FlavorCoherence,
		string(orig), string(adapted), string(subs),
		rec.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *sqliteStore) ListAdaptationsByRecipe(ctx context.Context, recipeID int64) ([]AdaptationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipe_id, source_cuisine, target_cuisine, intensity,
		        identity_score, compatibility_score, adaptation_distance, flavor_coherence,
		        original_ingredients, adapted_ingredients, substitutions, created_at
		 FROM adaptation_results WHERE recipe_id = ? ORDER BY created_at DESC`, recipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AdaptationRecord
	for rows.Next() {
		var rec AdaptationRecord
		var orig, adapted, subs, created string
		if err := rows.Scan(&rec.ID, &rec.RecipeID, &rec.SourceCuisine, &rec.TargetCuisine, &rec.Intensity,
			&rec.IdentityScore, &rec.CompatibilityScore, &rec.AdaptationDistance, &rec.FlavorCoherence,
			&orig, &adapted, &subs, &created); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(orig, &rec.OriginalIngredients); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(adapted, &rec.AdaptedIngredients); err != nil {
			return nil, err
		}
		if err := unmarshalJSON(subs, &rec.Substitutions); err != nil {
			return nil, err
		}
		rec.CreatedAt = parseTime(created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqliteStore) UpsertCuisine(ctx context.Context, name string) (int64, error) {
	return s.upsertNamed(ctx, "cuisines", name)
}

func (s *sqliteStore) UpsertIngredient(ctx context.Context, name string) (int64, error) {
	return s.upsertNamed(ctx, "ingredients", name)
}

// upsertNamed 以名稱為唯一鍵的 get-or-create
func (s *sqliteStore) upsertNamed(ctx context.Context, table, name string) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE name = ?`, name)
	var id int64
	err := row.Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO `+table+` (name) VALUES (?)`, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) InsertRecipe(ctx context.Context, name string, cuisineID int64, instructions string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recipes (name, cuisine_id, instructions) VALUES (?, ?, ?)`, name, cuisineID, instructions)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) AddRecipeIngredient(ctx context.Context, recipeID, ingredientID int64, quantity string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity) VALUES (?, ?, ?)`,
		recipeID, ingredientID, quantity)
	return err
}

func (s *sqliteStore) UpsertMolecule(ctx context.Context, name, category string) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id FROM flavor_molecules WHERE name = ?`, name)
	var id int64
	err := row.Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO flavor_molecules (name, category) VALUES (?, NULLIF(?, ''))`, name, category)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LinkIngredientMolecule 已存在的配對保留原 intensity（先到先贏）
func (s *sqliteStore) LinkIngredientMolecule(ctx context.Context, ingredientID, moleculeID int64, intensity float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingredient_molecules (ingredient_id, molecule_id, intensity_score)
		 VALUES (?, ?, ?) ON CONFLICT(ingredient_id, molecule_id) DO NOTHING`,
		ingredientID, moleculeID, intensity)
	return err
}

func unmarshalJSON(data string, v interface{}) error {
	if data == "" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	// sqlite datetime('now') 格式
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
