package cuisine

import (
	"net/http"
	"strconv"

	"cuisine-adapter/internal/api/handlers"
	"cuisine-adapter/internal/core/adaptation"
	"cuisine-adapter/internal/core/cache"
	"cuisine-adapter/internal/core/identity"
	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 菜系與食譜查詢處理器
type Handler struct {
	store      storage.Store
	identity   *identity.Service
	adaptation *adaptation.Service
	cache      *cache.Service
}

// NewHandler 創建菜系處理器
func NewHandler(store storage.Store, identitySvc *identity.Service, adaptationSvc *adaptation.Service, cacheSvc *cache.Service) *Handler {
	return &Handler{
		store:      store,
		identity:   identitySvc,
		adaptation: adaptationSvc,
		cache:      cacheSvc,
	}
}

// ListCuisines GET /api/v1/cuisines
func (h *Handler) ListCuisines(c *gin.Context) {
	cuisines, err := h.store.ListCuisines(c.Request.Context())
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cuisines": cuisines,
		"count":    len(cuisines),
	})
}

// Identity GET /api/v1/cuisines/:name/identity
// 先查 Redis 快取，miss 才重算並回填。
func (h *Handler) Identity(c *gin.Context) {
	name := c.Param("name")

	if cached, err := h.cache.GetProfile(c.Request.Context(), name); err != nil {
		common.LogWarn("讀取身分快取失敗，改為重算", zap.Error(err))
	} else if cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	profile, err := h.identity.ComputeCuisineIdentity(c.Request.Context(), name)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	if err := h.cache.SetProfile(c.Request.Context(), name, profile); err != nil {
		common.LogWarn("寫入身分快取失敗", zap.Error(err))
	}
	c.JSON(http.StatusOK, profile)
}

// ComputeAll POST /api/v1/cuisines/compute-all
func (h *Handler) ComputeAll(c *gin.Context) {
	summary, err := h.identity.ComputeAllCuisineIdentities(c.Request.Context())
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// IngredientRisk GET /api/v1/cuisines/:name/ingredient-risk
func (h *Handler) IngredientRisk(c *gin.Context) {
	risks, err := h.adaptation.IngredientRisks(c.Request.Context(), c.Param("name"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cuisine":     common.NormalizeName(c.Param("name")),
		"ingredients": risks,
	})
}

// ListRecipes GET /api/v1/recipes
func (h *Handler) ListRecipes(c *gin.Context) {
	recipes, err := h.store.ListRecipes(c.Request.Context())
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recipes": recipes,
		"count":   len(recipes),
	})
}

// GetRecipe GET /api/v1/recipes/:id
func (h *Handler) GetRecipe(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		handlers.BadRequest(c, "recipe id must be an integer")
		return
	}

	recipe, err := h.store.GetRecipeByID(c.Request.Context(), id)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	if recipe == nil {
		handlers.Error(c, common.ErrRecipeNotFound.WithDetail(c.Param("id")))
		return
	}

	ingredients, err := h.store.RecipeIngredients(c.Request.Context(), id)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe":      recipe,
		"ingredients": ingredients,
	})
}
