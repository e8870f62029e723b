package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	adaptHandler "cuisine-adapter/internal/api/handlers/adapt"
	cuisineHandler "cuisine-adapter/internal/api/handlers/cuisine"
	externalHandler "cuisine-adapter/internal/api/handlers/external"
	"cuisine-adapter/internal/api/handlers/health"
	mlHandler "cuisine-adapter/internal/api/handlers/ml"
	uploadHandler "cuisine-adapter/internal/api/handlers/upload"
	"cuisine-adapter/internal/api/middleware"
	"cuisine-adapter/internal/core/adaptation"
	"cuisine-adapter/internal/core/cache"
	"cuisine-adapter/internal/core/external"
	"cuisine-adapter/internal/core/identity"
	"cuisine-adapter/internal/core/ingest"
	"cuisine-adapter/internal/core/trainer"
	"cuisine-adapter/internal/core/transfer"
	"cuisine-adapter/internal/infrastructure/config"
	"cuisine-adapter/internal/infrastructure/storage"
	"cuisine-adapter/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 60 * time.Second
	// 請求體大小限制 (10MB)，上傳 CSV 也走這個上限
	maxBodySize = 10 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, store storage.Store) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 初始化服務
	cacheSvc, err := cache.NewService(&cfg.Cache)
	if err != nil {
		common.LogError("Failed to initialize cache service", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize cache service: %w", err)
	}

	identitySvc := identity.NewService(store)
	adaptationSvc := adaptation.NewService(store)
	transferSvc := transfer.NewService(store)
	trainerSvc := trainer.NewService(store)
	ingestSvc := ingest.NewService(store)
	proxySvc := external.NewService(cfg.External.Timeout)

	// 嵌入重算後讓衍生快取失效
	identitySvc.OnRecompute(transferSvc.Invalidate)
	identitySvc.OnRecompute(func() {
		cacheSvc.InvalidateAll(context.Background())
	})

	common.LogInfo("Services initialized",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Int("trainer_dimensions", cfg.Trainer.Dimensions),
	)

	// 全局中間件：請求超時與配置注入
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("timeout", timeoutDuration),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeGatewayTimeout,
			})
		}
	})

	// 健康檢查路由
	var pinger health.Pinger
	if p, ok := store.(health.Pinger); ok {
		pinger = p
	}
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck(pinger))
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		cuisines := cuisineHandler.NewHandler(store, identitySvc, adaptationSvc, cacheSvc)
		adapts := adaptHandler.NewHandler(adaptationSvc, transferSvc)
		models := mlHandler.NewHandler(trainerSvc, cfg.Trainer.Dimensions)
		uploads := uploadHandler.NewHandler(ingestSvc)
		externals := externalHandler.NewHandler(proxySvc)

		cuisineGroup := api.Group("/cuisines")
		{
			cuisineGroup.GET("", cuisines.ListCuisines)
			cuisineGroup.POST("/compute-all", cuisines.ComputeAll)
			cuisineGroup.GET("/:name/identity", cuisines.Identity)
			cuisineGroup.GET("/:name/ingredient-risk", cuisines.IngredientRisk)
		}

		api.GET("/recipes", cuisines.ListRecipes)
		api.GET("/recipes/:id", cuisines.GetRecipe)

		api.POST("/adapt", adapts.Adapt)
		api.GET("/adaptations", adapts.History)

		previewGroup := api.Group("/preview")
		{
			previewGroup.GET("/compatibility", adapts.PreviewCompatibility)
			previewGroup.GET("/adaptation-impact", adapts.PreviewImpact)
		}

		api.GET("/transferability", adapts.Transferability)

		mlGroup := api.Group("/ml")
		{
			mlGroup.POST("/train", models.Train)
			mlGroup.GET("/status", models.Status)
			mlGroup.GET("/embedding/:name", models.Embedding)
		}

		uploadGroup := api.Group("/upload")
		{
			uploadGroup.POST("/recipes", uploads.Recipes)
			uploadGroup.POST("/molecules", uploads.Molecules)
		}

		api.Any("/external/*path", externals.Route)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
