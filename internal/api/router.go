package api

import (
	"context"
	"net/http"
	"time"

	collectionHandler "recipe-manager/internal/api/handlers/collection"
	"recipe-manager/internal/api/handlers/health"
	"recipe-manager/internal/api/middleware"
	"recipe-manager/internal/core/cache"
	"recipe-manager/internal/core/recipeapi"
	"recipe-manager/internal/core/session"
	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultMaxBodySize = 1 << 20

// SetupRouter 設置路由；store 可為 nil（未啟用快取）
func SetupRouter(cfg *config.Config, sessions *session.Registry, store cache.Store) *gin.Engine {
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
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: !allowsAnyOrigin(cfg.CORS.AllowOrigins),
		MaxAge:           12 * time.Hour,
	}))

	maxBodySize := cfg.Server.MaxBodyBytes
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	// 全局中間件：設置超時和依賴
	timeout := cfg.Server.RequestTimeout
	router.Use(func(c *gin.Context) {
		ctx := recipeapi.WithRequestID(c.Request.Context(), requestid.Get(c))
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		c.Request = c.Request.WithContext(ctx)

		c.Set(health.ConfigKey, cfg)
		c.Set(health.SessionsKey, sessions)
		if store != nil {
			c.Set(health.CacheKey, store)
		}

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeGatewayTimeout,
				"details": gin.H{
					"timeout": timeout.String(),
				},
			})
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	h := collectionHandler.NewHandler(sessions)
	dedup := middleware.NewDeduplicator(cfg.DedupWindow)

	api := router.Group("/api/v1")
	{
		api.POST("/sessions", h.Mount)

		s := api.Group("/sessions/:sid")
		{
			s.GET("", h.View)
			s.DELETE("", h.Unmount)
			s.POST("/fetch", h.Fetch)
			s.POST("/search", h.Search)
			s.PUT("/cuisine", h.SelectCuisine)
			s.POST("/modal/open", h.OpenModal)
			s.POST("/modal/close", h.CloseModal)

			// 同一會話在時間窗內重複送出相同內容時直接拒絕
			s.POST("/recipes", dedup.Middleware(), h.Submit)
			s.DELETE("/recipes/:id", h.Delete)
			s.POST("/recipes/:id/edit", h.BeginEdit)
			s.POST("/recipes/:id/favorite", h.ToggleFavorite)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("cache_enabled", store != nil),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", maxBodySize),
		zap.Duration("dedup_window", cfg.DedupWindow),
	)

	return router
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
