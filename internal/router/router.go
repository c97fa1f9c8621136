package router

import (
	"bidexpert/internal/database"
	"bidexpert/internal/handlers"
	"bidexpert/internal/middleware"
	"bidexpert/internal/services"
	"bidexpert/pkg/config"
	"bidexpert/pkg/logger"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {
	db := database.GetDB()
	auth := middleware.NewAuthMiddleware(db)

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// JWT认证路由（无需认证）
		authHandler := handlers.NewAuthHandler(services.NewUserService(db))
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.RefreshToken)
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}

		// 租户管理（仅平台管理员）
		tenantHandler := handlers.NewTenantHandler(services.NewTenantService(db))
		tenants := api.Group("/tenants", auth.RequireLogin(), auth.RequirePlatformAdmin())
		{
			tenants.POST("", tenantHandler.Create)
			tenants.GET("", tenantHandler.List)
			tenants.PUT("/:id/status", tenantHandler.UpdateStatus)
		}

		// 拍卖会
		auctionHandler := handlers.NewAuctionHandler(services.NewAuctionService(db))
		auctions := api.Group("/auctions", auth.RequireLogin())
		{
			auctions.POST("", auctionHandler.Create)
			auctions.GET("", auctionHandler.List)
			auctions.GET("/:id", auctionHandler.Get)
			auctions.PUT("/:id", auctionHandler.Update)
			auctions.PUT("/:id/status", auctionHandler.UpdateStatus)
			auctions.DELETE("/:id", auctionHandler.Delete)
		}

		// 标的（含资产挂接）
		lotHandler := handlers.NewLotHandler(services.NewLotService(db), services.NewLinkingService(db))
		lots := api.Group("/lots", auth.RequireLogin())
		{
			lots.POST("", lotHandler.Create)
			lots.GET("", lotHandler.List)
			lots.GET("/:id", lotHandler.Get)
			lots.PUT("/:id", lotHandler.Update)
			lots.PUT("/:id/status", lotHandler.UpdateStatus)
			lots.DELETE("/:id", lotHandler.Delete)
			lots.POST("/:id/assets/:assetId", lotHandler.LinkAsset)
			lots.DELETE("/:id/assets/:assetId", lotHandler.UnlinkAsset)
		}

		// 资产
		assetHandler := handlers.NewAssetHandler(services.NewAssetService(db))
		assets := api.Group("/assets", auth.RequireLogin())
		{
			assets.POST("", assetHandler.Create)
			assets.GET("", assetHandler.List)
			assets.GET("/:id", assetHandler.Get)
			assets.PUT("/:id", assetHandler.Update)
			assets.PUT("/:id/status", assetHandler.UpdateStatus)
			assets.DELETE("/:id", assetHandler.Delete)
		}

		// 对账
		cfg := config.GetConfig()
		reconService := services.NewReconciliationService(db, logger.GetLogger(), cfg.Reconciler.MaxPasses)
		reconHandler := handlers.NewReconciliationHandler(reconService, services.NewConsistencyValidator(db))
		reconciliation := api.Group("/reconciliation", auth.RequireLogin())
		{
			reconciliation.POST("/scan", reconHandler.Scan)
			reconciliation.GET("/validate", reconHandler.Validate)
			reconciliation.GET("/runs", reconHandler.ListRuns)
			reconciliation.GET("/runs/:runId", reconHandler.GetRun)
		}
	}
}

// healthCheck 健康检查
func healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// ping 连通性测试
func ping(c *gin.Context) {
	c.JSON(200, gin.H{"message": "pong"})
}
