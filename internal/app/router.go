package app

import (
	"edu_admin_backend/docs"
	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/middleware"
	"edu_admin_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 管理接口；开启认证时仅用于识别操作人
	api := router.Group("/api")
	if cfg.Auth.Enabled {
		api.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	}
	registerContentRoutes(api, c)
	registerDeliveryRoutes(api, c)
	registerDirectoryRoutes(api, c)
}

func registerContentRoutes(rg *gin.RouterGroup, c *controllers) {
	definitions := rg.Group("/definitions")
	{
		definitions.POST("", c.definition.CreateDefinition)
		definitions.GET("", c.definition.ListDefinitions)
		definitions.GET("/:id", c.definition.GetDefinition)
		definitions.PUT("/:id", c.definition.UpdateDefinition)

		definitions.POST("/:id/versions", c.version.CreateVersion)
		definitions.GET("/:id/versions", c.version.ListVersions)
		definitions.GET("/:id/versions/current", c.version.CurrentVersion)
		definitions.GET("/:id/versions/:versionId", c.version.GetVersion)
		definitions.POST("/:id/versions/:versionId/publish", c.version.PublishVersion)
		definitions.POST("/:id/versions/:versionId/archive", c.version.ArchiveVersion)
		definitions.POST("/:id/versions/:versionId/questions", c.version.AddQuestion)
		definitions.DELETE("/:id/versions/:versionId/questions/:questionVersionId", c.version.RemoveQuestion)
	}

	rg.GET("/question-versions/:id", c.question.GetQuestionVersion)
	rg.PATCH("/question-versions/:id", c.question.UpdateQuestionContent)
	rg.GET("/questions/:questionId/history", c.question.QuestionHistory)
}

func registerDeliveryRoutes(rg *gin.RouterGroup, c *controllers) {
	deliveries := rg.Group("/deliveries")
	{
		deliveries.POST("", c.delivery.CreateDelivery)
		deliveries.GET("", c.delivery.ListDeliveries)
		deliveries.GET("/:id", c.delivery.GetDelivery)
		deliveries.PATCH("/:id", c.delivery.UpdateDelivery)
		deliveries.DELETE("/:id", c.delivery.DeleteDelivery)
		deliveries.POST("/:id/cancel", c.delivery.CancelDelivery)
		deliveries.POST("/:id/completions", c.delivery.RecordCompletion)
		deliveries.POST("/:id/report", c.delivery.ExportReport)
	}
}

func registerDirectoryRoutes(rg *gin.RouterGroup, c *controllers) {
	directory := rg.Group("/directory")
	{
		directory.PUT("/groups/:id", c.directory.UpsertGroup)
		directory.PUT("/companies/:id", c.directory.UpsertCompany)
		directory.PUT("/users/:id", c.directory.UpsertUser)
	}
}
