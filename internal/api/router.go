package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/ipl_server/config"
	"github.com/qs3c/ipl_server/internal/api/handler"
	"github.com/qs3c/ipl_server/internal/api/middleware"
	"github.com/qs3c/ipl_server/internal/pkg/metrics"
)

type Router struct {
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	feeHandler          *handler.FeeHandler
	notificationHandler *handler.NotificationHandler
	websocketHandler    *handler.WebSocketHandler
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	feeHandler *handler.FeeHandler,
	notificationHandler *handler.NotificationHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		userHandler:         userHandler,
		feeHandler:          feeHandler,
		notificationHandler: notificationHandler,
		websocketHandler:    websocketHandler,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := engine.Group("/api/v1")
	{
		// WebSocket，token 走 query
		api.GET("/ws", r.websocketHandler.Handle)

		api.POST("/auth/login", r.authHandler.Login)

		// 住户
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.GET("/user/profile", r.userHandler.GetProfile)
			authenticated.GET("/fees", r.feeHandler.ListMine)
			authenticated.GET("/notifications", r.notificationHandler.List)
			authenticated.PUT("/notifications/:id/read", r.notificationHandler.MarkRead)
		}

		// 管理员
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.AdminOnly())
		{
			fees := admin.Group("/fees")
			{
				fees.POST("/generate", r.feeHandler.Generate)
				fees.POST("/regenerate", r.feeHandler.Regenerate)
				fees.POST("/rollback", r.feeHandler.Rollback)
				fees.GET("/history", r.feeHandler.History)
				fees.GET("/audit", r.feeHandler.Audit)
				fees.GET("/audit/:id/snapshot", r.feeHandler.Snapshot)
				fees.GET("", r.feeHandler.ListAll)
				fees.GET("/month/:month", r.feeHandler.ListByMonth)
				fees.GET("/:id/versions", r.feeHandler.Versions)
				fees.PUT("/:id/status", r.feeHandler.UpdateStatus)
			}

			admin.GET("/users", r.userHandler.List)
			admin.POST("/users", r.userHandler.Create)
		}
	}

	return engine
}
