package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/dongnetalk-backend/config"
	"github.com/ikkim/dongnetalk-backend/internal/app/controller"
	"github.com/ikkim/dongnetalk-backend/internal/middleware"
)

type Router struct {
	authController    *controller.AuthController
	messageController *controller.MessageController
	adminController   *controller.AdminController
	authMiddleware    *middleware.AuthMiddleware
	config            *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	messageController *controller.MessageController,
	adminController *controller.AdminController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:    authController,
		messageController: messageController,
		adminController:   adminController,
		authMiddleware:    authMiddleware,
		config:            cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "DONGNETALK API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.GET("/verify-email", r.authController.VerifyEmail)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
			auth.POST("/forgot-password", r.authController.ForgotPassword)
			auth.GET("/reset-password", r.authController.ShowResetPassword)
			auth.POST("/reset-password", r.authController.ResetPassword)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateMe)
		}

		messages := v1.Group("/messages")
		messages.Use(r.authMiddleware.Authenticate())
		{
			messages.POST("", r.messageController.Send)
			messages.GET("", r.messageController.Inbox)
			messages.GET("/sent", r.messageController.Sent)
			messages.GET("/unread-count", r.messageController.UnreadCount)
			messages.PUT("/:id/read", r.messageController.MarkRead)
			messages.DELETE("/:id", r.messageController.Delete)
		}

		v1.GET("/ws", r.authMiddleware.Authenticate(), r.messageController.WebSocketHandler)

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			admin.GET("/users", r.adminController.ListUsers)
			admin.DELETE("/users/:id", r.adminController.DeleteUser)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		// 세션 쿠키 기반 인증이므로 credentials 허용이 필수
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
