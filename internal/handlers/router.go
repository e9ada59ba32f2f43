package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"hazard-service/internal/middleware"
	"hazard-service/internal/models"
	"hazard-service/internal/services"
	"hazard-service/internal/store"
)

// RouterConfig carries everything the HTTP surface depends on
type RouterConfig struct {
	Environment   string
	CORSOrigins   []string
	Logger        *logrus.Logger
	Store         store.Store
	Tokens        *middleware.TokenManager
	AuthLimiter   *middleware.RateLimiter
	Users         *services.UserService
	Groups        *services.GroupService
	Hazards       *services.HazardService
	Notifications *services.NotificationService
	Dispatcher    services.Dispatcher
	Permissions   *services.PermissionService
	Bus           services.Subscriber
}

// SetupRouter builds the gin engine with every route mounted
func SetupRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.ErrorHandler(cfg.Logger))

	authHandler := NewAuthHandler(cfg.Users, cfg.Permissions, cfg.Tokens)
	hazardHandler := NewHazardHandler(cfg.Hazards)
	userHandler := NewUserHandler(cfg.Users)
	groupHandler := NewGroupHandler(cfg.Groups)
	notificationHandler := NewNotificationHandler(cfg.Notifications, cfg.Dispatcher, cfg.Permissions, cfg.Bus)

	// Health check endpoints (no auth required)
	router.GET("/health", HealthCheck)
	router.GET("/ready", ReadinessCheck(cfg.Store))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")

	publicAuth := v1.Group("/auth")
	publicAuth.Use(middleware.RateLimit(cfg.AuthLimiter))
	{
		publicAuth.POST("/login", authHandler.Login)
		publicAuth.POST("/register", authHandler.Register)
	}

	api := v1.Group("")
	api.Use(middleware.AuthMiddleware(cfg.Tokens, cfg.Users))

	api.GET("/auth/me", authHandler.Me)

	hazards := api.Group("/hazards")
	{
		hazards.GET("", hazardHandler.ListHazards)
		hazards.POST("", hazardHandler.ReportHazard)
		hazards.GET("/:id", hazardHandler.GetHazard)
		hazards.PUT("/:id", hazardHandler.UpdateHazard)
		hazards.DELETE("/:id", hazardHandler.DeleteHazard)
		hazards.POST("/:id/send-to-approval", middleware.RequireRole(models.RoleAdmin), hazardHandler.SendToApproval)
		hazards.POST("/:id/decide", hazardHandler.Decide)
		hazards.POST("/:id/assign", hazardHandler.Assign)
		hazards.POST("/:id/status", hazardHandler.TransitionStatus)
	}

	adminOnly := middleware.RequireRole(models.RoleAdmin)

	users := api.Group("/users")
	{
		// Approvers pick assignees from the user list
		users.GET("", middleware.RequireCapability(cfg.Permissions, models.SectionUsers, models.RoleSafetyManager, models.RoleSupervisor), userHandler.ListUsers)
		users.GET("/:id", middleware.RequireCapability(cfg.Permissions, models.SectionUsers, models.RoleSafetyManager, models.RoleSupervisor), userHandler.GetUser)
		users.POST("", adminOnly, userHandler.CreateUser)
		users.PUT("/:id", adminOnly, userHandler.UpdateUser)
		users.DELETE("/:id", adminOnly, userHandler.DeleteUser)
		users.POST("/:id/approve", adminOnly, userHandler.ApproveUser)
	}

	groups := api.Group("/groups")
	{
		groups.GET("", groupHandler.ListGroups)
		groups.GET("/:id", groupHandler.GetGroup)
		groups.POST("", adminOnly, groupHandler.CreateGroup)
		groups.PUT("/:id", adminOnly, groupHandler.UpdateGroup)
		groups.DELETE("/:id", adminOnly, groupHandler.DeleteGroup)
		groups.POST("/:id/members", adminOnly, groupHandler.AddMember)
		groups.DELETE("/:id/members/:userId", adminOnly, groupHandler.RemoveMember)
		groups.PUT("/:id/permissions", adminOnly, groupHandler.ChangePermissions)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationHandler.ListNotifications)
		notifications.DELETE("", adminOnly, notificationHandler.ClearNotifications)
		notifications.GET("/table", notificationHandler.EventTable)
		notifications.GET("/stream", notificationHandler.Stream)
		notifications.POST("/events", notificationHandler.PublishEvent)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	return router
}
