// Package server wires services, handlers and middleware into the HTTP router.
package server

import (
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"homesteer/internal/clock"
	"homesteer/internal/handlers"
	"homesteer/internal/middleware"
	"homesteer/internal/services"
)

// Services holds every business service the router needs.
type Services struct {
	Users         services.UserServicer
	Memberships   services.MembershipServicer
	Notifications services.NotificationServicer
	Suspicious    services.SuspiciousServicer
	Audit         services.AuditServicer
	Meals         services.MealServicer
	CostSectors   services.CostSectorServicer
	Shopping      services.ShoppingServicer
	Deposits      services.DepositServicer
	Totals        services.TotalsServicer
}

// NewServices builds the service graph on db, reading time from clk.
func NewServices(db *gorm.DB, clk clock.Clock) *Services {
	suspicious := services.NewSuspiciousService(db, clk)
	notifications := services.NewNotificationService(db)

	return &Services{
		Users:         services.NewUserService(db),
		Memberships:   services.NewMembershipService(db, clk, suspicious),
		Notifications: notifications,
		Suspicious:    suspicious,
		Audit:         services.NewAuditService(db),
		Meals:         services.NewMealService(db, clk, notifications, suspicious),
		CostSectors:   services.NewCostSectorService(db, suspicious),
		Shopping:      services.NewShoppingService(db, clk, suspicious),
		Deposits:      services.NewDepositService(db, clk, suspicious),
		Totals:        services.NewTotalsService(db, clk),
	}
}

// Options configures the router.
type Options struct {
	// Location is the timezone shopping dates are read in.
	Location *time.Location
	// OpsAPIKey guards /internal; empty disables those routes.
	OpsAPIKey string
	// Rollover runs the meal rollover for POST /internal/rollover.
	Rollover handlers.RolloverRunner
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(svc *Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Audit)
	roomHandler := handlers.NewRoomHandler(svc.Memberships, svc.Audit)
	mealHandler := handlers.NewMealHandler(svc.Meals, svc.Audit)
	costHandler := handlers.NewCostSectorHandler(svc.CostSectors, svc.Audit)
	shoppingHandler := handlers.NewShoppingHandler(svc.Shopping, svc.Audit, opts.Location)
	depositHandler := handlers.NewDepositHandler(svc.Deposits, svc.Audit)
	totalsHandler := handlers.NewTotalsHandler(svc.Totals)
	notificationHandler := handlers.NewNotificationHandler(svc.Notifications)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ops := router.Group("/internal", middleware.OpsAuthMiddleware(opts.OpsAPIKey))
	if opts.Rollover != nil {
		ops.POST("/rollover", handlers.NewOpsHandler(opts.Rollover).Rollover)
	}

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Authenticated routes that do not need a room
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/notifications", notificationHandler.GetNotifications)
	protected.POST("/rooms", roomHandler.CreateRoom)
	protected.POST("/rooms/:slug/join", roomHandler.JoinRoom)

	// Routes acting inside the caller's room
	member := protected.Group("/")
	member.Use(middleware.ActorMiddleware(svc.Memberships))

	room := member.Group("/room")
	room.GET("", roomHandler.GetRoom)
	room.GET("/members", roomHandler.GetMembers)
	room.PUT("/members/:slug/role", roomHandler.UpdateRole)
	room.PUT("/settings/shopping-type", roomHandler.SetShoppingType)

	meals := member.Group("/meals")
	meals.POST("", mealHandler.CreateToday)
	meals.GET("/today", mealHandler.GetToday)
	meals.PUT("/today", mealHandler.UpdateToday)
	meals.GET("/chart", mealHandler.GetChart)
	meals.GET("/request-candidates", mealHandler.GetRequestCandidates)
	meals.PUT("/:slug/override", mealHandler.Override)
	meals.POST("/:slug/requests", mealHandler.RequestChange)
	meals.DELETE("/:slug/requests", mealHandler.CancelChange)
	meals.POST("/:slug/requests/confirm", mealHandler.ConfirmChange)
	meals.POST("/:slug/requests/deny", mealHandler.DenyChange)
	member.GET("/meal-requests", mealHandler.GetPendingRequests)

	costs := member.Group("/cost-sectors")
	costs.POST("", costHandler.CreateField)
	costs.GET("", costHandler.GetFields)
	costs.GET("/chart", costHandler.GetChart)
	costs.PUT("/:slug", costHandler.UpdateField)
	costs.DELETE("/:slug", costHandler.DeleteField)

	shopping := member.Group("/shopping")
	shopping.POST("", shoppingHandler.CreateShopping)
	shopping.GET("/chart", shoppingHandler.GetChart)
	shopping.PUT("/:slug", shoppingHandler.UpdateShopping)
	shopping.DELETE("/:slug", shoppingHandler.DeleteShopping)
	shopping.POST("/monthly", shoppingHandler.CreateMonthlyShopping)
	shopping.PUT("/monthly/:slug", shoppingHandler.UpdateMonthlyShopping)
	shopping.DELETE("/monthly/:slug", shoppingHandler.DeleteMonthlyShopping)

	deposits := member.Group("/deposit-fields")
	deposits.POST("", depositHandler.CreateField)
	deposits.GET("", depositHandler.GetFields)
	deposits.GET("/chart", depositHandler.GetChart)
	deposits.PUT("/:slug", depositHandler.UpdateField)
	deposits.DELETE("/:slug", depositHandler.DeleteField)

	members := member.Group("/members")
	members.PUT("/:slug/costs", costHandler.AssignCosts)
	members.PUT("/:slug/deposits", depositHandler.AssignDeposits)

	member.GET("/totals", totalsHandler.GetTotals)

	return router
}
