// Package server assembles the gin engine: repositories, services, handlers
// and the global middleware chain.
package server

import (
	"net/http"
	"time"

	_ "foodway/api/swagger" // swagger docs
	"foodway/internal/config"
	"foodway/internal/handler"
	"foodway/internal/middleware"
	"foodway/internal/repository"
	"foodway/internal/service"
	"foodway/internal/validator"
	"foodway/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *logrus.Logger
	// Hub receives order events. When nil a hub is created that nobody runs.
	Hub *websocket.Hub
	// Limiter guards /api/v1. Nil disables rate limiting.
	Limiter   *middleware.RateLimiter
	StartedAt time.Time
}

// NewRouter wires every layer and returns the ready engine.
func NewRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	validator.Register()
	if deps.Hub == nil {
		deps.Hub = websocket.NewHub(deps.Log)
	}
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(deps.DB, cfg.Database.RLSContext)
	restaurantRepo := repository.NewRestaurantRepository(deps.DB)
	categoryRepo := repository.NewCategoryRepository(deps.DB)
	productRepo := repository.NewProductRepository(deps.DB)
	tableRepo := repository.NewTableRepository(deps.DB)
	orderRepo := repository.NewOrderRepository(deps.DB)
	userRepo := repository.NewUserRepository(deps.DB)
	tokenRepo := repository.NewAuthTokenRepository(deps.DB)
	activityRepo := repository.NewActivityRepository(deps.DB)

	activityService := service.NewActivityService(activityRepo, deps.Log)
	authService := service.NewAuthService(userRepo, tokenRepo, txManager, service.NewTokenService(cfg.JWT), activityService, deps.Log)
	userService := service.NewUserService(userRepo, tokenRepo, restaurantRepo, txManager)
	restaurantService := service.NewRestaurantService(restaurantRepo)
	categoryService := service.NewCategoryService(categoryRepo, restaurantRepo, txManager)
	productService := service.NewProductService(productRepo, categoryRepo, txManager)
	tableService := service.NewTableService(tableRepo, restaurantRepo, txManager)
	orderService := service.NewOrderService(orderRepo, productRepo, tableRepo, restaurantRepo, txManager, deps.Hub, deps.Log)
	menuService := service.NewMenuService(restaurantRepo, categoryRepo, productRepo)
	qrService := service.NewQRService(restaurantRepo, tableRepo, cfg.WebAppURL)

	auth := middleware.NewAuth(authService, cfg.IsProduction())

	authHandler := handler.NewAuthHandler(authService, auth, activityService, cfg.JWT.RefreshTTL, cfg.IsProduction())
	userHandler := handler.NewUserHandler(userService, activityService, auth)
	restaurantHandler := handler.NewRestaurantHandler(restaurantService, auth)
	categoryHandler := handler.NewCategoryHandler(categoryService, auth)
	productHandler := handler.NewProductHandler(productService, auth)
	tableHandler := handler.NewTableHandler(tableService, activityService, auth)
	orderHandler := handler.NewOrderHandler(orderService, activityService, auth)
	menuHandler := handler.NewMenuHandler(menuService)
	qrHandler := handler.NewQRHandler(qrService, activityService, auth)
	adminHandler := handler.NewAdminHandler(restaurantService, userService, auth)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(deps.Log),
		middleware.Metrics(),
		middleware.ErrorHandler(deps.Log, cfg.IsProduction()),
		middleware.Recovery(),
	)

	router.Use(cors.New(corsConfig(cfg.CORS)))

	router.NoRoute(middleware.NotFound())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":       "Restaurant Menu API",
			"version":       cfg.Version,
			"documentation": "/swagger/index.html",
			"health":        "/health",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "OK",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"uptime":      time.Since(deps.StartedAt).Seconds(),
			"environment": cfg.Env,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/ws", websocket.ServeWs(deps.Hub, authService))
	adminHandler.RegisterRoutes(router)

	api := router.Group("/api/v1")
	if deps.Limiter != nil {
		api.Use(deps.Limiter.Middleware())
	}

	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	restaurantHandler.RegisterRoutes(api)
	categoryHandler.RegisterRoutes(api)
	productHandler.RegisterRoutes(api)
	tableHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	menuHandler.RegisterRoutes(api)
	qrHandler.RegisterRoutes(api)

	restaurant := api.Group("/restaurants/:restaurant_id")
	categoryHandler.RegisterRestaurantRoutes(restaurant)
	productHandler.RegisterRestaurantRoutes(restaurant)
	tableHandler.RegisterRestaurantRoutes(restaurant)
	userHandler.RegisterRestaurantRoutes(restaurant)
	orderHandler.RegisterRestaurantRoutes(restaurant)

	productHandler.RegisterCategoryRoutes(api.Group("/categories/:category_id"))

	return router
}

// corsConfig only allows credentials for an explicit origin list. A wildcard
// or empty list opens the API to any origin without cookies.
func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	c.ExposeHeaders = []string{"X-Request-ID"}
	return c
}
