package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/atlascrm/crm-system/internal/api/handler"
	"github.com/atlascrm/crm-system/internal/api/middleware"
	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
	"github.com/atlascrm/crm-system/internal/core/service"
	mongorepo "github.com/atlascrm/crm-system/internal/infrastructure/db/mongo"
	redisinfra "github.com/atlascrm/crm-system/internal/infrastructure/db/redis"
)

// Dependencies carries the external collaborators the router needs.
type Dependencies struct {
	Mongo     *mongo.Database
	Redis     *redis.Client
	Files     ports.FileStore
	Activity  ports.ActivityRecorder
	JWTSecret string
	Logger    zerolog.Logger
}

const (
	adminRole      = string(domain.RoleAdmin)
	supervisorRole = string(domain.RoleSupervisor)
	operatorRole   = string(domain.RoleOperator)
	clientRole     = string(domain.RoleClient)
)

// NewRouter builds and returns the Echo instance with all routes registered.
// Route-level RBAC here is the coarse gate; ownership and transition rules
// live in the service layer.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("crm"))

	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Repositories ---
	userRepo := mongorepo.NewUserRepository(deps.Mongo)
	bindingRepo := mongorepo.NewBindingRepository(deps.Mongo)
	leadRepo := mongorepo.NewLeadRepository(deps.Mongo)
	clientRepo := mongorepo.NewClientRepository(deps.Mongo)
	productRepo := mongorepo.NewProductRepository(deps.Mongo)
	claimRepo := mongorepo.NewClaimRepository(deps.Mongo)

	convertLock := redisinfra.NewEntityLock(deps.Redis, "lead_convert")

	// --- Services ---
	authService := service.NewAuthService(userRepo, deps.JWTSecret, 24*time.Hour)
	userService := service.NewUserService(userRepo, bindingRepo, deps.Logger)
	leadService := service.NewLeadService(leadRepo, clientRepo, userRepo, convertLock, deps.Activity, deps.Logger)
	clientService := service.NewClientService(clientRepo, productRepo, deps.Activity, deps.Logger)
	productService := service.NewProductService(productRepo, deps.Logger)
	claimService := service.NewClaimService(claimRepo, clientRepo, userRepo, deps.Files, deps.Activity, deps.Logger)
	analyticsService := service.NewAnalyticsService(leadRepo, clientRepo, productRepo, claimRepo, userRepo, bindingRepo, deps.Logger)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	leadHandler := handler.NewLeadHandler(leadService)
	clientHandler := handler.NewClientHandler(clientService, claimService)
	productHandler := handler.NewProductHandler(productService)
	claimHandler := handler.NewClaimHandler(claimService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Auth ---
	v1 := e.Group("/v1")
	v1.POST("/auth/login", authHandler.Login)

	auth := middleware.Auth(deps.JWTSecret)
	staff := middleware.RBAC(adminRole, supervisorRole, operatorRole)

	authed := v1.Group("", auth)
	authed.GET("/auth/me", authHandler.Me)

	// --- Users ---
	users := authed.Group("/users")
	users.POST("", userHandler.Create, middleware.RBAC(adminRole))
	users.GET("", userHandler.List, middleware.RBAC(adminRole, supervisorRole))
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id", userHandler.Update)
	users.PUT("/:id/password", userHandler.UpdatePassword)
	users.DELETE("/:id", userHandler.Deactivate, middleware.RBAC(adminRole))
	users.PUT("/:id/roles", userHandler.SetRoles, middleware.RBAC(adminRole))
	users.POST("/:id/operators", userHandler.BindOperator, middleware.RBAC(adminRole))

	// --- Leads (staff only; clients never see the pipeline) ---
	leads := authed.Group("/leads", staff)
	leads.POST("", leadHandler.Create, middleware.RBAC(adminRole, operatorRole))
	leads.GET("", leadHandler.List)
	leads.GET("/:id", leadHandler.Get)
	leads.PATCH("/:id", leadHandler.Update)
	leads.PUT("/:id/operator", leadHandler.AssignOperator, middleware.RBAC(adminRole, supervisorRole))
	leads.POST("/:id/convert", leadHandler.Convert)
	leads.DELETE("/:id", leadHandler.Delete, middleware.RBAC(adminRole))
	leads.POST("/:id/comments", leadHandler.AddComment)

	// --- Clients ---
	clients := authed.Group("/clients")
	clients.POST("", clientHandler.Create, middleware.RBAC(adminRole))
	clients.GET("", clientHandler.List, staff)
	clients.GET("/:id", clientHandler.Get)
	clients.GET("/:id/claims", clientHandler.ListClaims)
	clients.POST("/:id/products", clientHandler.AssignProduct, staff)
	clients.POST("/:id/comments", clientHandler.AddComment)

	// --- Products ---
	products := authed.Group("/products")
	products.POST("", productHandler.Create, middleware.RBAC(adminRole))
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.PATCH("/:id", productHandler.Update, middleware.RBAC(adminRole))
	products.DELETE("/:id", productHandler.Delete, middleware.RBAC(adminRole))

	// --- Claims ---
	claims := authed.Group("/claims")
	claims.POST("", claimHandler.Create, middleware.RBAC(adminRole, clientRole))
	claims.GET("", claimHandler.List)
	claims.GET("/:id", claimHandler.Get)
	claims.PATCH("/:id", claimHandler.Update, staff)
	claims.PUT("/:id/status", claimHandler.UpdateStatus, staff)
	claims.PUT("/:id/operator", claimHandler.AssignOperator, middleware.RBAC(adminRole, supervisorRole))
	claims.PUT("/:id/supervisor", claimHandler.AssignSupervisor, middleware.RBAC(adminRole))
	claims.POST("/:id/files", claimHandler.UploadFile)
	claims.GET("/:id/files/:fileId", claimHandler.DownloadFile)
	claims.POST("/:id/comments", claimHandler.AddComment)

	// --- Analytics (admin only) ---
	analytics := authed.Group("/analytics", middleware.RBAC(adminRole))
	analytics.GET("/leads", analyticsHandler.Leads)
	analytics.GET("/clients", analyticsHandler.Clients)
	analytics.GET("/revenue", analyticsHandler.Revenue)
	analytics.GET("/claims", analyticsHandler.Claims)
	analytics.GET("/supervisors", analyticsHandler.Supervisors)

	return e
}
