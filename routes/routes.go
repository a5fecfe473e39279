package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"handyconnect-server/apperror"
	"handyconnect-server/config"
	"handyconnect-server/middleware"
	"handyconnect-server/services"
	"handyconnect-server/types"
	"handyconnect-server/websocket"
)

// maxBodyBytes leaves room for two worker photos in one multipart signup.
const maxBodyBytes = 2*services.MaxImageSize + 1024*1024

// Dependencies is everything the HTTP layer needs.
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Tokens   *services.TokenService
	Auth     *services.AuthService
	Admin    *services.AdminService
	Bookings *services.BookingService
	Queries  *services.BookingQueryService
	Hub      *websocket.Hub
	Limiter  *middleware.RateLimiter
}

// SetupRouter builds the gin engine with every API route registered.
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware(deps.Config.IsProduction()))
	router.Use(middleware.CORSMiddleware(deps.Config.Server.AllowedOrigins))
	router.Use(middleware.InputValidationMiddleware(maxBodyBytes))

	router.GET("/health", healthCheck(deps))

	api := router.Group("/api")
	if deps.Limiter != nil {
		api.Use(deps.Limiter.Middleware())
	}

	RegisterAuthRoutes(api, deps)
	RegisterWorkerRoutes(api, deps)
	RegisterAdminRoutes(api, deps)
	RegisterBookingRoutes(api, deps)
	RegisterWebSocketRoutes(api, deps)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"msg": "Route not found", "kind": apperror.KindNotFound})
	})

	return router
}

func healthCheck(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if deps.DB != nil {
			if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}

		body := gin.H{"status": status}
		if deps.Hub != nil {
			body["websocketClients"] = deps.Hub.ConnectedClients()
		}
		c.JSON(code, body)
	}
}

func principal(c *gin.Context) types.Principal {
	p, _ := middleware.GetPrincipal(c)
	return p
}

func paramID(c *gin.Context, name, label string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.NewValidationError("Invalid " + label + " id")
	}
	return uint(id), nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperror.NewValidationError("Invalid request body")
	}
	return nil
}
