package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tradeportal-backend/internal/applications"
	"tradeportal-backend/internal/clientaccess"
	"tradeportal-backend/internal/documents"
	"tradeportal-backend/internal/evaluations"
	"tradeportal-backend/internal/shared/config"
	"tradeportal-backend/internal/shared/metrics"
	"tradeportal-backend/internal/shared/server/middleware"
	"tradeportal-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config              config.Config
	ApplicationsHandler *applications.Handler
	DocumentsHandler    *documents.Handler
	ClientAccessHandler *clientaccess.Handler
	EvaluationsHandler  *evaluations.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.JWTSecret),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	deps.ApplicationsHandler.RegisterRoutes(api)
	deps.DocumentsHandler.RegisterRoutes(api)
	deps.ClientAccessHandler.RegisterRoutes(api)
	deps.EvaluationsHandler.RegisterRoutes(api)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
