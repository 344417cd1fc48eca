package routes

import (
	"network/api/handlers"
	"network/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "network"

// NewEngine builds the gin engine with the full middleware chain and
// every route registered.
func NewEngine(h *handlers.Handler, l *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.GinZap(l), middleware.Recovery(l))
	r.Use(middleware.PrometheusMiddleware(serviceName))
	r.Use(middleware.SessionAuth(h.Auth))

	r.GET("/healthz", handlers.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	PublicApi(r, h)
	return r
}
