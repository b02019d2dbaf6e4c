// Package api exposes the assessment engine over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/casequiz/internal/engine"
	"github.com/abhisek/casequiz/internal/logger"
)

type RouterConfig struct {
	Engine       *engine.Engine
	Logger       *logger.Logger
	AllowOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := logger.OrNop(cfg.Logger).With("component", "api")
	h := &handlers{engine: cfg.Engine, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS(cfg.AllowOrigins))
	r.Use(RequestLogger(log))

	r.NoRoute(func(c *gin.Context) {
		RespondError(c, http.StatusNotFound, codeNotFound, "route not found")
	})

	r.GET("/healthz", h.health)

	v1 := r.Group("/v1", RequireUser(), LimitBody(maxBodyBytes))
	{
		v1.POST("/cases", h.ingest)
		v1.GET("/blueprint", h.blueprint)

		v1.POST("/sessions", h.startSession)
		v1.GET("/sessions/:id", h.session)
		v1.POST("/sessions/:id/answers", h.submit)
		v1.POST("/sessions/:id/finish", h.finish)

		admin := v1.Group("/admin", RequireAdmin())
		admin.DELETE("/users/:userID", h.resetUser)
	}
	return r
}
