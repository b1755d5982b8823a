// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"taskhive/internal/http/handlers"
	"taskhive/internal/http/middleware"
	"taskhive/internal/modules/doer"
	"taskhive/internal/modules/matching"
	"taskhive/internal/modules/task"
)

type RouterDeps struct {
	Task     *task.Service
	Doer     *doer.Service
	Matching *matching.Service
	Geocoder handlers.Geocoder
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log))
	r.Use(middleware.Logging(deps.Log))

	taskHandler := handlers.NewTaskHandler(deps.Task, deps.Geocoder)
	r.POST("/api/tasks", taskHandler.Create)
	r.GET("/api/tasks/:id", taskHandler.Get)
	r.POST("/api/tasks/:id/assign", taskHandler.Assign)
	r.POST("/api/tasks/:id/start", taskHandler.Start)
	r.POST("/api/tasks/:id/complete", taskHandler.Complete)
	r.POST("/api/tasks/:id/cancel", taskHandler.Cancel)

	doerHandler := handlers.NewDoerHandler(deps.Doer)
	r.POST("/api/doers", doerHandler.Register)
	r.GET("/api/doers/:id", doerHandler.Get)
	r.PUT("/api/doers/:id/location", doerHandler.UpdateLocation)
	r.PUT("/api/doers/:id/availability", doerHandler.UpdateAvailability)

	matchHandler := handlers.NewMatchHandler(deps.Task, deps.Matching)
	r.GET("/api/tasks/:id/match", matchHandler.BestMatch)
	r.GET("/api/tasks/:id/recommendations", matchHandler.Recommendations)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
