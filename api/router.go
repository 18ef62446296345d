// api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"eventgate/api/handlers"
	"eventgate/api/middleware"
	"eventgate/internal/ingest"
	"eventgate/internal/schema"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(s *schema.Schema, pipe *ingest.Pipeline) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.Use(middleware.RequestID())

	ratelimiter := middleware.NewRateLimiter()
	router.Use(middleware.RateLimitMiddleware(ratelimiter))
	router.Use(middleware.ErrorHandler())

	// Preflight handling: an origin is acceptable when any configured app
	// accepts it. The handler still attaches the specific app's origin to
	// its responses.
	router.Use(cors.New(cors.Config{
		AllowOriginFunc: originAllowed(s),
		AllowMethods:    []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "Referer"},
		MaxAge:          12 * time.Hour,
	}))

	eventHandler := handlers.NewEventHandler(s, pipe)

	router.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })
	router.POST("/apps/:app_id/events", eventHandler.PostEvents)

	return router
}

func originAllowed(s *schema.Schema) func(origin string) bool {
	wildcard := false
	origins := make(map[string]struct{}, len(s.Apps))
	for _, app := range s.Apps {
		if app.AccessControlAllowOrigin == "*" {
			wildcard = true
			continue
		}
		origins[app.AccessControlAllowOrigin] = struct{}{}
	}
	return func(origin string) bool {
		if wildcard {
			return true
		}
		_, ok := origins[origin]
		return ok
	}
}
