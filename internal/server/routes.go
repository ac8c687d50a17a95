package server

import (
	"net/http"

	"tasklist/internal/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes builds the gin engine with middleware and every API route
func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())
	r.Use(s.metrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "HEAD", "OPTIONS", "PUT", "PATCH", "DELETE"},
		AllowHeaders: []string{
			"Origin", "X-Requested-With", "Content-Type", "Accept",
			auth.HeaderAccessToken, auth.HeaderRefreshToken, auth.HeaderUserID,
		},
		ExposeHeaders: []string{auth.HeaderAccessToken, auth.HeaderRefreshToken},
	}))

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	s.authHandler.RegisterRoutes(r, s.authMW)
	s.listsHandler.RegisterRoutes(r, s.authMW.Authenticate())

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	response := gin.H{"status": "up"}
	status := http.StatusOK

	if s.db != nil {
		dbHealth := s.db.Health()
		response["database"] = dbHealth
		if dbHealth["status"] != "up" {
			response["status"] = "down"
			status = http.StatusServiceUnavailable
		}
	}

	if s.storage != nil {
		storageHealth := map[string]string{"status": "up"}
		if err := s.storage.Health(c.Request.Context()); err != nil {
			storageHealth["status"] = "down"
			storageHealth["error"] = err.Error()
		}
		response["storage"] = storageHealth
	}

	c.JSON(status, response)
}
