package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/xrishb/Reinforcement-Learning-Visualizer/api/i"
)

// Router manages the HTTP server and its dependencies, including
// controllers and cross-origin access for the visualizer frontend.
type Router struct {
	addr        string
	baseURL     string
	controllers []i.Controller
	corsConfig  cors.Config
}

// Config holds configuration settings for creating a new Router instance.
type Config struct {
	Addr        string // Address to listen on
	BaseURL     string // Base URL for API routes
	Controllers []i.Controller
	CORSOrigins []string // Allowed origins; empty allows all
}

// NewRouter creates a new Router instance with the given configuration.
func NewRouter(config Config) *Router {
	corsConfig := cors.DefaultConfig()
	if len(config.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = config.CORSOrigins
	} else {
		// The visualizer frontend is served from an arbitrary origin
		// during development.
		corsConfig.AllowAllOrigins = true
	}

	return &Router{
		addr:        config.Addr,
		baseURL:     config.BaseURL,
		controllers: config.Controllers,
		corsConfig:  corsConfig,
	}
}

// Run starts the HTTP server and sets up routes with different access levels.
//
// Routes are grouped and managed under the base URL, with the following access levels:
// - Public routes: No authentication required.
// - Protected routes: Reserved; no controller registers any today.
func (r *Router) Run() error {
	gin.ForceConsoleColor()
	router := gin.Default()
	router.Use(cors.New(r.corsConfig))

	// Setting up routes under baseURL
	api := router.Group(r.baseURL)

	{
		publicRoutes := api.Group("/v1")
		{
			for _, c := range r.controllers {
				c.RegisterPublic(publicRoutes)
			}
		}

		protectedRoutes := api.Group("/v1")
		{
			for _, c := range r.controllers {
				c.RegisterProtected(protectedRoutes)
			}
		}
	}

	return router.Run(r.addr)
}
