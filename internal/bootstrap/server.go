package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/avioline/airreserve/api"
	"github.com/avioline/airreserve/config"
	"github.com/avioline/airreserve/internal/logger"
	"github.com/avioline/airreserve/internal/service/auth"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Flights  *api.FlightHandler
	Bookings *api.BookingHandler
	Auth     *api.AuthHandler
	Admin    *api.AdminHandler
	AuthSvc  auth.AuthUseCase
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, h Handlers, log *logger.Logger) error {
	router := newRouter(cfg, h)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	log.Info("http server started", "address", cfg.HTTP.Address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func newRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.HTTP.RateLimitRPS > 0 {
		router.Use(api.RateLimit(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	public := router.Group("/api/public")
	h.Flights.Register(public)
	h.Bookings.RegisterPublic(public)

	authGroup := router.Group("/api/auth")
	h.Auth.Register(authGroup)

	customer := router.Group("/api/customer")
	customer.Use(api.AuthRequired(h.AuthSvc))
	h.Bookings.Register(customer)

	adminGroup := router.Group("/api/admin")
	adminGroup.Use(api.AuthRequired(h.AuthSvc), api.AdminRequired())
	h.Admin.Register(adminGroup)

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/openapi.json"),
		)))
	}

	return router
}
