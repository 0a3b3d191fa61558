package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/thotadurga2464/flight-booking/api"
	"github.com/thotadurga2464/flight-booking/config"
)

const shutdownTimeout = 5 * time.Second

// Registrar mounts a group of routes.
type Registrar interface {
	Register(router *gin.RouterGroup)
}

// NewRouter builds the HTTP handler: the registered API routes plus
// /metrics and /healthz.
func NewRouter(log *zap.Logger, registrars ...Registrar) *gin.Engine {
	r := gin.New()
	r.Use(api.Recover(log), api.RequestLogger(log), api.CORS())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	root := r.Group("")
	for _, reg := range registrars {
		reg.Register(root)
	}
	return r
}

// Run serves the API and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, registrars ...Registrar) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(log, registrars...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info("http server stopped")
		return nil
	}
}
