package pkg

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vpsrental/internal/app/config"
	"vpsrental/internal/app/handler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	Handler *handler.Handler
}

func NewApp(c *config.Config, r *gin.Engine, h *handler.Handler) *Application {
	return &Application{
		Config:  c,
		Router:  r,
		Handler: h,
	}
}

// RunApp регистрирует маршруты и обслуживает запросы до отмены ctx
func (a *Application) RunApp(ctx context.Context) error {
	logrus.Info("Server start up")

	if len(a.Config.CORS.Origins) > 0 {
		corsConf := cors.DefaultConfig()
		corsConf.AllowOrigins = a.Config.CORS.Origins
		corsConf.AllowCredentials = true
		corsConf.AddAllowHeaders("Authorization")
		a.Router.Use(cors.New(corsConf))
	}

	a.Handler.RegisterRoutes(a.Router)

	serverAddress := fmt.Sprintf("%s:%d", a.Config.ServiceHost, a.Config.ServicePort)
	server := &http.Server{
		Addr:              serverAddress,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.Infof("Starting server on %s", serverAddress)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logrus.Info("Server down")
	return nil
}
