package api

import (
	"context"
	"fmt"
	"os"

	_ "vpsrental/docs"
	"vpsrental/internal/app/catalog"
	"vpsrental/internal/app/config"
	"vpsrental/internal/app/dsn"
	"vpsrental/internal/app/handler"
	"vpsrental/internal/app/lifecycle"
	"vpsrental/internal/app/middleware"
	"vpsrental/internal/app/redis"
	"vpsrental/internal/app/repository"
	"vpsrental/internal/app/storage"
	"vpsrental/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StartServer собирает зависимости и запускает HTTP сервер до отмены ctx
func StartServer(ctx context.Context) error {
	logrus.Info("Starting server")

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("ошибка чтения конфигурации: %w", err)
	}

	repo, err := repository.New(dsn.FromEnv())
	if err != nil {
		return fmt.Errorf("ошибка инициализации репозитория: %w", err)
	}
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("ошибка миграции: %w", err)
	}

	// Redis не обязателен: без него не пишется журнал входов и не проверяется чёрный список
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logrus.Warnf("redis is unavailable: %v", err)
	}
	defer redisClient.Close()

	var images catalog.ImageStore
	if cfg.MinIO.Enabled() {
		minioClient, err := storage.NewMinIOClient(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("ошибка инициализации MinIO: %w", err)
		}
		images = minioClient
	} else {
		logrus.Warn("MinIO endpoint is not set, image upload is disabled")
	}

	h := handler.NewHandler(
		lifecycle.New(repo, repo),
		catalog.New(repo, images),
		repo,
		redisClient,
		middleware.NewAuthMiddleware(redisClient, cfg),
		cfg,
	)

	application := pkg.NewApp(cfg, gin.Default(), h)
	return application.RunApp(ctx)
}
