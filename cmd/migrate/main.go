package main

import (
	"context"
	"flag"
	"os"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/dsn"
	"vpsrental/internal/app/repository"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	rollback := flag.Bool("rollback", false, "откатить последнюю миграцию")
	flag.Parse()

	// Загрузка переменных окружения из .env файла
	_ = godotenv.Load()

	dsnStr := dsn.FromEnv()
	if dsnStr == "" {
		log.Fatal("DSN string is empty. Check your .env file")
	}

	repo, err := repository.New(dsnStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *rollback {
		if err := repo.RollbackLast(); err != nil {
			log.Fatalf("Failed to rollback migration: %v", err)
		}
		log.Info("Last migration rolled back")
		return
	}

	if err := repo.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Info("Database migration completed successfully")

	ctx := context.Background()

	// Модератор создаётся только здесь, регистрация роль не выдаёт
	login, password := os.Getenv("MODERATOR_LOGIN"), os.Getenv("MODERATOR_PASSWORD")
	if login != "" && password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash moderator password: %v", err)
		}
		moderator, err := repo.EnsureModerator(ctx, login, string(hash))
		if err != nil {
			log.Fatalf("Failed to seed moderator: %v", err)
		}
		log.Infof("Moderator %s (id %d) is ready", moderator.Login, moderator.ID)
	}

	services, err := repo.ListServices(ctx, ds.ServiceFilter{})
	if err != nil {
		log.Fatalf("Failed to get services: %v", err)
	}
	log.Infof("Active services in database: %d", len(services))
	for _, service := range services {
		image := "NULL"
		if service.Image != nil {
			image = *service.Image
		}
		log.Infof("ID: %d, Name: %s, Image: %s", service.ID, service.Name, image)
	}
}
