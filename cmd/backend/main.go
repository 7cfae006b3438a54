package main

import (
	"context"
	"os/signal"
	"syscall"

	"vpsrental/internal/api"

	log "github.com/sirupsen/logrus"
)

// @title VPS Rental API
// @version 1.0
// @description API аренды VPS: каталог тарифов, корзина-черновик, формирование и модерация заявок
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log.Info("App start")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := api.StartServer(ctx); err != nil {
		log.Fatal(err)
	}

	log.Info("App terminated")
}
