package redis

import (
	"context"
	"fmt"
	"strconv"

	"vpsrental/internal/app/config"

	"github.com/go-redis/redis/v8"
)

const servicePrefix = "vps_rental." // префикс ключей нашего сервиса

type Client struct {
	cfg    config.RedisConfig
	client *redis.Client
}

// New создаёт клиента и проверяет соединение.
// Клиент возвращается и при ошибке ping: redis используется как необязательный канал
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	client := &Client{cfg: cfg}

	client.client = redis.NewClient(&redis.Options{
		Password:    cfg.Password,
		Username:    cfg.User,
		Addr:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		DB:          0,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	})

	if _, err := client.client.Ping(ctx).Result(); err != nil {
		return client, fmt.Errorf("cant ping redis: %w", err)
	}

	return client, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
