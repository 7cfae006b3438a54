package redis

import (
	"context"
	"fmt"
	"time"
)

const (
	loginLogKey  = servicePrefix + "login_log"
	loginLogSize = 100
)

// LoginEntry строка журнала входов
func LoginEntry(login string, at time.Time) string {
	return fmt.Sprintf("user %s logged in at %s", login, at.Format(time.RFC3339))
}

// AppendLogin добавляет запись о входе и обрезает журнал до последних 100 записей
func (c *Client) AppendLogin(ctx context.Context, login string, at time.Time) error {
	if err := c.client.LPush(ctx, loginLogKey, LoginEntry(login, at)).Err(); err != nil {
		return fmt.Errorf("push login entry: %w", err)
	}
	if err := c.client.LTrim(ctx, loginLogKey, 0, loginLogSize-1).Err(); err != nil {
		return fmt.Errorf("trim login log: %w", err)
	}
	return nil
}

// RecentLogins последние записи журнала входов, новые первыми
func (c *Client) RecentLogins(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 || limit > loginLogSize {
		limit = loginLogSize
	}
	return c.client.LRange(ctx, loginLogKey, 0, int64(limit-1)).Result()
}
