package ds

import (
	"vpsrental/internal/app/role"

	"github.com/golang-jwt/jwt"
)

type JWTClaims struct {
	jwt.StandardClaims
	UserID uint      `json:"user_id"`
	Login  string    `json:"login"`
	Role   role.Role `json:"role"`
}

// Caller собирает идентичность пользователя из проверенного токена
func (c *JWTClaims) Caller() Caller {
	return Caller{
		UserID:      c.UserID,
		Login:       c.Login,
		IsModerator: c.Role == role.Moderator,
	}
}
