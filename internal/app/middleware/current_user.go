package middleware

import (
	"vpsrental/internal/app/ds"

	"github.com/gin-gonic/gin"
)

const (
	callerKey = "caller"
	tokenKey  = "token"
)

func setCaller(c *gin.Context, caller ds.Caller, token string) {
	c.Set(callerKey, caller)
	c.Set(tokenKey, token)
}

// CallerFromContext извлекает пользователя, которого положил WithAuthCheck или WithOptionalAuth
func CallerFromContext(c *gin.Context) (ds.Caller, bool) {
	v, exists := c.Get(callerKey)
	if !exists {
		return ds.Caller{}, false
	}
	caller, ok := v.(ds.Caller)
	return caller, ok
}

// TokenFromContext проверенный токен текущего запроса
func TokenFromContext(c *gin.Context) string {
	return c.GetString(tokenKey)
}
