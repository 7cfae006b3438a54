package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vpsrental/internal/app/config"
	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/dto"
	"vpsrental/internal/app/role"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/sirupsen/logrus"
)

// AuthCookie имя cookie с токеном, которую выставляет вход
const AuthCookie = "auth_token"

// Blacklist хранилище отозванных токенов
type Blacklist interface {
	IsJWTBlacklisted(ctx context.Context, jwtStr string) (bool, error)
}

type AuthMiddleware struct {
	Blacklist Blacklist
	Config    *config.Config
}

func NewAuthMiddleware(blacklist Blacklist, cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{
		Blacklist: blacklist,
		Config:    cfg,
	}
}

// WithAuthCheck middleware для проверки авторизации с ролями.
// Без ролей пропускает любого авторизованного пользователя
func (am *AuthMiddleware) WithAuthCheck(assignedRoles ...role.Role) gin.HandlerFunc {
	return func(gCtx *gin.Context) {
		jwtStr := TokenFromRequest(gCtx)
		if jwtStr == "" {
			abort(gCtx, http.StatusUnauthorized, "требуется авторизация")
			return
		}

		claims, err := am.verify(gCtx.Request.Context(), jwtStr)
		if err != nil {
			logrus.Debugf("auth rejected: %v", err)
			abort(gCtx, http.StatusUnauthorized, "недействительный токен")
			return
		}

		// Проверяем роли пользователя
		if len(assignedRoles) > 0 && !hasRequiredRole(claims.Role, assignedRoles) {
			abort(gCtx, http.StatusForbidden, "недостаточно прав")
			return
		}

		setCaller(gCtx, claims.Caller(), jwtStr)
		gCtx.Next()
	}
}

// WithOptionalAuth добавляет пользователя в контекст, если передан действительный токен.
// Запрос без токена или с плохим токеном обрабатывается как анонимный
func (am *AuthMiddleware) WithOptionalAuth() gin.HandlerFunc {
	return func(gCtx *gin.Context) {
		jwtStr := TokenFromRequest(gCtx)
		if jwtStr != "" {
			if claims, err := am.verify(gCtx.Request.Context(), jwtStr); err == nil {
				setCaller(gCtx, claims.Caller(), jwtStr)
			}
		}
		gCtx.Next()
	}
}

// ParseToken парсит и валидирует JWT токен без проверки чёрного списка
func (am *AuthMiddleware) ParseToken(tokenString string) (*ds.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ds.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != am.Config.JWT.SigningMethod.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(am.Config.JWT.Token), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ds.JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (am *AuthMiddleware) verify(ctx context.Context, jwtStr string) (*ds.JWTClaims, error) {
	claims, err := am.ParseToken(jwtStr)
	if err != nil {
		return nil, err
	}

	// Redis недоступен: токен проверен подписью, пропускаем с предупреждением
	if am.Blacklist != nil {
		blacklisted, err := am.Blacklist.IsJWTBlacklisted(ctx, jwtStr)
		if err != nil {
			logrus.Warnf("blacklist check failed, token accepted: %v", err)
		} else if blacklisted {
			return nil, errors.New("token is blacklisted")
		}
	}
	return claims, nil
}

// TokenFromRequest токен из заголовка Authorization или из cookie
func TokenFromRequest(gCtx *gin.Context) string {
	if header := gCtx.GetHeader("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := gCtx.Cookie(AuthCookie); err == nil {
		return cookie
	}
	return ""
}

// hasRequiredRole проверяет, есть ли у пользователя необходимая роль
func hasRequiredRole(userRole role.Role, requiredRoles []role.Role) bool {
	for _, requiredRole := range requiredRoles {
		if userRole == requiredRole {
			return true
		}
	}
	return false
}

func abort(gCtx *gin.Context, status int, message string) {
	gCtx.AbortWithStatusJSON(status, dto.ErrorResponse{
		Status:  "fail",
		Message: message,
	})
}
