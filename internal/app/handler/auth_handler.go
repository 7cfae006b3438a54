package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/dto"
	"vpsrental/internal/app/errs"
	"vpsrental/internal/app/middleware"
	"vpsrental/internal/app/role"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "vps-rental"

const (
	minLoginLength = 3
	maxLoginLength = 50
)

// normalizeLogin обрезает пробелы; длина проверяется уже после обрезки
func normalizeLogin(login string) (string, bool) {
	login = strings.TrimSpace(login)
	n := utf8.RuneCountInString(login)
	return login, n >= minLoginLength && n <= maxLoginLength
}

// RegisterUser регистрация нового пользователя
// @Summary Регистрация пользователя
// @Description Создание нового пользователя. Роль модератора через регистрацию не выдаётся
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Данные для регистрации"
// @Success 201 {object} dto.SuccessResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/auth/register [post]
func (h *Handler) RegisterUser(c *gin.Context) {
	var request dto.RegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверные данные: "+err.Error())
		return
	}
	login, ok := normalizeLogin(request.Login)
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "логин должен содержать от 3 до 50 символов")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		h.handleError(c, err)
		return
	}

	user := &ds.User{
		Login:    login,
		Password: string(hash),
		Email:    request.Email,
		FullName: request.FullName,
	}
	if err := h.Users.CreateUser(c.Request.Context(), user); err != nil {
		h.handleError(c, err)
		return
	}

	logrus.Infof("user %s registered", user.Login)
	h.successResponse(c, http.StatusCreated, "пользователь успешно зарегистрирован", toUserResponse(user))
}

// LoginUser аутентификация пользователя
// @Summary Вход в систему
// @Description Проверяет пароль, возвращает JWT токен и выставляет cookie auth_token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Данные для входа"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/login [post]
func (h *Handler) LoginUser(c *gin.Context) {
	var request dto.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверные данные: "+err.Error())
		return
	}

	user, err := h.Users.GetUserByLogin(c.Request.Context(), strings.TrimSpace(request.Login))
	if err != nil && !errs.IsNotFound(err) {
		h.handleError(c, err)
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(request.Password)) != nil {
		h.errorResponse(c, http.StatusUnauthorized, "неверный логин или пароль")
		return
	}

	now := time.Now()
	accessToken, err := h.issueToken(user, now)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Журнал входов не обязателен: ошибка Redis не мешает входу
	if h.Sessions != nil {
		if err := h.Sessions.AppendLogin(c.Request.Context(), user.Login, now); err != nil {
			logrus.Warnf("failed to write login log for %s: %v", user.Login, err)
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, accessToken, int(h.Config.JWT.ExpiresIn.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     accessToken,
		TokenType: "Bearer",
		ExpiresIn: int(h.Config.JWT.ExpiresIn.Seconds()),
		User:      toUserResponse(user),
	})
}

// LogoutUser выход пользователя из системы
// @Summary Выход из системы
// @Description Добавляет токен в чёрный список до окончания его срока и удаляет cookie
// @Tags Authentication
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/auth/logout [post]
func (h *Handler) LogoutUser(c *gin.Context) {
	tokenString := middleware.TokenFromContext(c)
	claims, err := h.Auth.ParseToken(tokenString)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "недействительный токен")
		return
	}

	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", false, true)

	// Вычисление TTL до истечения токена
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if ttl > 0 && h.Sessions != nil {
		if err := h.Sessions.WriteJWTToBlacklist(c.Request.Context(), tokenString, ttl); err != nil {
			h.handleError(c, err)
			return
		}
	}

	logrus.Infof("user %s logged out", claims.Login)
	c.Status(http.StatusNoContent)
}

// GetCurrentUser получение профиля пользователя
// @Summary Текущий пользователь
// @Description Возвращает информацию о текущем пользователе
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/auth/user [get]
func (h *Handler) GetCurrentUser(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	user, err := h.Users.GetUserByID(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateCurrentUser обновление профиля
// @Summary Обновление профиля
// @Description Обновляет ФИО, email и пароль текущего пользователя
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateUserRequest true "Данные профиля"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/user [put]
func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверные данные: "+err.Error())
		return
	}

	user, err := h.Users.GetUserByID(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.handleError(c, err)
			return
		}
		user.Password = string(hash)
	}

	if err := h.Users.UpdateUser(c.Request.Context(), user); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// GetRecentLogins журнал входов
// @Summary Журнал входов
// @Description Последние записи журнала входов, новые первыми (только для модераторов)
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Количество записей (до 100)"
// @Success 200 {object} dto.LoginLogResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/auth/logins [get]
func (h *Handler) GetRecentLogins(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			h.errorResponse(c, http.StatusBadRequest, "неверный limit")
			return
		}
		limit = v
	}

	if h.Sessions == nil {
		c.JSON(http.StatusOK, dto.LoginLogResponse{Entries: []string{}})
		return
	}

	entries, err := h.Sessions.RecentLogins(c.Request.Context(), limit)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if entries == nil {
		entries = []string{}
	}

	c.JSON(http.StatusOK, dto.LoginLogResponse{Entries: entries})
}

func (h *Handler) issueToken(user *ds.User, now time.Time) (string, error) {
	token := jwt.NewWithClaims(h.Config.JWT.SigningMethod, &ds.JWTClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(h.Config.JWT.ExpiresIn).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    tokenIssuer,
		},
		UserID: user.ID,
		Login:  user.Login,
		Role:   role.FromModeratorFlag(user.IsModerator),
	})
	return token.SignedString([]byte(h.Config.JWT.Token))
}
