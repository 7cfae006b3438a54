package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"vpsrental/internal/app/catalog"
	"vpsrental/internal/app/config"
	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/dto"
	"vpsrental/internal/app/errs"
	"vpsrental/internal/app/lifecycle"
	"vpsrental/internal/app/middleware"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// UserStore хранилище пользователей.
// GetUser* возвращают errs.ErrNotFound, CreateUser возвращает errs.ErrConflict на занятый логин
type UserStore interface {
	GetUserByID(ctx context.Context, id uint) (*ds.User, error)
	GetUserByLogin(ctx context.Context, login string) (*ds.User, error)
	CreateUser(ctx context.Context, user *ds.User) error
	UpdateUser(ctx context.Context, user *ds.User) error
}

// SessionStore чёрный список токенов и журнал входов (Redis)
type SessionStore interface {
	WriteJWTToBlacklist(ctx context.Context, jwtStr string, jwtTTL time.Duration) error
	AppendLogin(ctx context.Context, login string, at time.Time) error
	RecentLogins(ctx context.Context, limit int) ([]string, error)
}

// Handler содержит обработчики REST API
type Handler struct {
	Lifecycle *lifecycle.Lifecycle
	Catalog   *catalog.Catalog
	Users     UserStore
	Sessions  SessionStore
	Auth      *middleware.AuthMiddleware
	Config    *config.Config
}

func NewHandler(
	lc *lifecycle.Lifecycle,
	cat *catalog.Catalog,
	users UserStore,
	sessions SessionStore,
	auth *middleware.AuthMiddleware,
	cfg *config.Config,
) *Handler {
	return &Handler{
		Lifecycle: lc,
		Catalog:   cat,
		Users:     users,
		Sessions:  sessions,
		Auth:      auth,
		Config:    cfg,
	}
}

// ============ Вспомогательные функции ============

const internalErrorMessage = "внутренняя ошибка сервера"

func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{
		Status:  "fail",
		Message: message,
	})
}

func (h *Handler) successResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := dto.SuccessResponse{
		Status:  "success",
		Message: message,
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(statusCode, response)
}

// handleError отвечает кодом доменной ошибки. Текст внутренних ошибок клиенту не отдаётся
func (h *Handler) handleError(c *gin.Context, err error) {
	status := errs.StatusCode(err)
	if status == http.StatusInternalServerError {
		logrus.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		h.errorResponse(c, status, internalErrorMessage)
		return
	}
	logrus.Debugf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	h.errorResponse(c, status, err.Error())
}

// Получение текущего пользователя из контекста
func (h *Handler) caller(c *gin.Context) (ds.Caller, bool) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		h.errorResponse(c, http.StatusUnauthorized, "требуется авторизация")
	}
	return caller, ok
}

func (h *Handler) parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("неверный %s", param))
		return 0, false
	}
	return uint(id), true
}

// ============ Преобразование в DTO ============

func (h *Handler) toServiceResponse(s ds.Service) dto.ServiceResponse {
	return dto.ServiceResponse{
		ID:              s.ID,
		Name:            s.Name,
		MiniDescription: s.MiniDescription,
		Price:           s.Price,
		ImageURL:        h.Catalog.ImageURL(&s),
	}
}

func (h *Handler) toServiceDetail(s *ds.Service) dto.ServiceDetailResponse {
	return dto.ServiceDetailResponse{
		ServiceResponse: h.toServiceResponse(*s),
		Description:     s.Description,
		Processor:       s.Processor,
		RAM:             s.RAM,
		Disk:            s.Disk,
		InternetSpeed:   s.InternetSpeed,
	}
}

func (h *Handler) toApplicationResponse(app *ds.Application) dto.ApplicationResponse {
	response := dto.ApplicationResponse{
		ID:          app.ID,
		Status:      string(app.Status),
		CreatedAt:   app.CreatedAt,
		FormedAt:    app.FormedAt,
		CompletedAt: app.CompletedAt,
		Creator:     app.Creator.Login,
		Services: lo.Map(app.Services, func(s ds.Service, _ int) dto.ServiceResponse {
			return h.toServiceResponse(s)
		}),
		TotalPrice: lo.SumBy(app.Services, func(s ds.Service) float64 { return s.Price }),
	}
	if app.Moderator != nil {
		response.Moderator = app.Moderator.Login
	}
	return response
}

func toUserResponse(u *ds.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		Login:       u.Login,
		Email:       u.Email,
		FullName:    u.FullName,
		IsModerator: u.IsModerator,
	}
}
