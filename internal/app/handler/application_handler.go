package handler

import (
	"net/http"
	"time"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/dto"
	"vpsrental/internal/app/lifecycle"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const dateLayout = "2006-01-02"

// ============ ДОМЕН ЗАЯВКИ ============

// GetApplications список заявок
// @Summary Получение списка заявок
// @Description Возвращает заявки кроме черновиков и удалённых. Пользователь видит только свои, модератор все
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Статус (FORMED, COMPLETED, REJECTED)"
// @Param date_from query string false "Дата формирования от (YYYY-MM-DD)"
// @Param date_to query string false "Дата формирования до (YYYY-MM-DD)"
// @Success 200 {object} dto.ApplicationListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/applications [get]
func (h *Handler) GetApplications(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	filter := lifecycle.ListFilter{Status: c.Query("status")}
	var err error
	if filter.DateFrom, err = queryDate(c, "date_from", false); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверный date_from, ожидается YYYY-MM-DD")
		return
	}
	if filter.DateTo, err = queryDate(c, "date_to", true); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверный date_to, ожидается YYYY-MM-DD")
		return
	}

	apps, err := h.Lifecycle.List(c.Request.Context(), caller, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ApplicationListResponse{
		Applications: lo.Map(apps, func(app ds.Application, _ int) dto.ApplicationResponse {
			return h.toApplicationResponse(&app)
		}),
		Total: len(apps),
	})
}

// GetDraft черновик текущего пользователя
// @Summary Черновик заявки
// @Description Возвращает черновик заявки текущего пользователя вместе с услугами
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ApplicationResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/applications/draft [get]
func (h *Handler) GetDraft(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	draft, err := h.Lifecycle.Draft(c.Request.Context(), caller)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toApplicationResponse(draft))
}

// RemoveServiceFromDraft удаляет услугу из черновика
// @Summary Удаление услуги из черновика
// @Description Удаляет услугу из черновика заявки текущего пользователя
// @Tags Applications
// @Security BearerAuth
// @Param service_id path int true "ID услуги"
// @Success 204
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/applications/draft/services/{service_id} [delete]
func (h *Handler) RemoveServiceFromDraft(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	serviceID, ok := h.parseID(c, "service_id")
	if !ok {
		return
	}

	if err := h.Lifecycle.RemoveFromDraft(c.Request.Context(), caller, serviceID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetApplication одна заявка
// @Summary Получение заявки по ID
// @Description Возвращает заявку с услугами. Доступно создателю и модератору
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID заявки"
// @Success 200 {object} dto.ApplicationResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/applications/{id} [get]
func (h *Handler) GetApplication(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	app, err := h.Lifecycle.Get(c.Request.Context(), caller, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toApplicationResponse(app))
}

// FormApplication формирование заявки
// @Summary Формирование заявки
// @Description Переводит черновик в статус FORMED. Доступно только создателю
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID заявки"
// @Success 200 {object} dto.ApplicationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/applications/{id}/formed [put]
func (h *Handler) FormApplication(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	app, err := h.Lifecycle.Form(c.Request.Context(), caller, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toApplicationResponse(app))
}

// ModerateApplication завершение или отклонение заявки
// @Summary Модерация заявки
// @Description Переводит сформированную заявку в COMPLETED или REJECTED (только для модераторов)
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID заявки"
// @Param request body dto.ModerateRequest true "Новый статус"
// @Success 200 {object} dto.ApplicationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/applications/{id}/status [put]
func (h *Handler) ModerateApplication(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req dto.ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверные данные: "+err.Error())
		return
	}

	app, err := h.Lifecycle.Moderate(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toApplicationResponse(app))
}

// DeleteApplication логическое удаление заявки
// @Summary Удаление заявки
// @Description Переводит черновик или сформированную заявку в статус DELETED
// @Tags Applications
// @Security BearerAuth
// @Param id path int true "ID заявки"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/applications/{id} [delete]
func (h *Handler) DeleteApplication(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.Lifecycle.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// queryDate разбирает дату YYYY-MM-DD. Для верхней границы берётся конец дня
func queryDate(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
