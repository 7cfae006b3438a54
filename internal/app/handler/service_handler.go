package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/dto"
	"vpsrental/internal/app/errs"
	"vpsrental/internal/app/middleware"
	"vpsrental/internal/app/storage"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// ============ ДОМЕН УСЛУГИ ============

// GetServices получает список услуг
// @Summary Получение списка услуг
// @Description Возвращает активные услуги с поиском по названию и фильтром по цене. Для авторизованного пользователя возвращает черновик заявки
// @Tags Services
// @Produce json
// @Param name query string false "Поиск по названию услуги"
// @Param min_price query number false "Минимальная цена"
// @Param max_price query number false "Максимальная цена"
// @Success 200 {object} dto.ServiceListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/services [get]
func (h *Handler) GetServices(c *gin.Context) {
	filter := ds.ServiceFilter{Name: c.Query("name")}
	var err error
	if filter.MinPrice, err = queryFloat(c, "min_price"); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверный min_price")
		return
	}
	if filter.MaxPrice, err = queryFloat(c, "max_price"); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверный max_price")
		return
	}

	services, err := h.Catalog.List(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := dto.ServiceListResponse{
		Services: lo.Map(services, func(s ds.Service, _ int) dto.ServiceResponse {
			return h.toServiceResponse(s)
		}),
		Total: len(services),
	}

	if caller, ok := middleware.CallerFromContext(c); ok {
		draft, err := h.Lifecycle.Draft(c.Request.Context(), caller)
		switch {
		case err == nil:
			response.DraftID = &draft.ID
			response.DraftCount = len(draft.Services)
		case !errs.IsNotFound(err):
			h.handleError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetService получает одну услугу
// @Summary Получение услуги по ID
// @Description Возвращает детальную информацию об активной услуге
// @Tags Services
// @Produce json
// @Param id path int true "ID услуги"
// @Success 200 {object} dto.ServiceDetailResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/services/{id} [get]
func (h *Handler) GetService(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	service, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toServiceDetail(service))
}

// CreateService создает новую услугу
// @Summary Создание услуги
// @Description Создает новую услугу (только для модераторов)
// @Tags Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateServiceRequest true "Данные услуги"
// @Success 201 {object} dto.ServiceDetailResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/services [post]
func (h *Handler) CreateService(c *gin.Context) {
	var req dto.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверные данные: "+err.Error())
		return
	}

	service := &ds.Service{
		Name:            req.Name,
		MiniDescription: req.MiniDescription,
		Description:     req.Description,
		Price:           req.Price,
		Processor:       req.Processor,
		RAM:             req.RAM,
		Disk:            req.Disk,
		InternetSpeed:   req.InternetSpeed,
	}
	if err := h.Catalog.Create(c.Request.Context(), service); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.toServiceDetail(service))
}

// UpdateService обновляет услугу
// @Summary Обновление услуги
// @Description Частично обновляет описание и характеристики услуги (только для модераторов)
// @Tags Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID услуги"
// @Param request body dto.UpdateServiceRequest true "Данные для обновления"
// @Success 200 {object} dto.ServiceDetailResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/services/{id} [put]
func (h *Handler) UpdateService(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "неверные данные: "+err.Error())
		return
	}

	service, err := h.Catalog.Update(c.Request.Context(), id, ds.ServicePatch{
		Name:            req.Name,
		MiniDescription: req.MiniDescription,
		Description:     req.Description,
		Price:           req.Price,
		Processor:       req.Processor,
		RAM:             req.RAM,
		Disk:            req.Disk,
		InternetSpeed:   req.InternetSpeed,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toServiceDetail(service))
}

// DeleteService удаляет услугу
// @Summary Удаление услуги
// @Description Логически удаляет услугу (только для модераторов). Повторное удаление возвращает 410
// @Tags Services
// @Security BearerAuth
// @Param id path int true "ID услуги"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Failure 410 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/services/{id} [delete]
func (h *Handler) DeleteService(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.Catalog.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadServiceImage загружает изображение для услуги
// @Summary Загрузка изображения услуги
// @Description Загружает изображение в MinIO и заменяет предыдущее (только для модераторов)
// @Tags Services
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID услуги"
// @Param image formData file true "Файл изображения"
// @Success 200 {object} dto.ServiceDetailResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/services/{id}/image [post]
func (h *Handler) UploadServiceImage(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	// Получаем файл из запроса
	fileHeader, err := c.FormFile("image")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "файл image не передан")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.handleError(c, err)
		return
	}

	service, err := h.Catalog.UploadImage(c.Request.Context(), id, fileHeader.Filename, data)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.toServiceDetail(service))
}

// GetServiceImage отдаёт изображение услуги
// @Summary Изображение услуги
// @Description Возвращает файл изображения активной услуги из MinIO
// @Tags Services
// @Produce octet-stream
// @Param id path int true "ID услуги"
// @Success 200 {file} binary
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/services/{id}/image [get]
func (h *Handler) GetServiceImage(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	data, name, err := h.Catalog.Image(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Data(http.StatusOK, storage.ContentType(name), data)
}

// AddServiceToDraft добавляет услугу в заявку
// @Summary Добавление услуги в черновик
// @Description Добавляет услугу в черновик заявки текущего пользователя, создавая черновик при необходимости
// @Tags Services
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID услуги"
// @Success 201 {object} dto.ApplicationResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/services/{id}/draft [post]
func (h *Handler) AddServiceToDraft(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	serviceID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	draft, err := h.Lifecycle.AddToDraft(c.Request.Context(), caller, serviceID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.toApplicationResponse(draft))
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, errors.New("negative value")
	}
	return &v, nil
}
