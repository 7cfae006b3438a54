package handler

import (
	"vpsrental/internal/app/role"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes регистрирует все REST API маршруты с авторизацией
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	auth := h.Auth
	api := router.Group("/api")

	// ============ Услуги ============
	services := api.Group("/services")
	{
		// Публичные эндпоинты, список дополнительно показывает черновик авторизованного пользователя
		services.GET("", auth.WithOptionalAuth(), h.GetServices)
		services.GET("/:id", h.GetService)
		services.GET("/:id/image", h.GetServiceImage)

		services.POST("/:id/draft", auth.WithAuthCheck(), h.AddServiceToDraft)

		// Только для модераторов
		services.POST("", auth.WithAuthCheck(role.Moderator), h.CreateService)
		services.PUT("/:id", auth.WithAuthCheck(role.Moderator), h.UpdateService)
		services.DELETE("/:id", auth.WithAuthCheck(role.Moderator), h.DeleteService)
		services.POST("/:id/image", auth.WithAuthCheck(role.Moderator), h.UploadServiceImage)
	}

	// ============ Заявки ============
	applications := api.Group("/applications")
	applications.Use(auth.WithAuthCheck())
	{
		applications.GET("", h.GetApplications)
		applications.GET("/draft", h.GetDraft)
		applications.DELETE("/draft/services/:service_id", h.RemoveServiceFromDraft)
		applications.GET("/:id", h.GetApplication)
		applications.PUT("/:id/formed", h.FormApplication)
		applications.DELETE("/:id", h.DeleteApplication)

		applications.PUT("/:id/status", auth.WithAuthCheck(role.Moderator), h.ModerateApplication)
	}

	// ============ Аутентификация ============
	users := api.Group("/auth")
	{
		users.POST("/register", h.RegisterUser)
		users.POST("/login", h.LoginUser)

		users.POST("/logout", auth.WithAuthCheck(), h.LogoutUser)
		users.GET("/user", auth.WithAuthCheck(), h.GetCurrentUser)
		users.PUT("/user", auth.WithAuthCheck(), h.UpdateCurrentUser)
		users.GET("/logins", auth.WithAuthCheck(role.Moderator), h.GetRecentLogins)
	}

	router.GET("/ping", h.Ping)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Ping проверяет работоспособность API
// @Summary Проверка работоспособности
// @Description Возвращает простой ответ для проверки работы сервера
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (h *Handler) Ping(ctx *gin.Context) {
	ctx.JSON(200, gin.H{"message": "pong"})
}
