package dto

import "time"

// ============ Общие структуры ============

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ============ Услуги (VPS) ============

type ServiceResponse struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	MiniDescription string  `json:"mini_description"`
	Price           float64 `json:"price"`
	ImageURL        string  `json:"image_url,omitempty"`
}

type ServiceDetailResponse struct {
	ServiceResponse
	Description   string `json:"description"`
	Processor     string `json:"processor"`
	RAM           string `json:"ram"`
	Disk          string `json:"disk"`
	InternetSpeed string `json:"internet_speed"`
}

type ServiceListResponse struct {
	Services []ServiceResponse `json:"services"`
	Total    int               `json:"total"`
	// черновик текущего пользователя, если он авторизован и черновик есть
	DraftID    *uint `json:"draft_id,omitempty"`
	DraftCount int   `json:"draft_count"`
}

type CreateServiceRequest struct {
	Name            string  `json:"name" binding:"required,max=100"`
	MiniDescription string  `json:"mini_description" binding:"required"`
	Description     string  `json:"description" binding:"required"`
	Price           float64 `json:"price" binding:"required,gt=0"`
	Processor       string  `json:"processor" binding:"required,max=100"`
	RAM             string  `json:"ram" binding:"required,max=100"`
	Disk            string  `json:"disk" binding:"required,max=100"`
	InternetSpeed   string  `json:"internet_speed" binding:"required,max=100"`
}

type UpdateServiceRequest struct {
	Name            *string  `json:"name" binding:"omitempty,max=100"`
	MiniDescription *string  `json:"mini_description"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price" binding:"omitempty,gt=0"`
	Processor       *string  `json:"processor" binding:"omitempty,max=100"`
	RAM             *string  `json:"ram" binding:"omitempty,max=100"`
	Disk            *string  `json:"disk" binding:"omitempty,max=100"`
	InternetSpeed   *string  `json:"internet_speed" binding:"omitempty,max=100"`
}

// ============ Заявки ============

type ApplicationResponse struct {
	ID          uint              `json:"id"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	FormedAt    *time.Time        `json:"formed_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Creator     string            `json:"creator,omitempty"`   // Логин создателя
	Moderator   string            `json:"moderator,omitempty"` // Логин модератора (если есть)
	Services    []ServiceResponse `json:"services,omitempty"`  // Только для одной заявки
	TotalPrice  float64           `json:"total_price,omitempty"`
}

type ApplicationListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Total        int                   `json:"total"`
}

type ModerateRequest struct {
	Status string `json:"status" binding:"required"`
}

// ============ Пользователи ============

type UserResponse struct {
	ID          uint   `json:"id"`
	Login       string `json:"login"`
	Email       string `json:"email,omitempty"`
	FullName    string `json:"full_name"`
	IsModerator bool   `json:"is_moderator"`
}

type RegisterRequest struct {
	Login    string `json:"login" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"omitempty,email,max=100"`
	FullName string `json:"full_name" binding:"max=100"`
}

type UpdateUserRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
	Email    *string `json:"email" binding:"omitempty,email,max=100"`
	Password string  `json:"password" binding:"omitempty,min=6"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int          `json:"expires_in"`
	User      UserResponse `json:"user"`
}

type LoginLogResponse struct {
	Entries []string `json:"entries"`
}
