package ds

import "time"

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusDeleted   Status = "DELETED"
	StatusFormed    Status = "FORMED"
	StatusCompleted Status = "COMPLETED"
	StatusRejected  Status = "REJECTED"
)

// ParseStatus проверяет, что строка является известным статусом заявки
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusDraft, StatusDeleted, StatusFormed, StatusCompleted, StatusRejected:
		return st, true
	}
	return "", false
}

// 2. Таблица заявок
type Application struct {
	ID          uint       `gorm:"primaryKey"`
	Status      Status     `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
	FormedAt    *time.Time `gorm:"default:null"` // дата формирования (действие создателя)
	CompletedAt *time.Time `gorm:"default:null"` // дата завершения или отклонения (действие модератора)
	CreatorID   uint       `gorm:"column:user_creator_id;not null;index"`
	ModeratorID *uint      `gorm:"column:user_moderator_id;default:null"`

	Creator   User  `gorm:"foreignKey:CreatorID"`
	Moderator *User `gorm:"foreignKey:ModeratorID"`

	// заполняется репозиторием через таблицу application_services
	Services []Service `gorm:"-"`
}

// ApplicationFilter параметры выборки заявок для списка
type ApplicationFilter struct {
	Statuses  []Status
	CreatorID *uint
	DateFrom  *time.Time
	DateTo    *time.Time
}
