package ds

// 1. Таблица услуг (тарифы VPS). Физически не удаляется, только is_active = false
type Service struct {
	ID              uint    `gorm:"primaryKey"`
	Name            string  `gorm:"type:varchar(100);not null"`
	Image           *string `gorm:"type:varchar(255)"` // имя объекта в MinIO, nullable
	MiniDescription string  `gorm:"type:text;not null"`
	Description     string  `gorm:"type:text;not null"`
	Price           float64 `gorm:"type:decimal(10,2);not null"`
	Processor       string  `gorm:"type:varchar(100);not null"`
	RAM             string  `gorm:"column:ram;type:varchar(100);not null"`
	Disk            string  `gorm:"type:varchar(100);not null"`
	InternetSpeed   string  `gorm:"type:varchar(100);not null"`
	IsActive        bool    `gorm:"type:boolean;default:true;not null"`
}

// ServiceFilter параметры поиска по каталогу
type ServiceFilter struct {
	Name     string
	MinPrice *float64
	MaxPrice *float64
}

// ServicePatch частичное обновление услуги, nil означает "не менять"
type ServicePatch struct {
	Name            *string
	MiniDescription *string
	Description     *string
	Price           *float64
	Processor       *string
	RAM             *string
	Disk            *string
	InternetSpeed   *string
}

// Apply переносит заданные поля в услугу
func (p ServicePatch) Apply(s *Service) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.MiniDescription != nil {
		s.MiniDescription = *p.MiniDescription
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Processor != nil {
		s.Processor = *p.Processor
	}
	if p.RAM != nil {
		s.RAM = *p.RAM
	}
	if p.Disk != nil {
		s.Disk = *p.Disk
	}
	if p.InternetSpeed != nil {
		s.InternetSpeed = *p.InternetSpeed
	}
}
