package ds

// 3. Таблица многие-ко-многим (заявки-услуги), пара уникальна
type ApplicationService struct {
	ID            uint `gorm:"primaryKey"`
	ApplicationID uint `gorm:"not null;index;uniqueIndex:idx_application_service"`
	ServiceID     uint `gorm:"not null;index;uniqueIndex:idx_application_service"`

	Application Application `gorm:"foreignKey:ApplicationID"`
	Service     Service     `gorm:"foreignKey:ServiceID"`
}
