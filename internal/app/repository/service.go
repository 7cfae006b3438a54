package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/errs"

	"gorm.io/gorm"
)

// Методы для работы с услугами

// Активные услуги с фильтрацией по названию и цене
// % и _ в поисковой строке ищутся буквально
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *Repository) ListServices(ctx context.Context, filter ds.ServiceFilter) ([]ds.Service, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if filter.Name != "" {
		query = query.Where("name ILIKE ?", "%"+likeEscaper.Replace(filter.Name)+"%")
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var services []ds.Service
	err := query.Order("id").Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

// Услуга по ID вне зависимости от is_active
func (r *Repository) GetService(ctx context.Context, id uint) (*ds.Service, error) {
	var service ds.Service
	err := r.db.WithContext(ctx).First(&service, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: услуга %d", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *Repository) CreateService(ctx context.Context, s *ds.Service) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// SaveService сохраняет все поля услуги, включая is_active
func (r *Repository) SaveService(ctx context.Context, s *ds.Service) error {
	result := r.db.WithContext(ctx).Model(&ds.Service{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"name":             s.Name,
		"image":            s.Image,
		"mini_description": s.MiniDescription,
		"description":      s.Description,
		"price":            s.Price,
		"processor":        s.Processor,
		"ram":              s.RAM,
		"disk":             s.Disk,
		"internet_speed":   s.InternetSpeed,
		"is_active":        s.IsActive,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: услуга %d", errs.ErrNotFound, s.ID)
	}
	return nil
}
