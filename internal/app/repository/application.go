package repository

import (
	"context"
	"errors"
	"fmt"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/errs"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Методы для работы с заявками

// Черновик заявки пользователя
func (r *Repository) GetDraft(ctx context.Context, userID uint) (*ds.Application, error) {
	var app ds.Application
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("user_creator_id = ? AND status = ?", userID, string(ds.StatusDraft)).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: черновик пользователя %d", errs.ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Найти черновик или создать новый. Одновременное создание второго черновика
// отсекается частичным уникальным индексом idx_applications_one_draft
func (r *Repository) GetOrCreateDraft(ctx context.Context, userID uint) (*ds.Application, error) {
	app, err := r.GetDraft(ctx, userID)
	if err == nil {
		return app, nil
	}
	if !errs.IsNotFound(err) {
		return nil, err
	}

	app = &ds.Application{
		Status:    ds.StatusDraft,
		CreatorID: userID,
	}
	err = r.db.WithContext(ctx).Omit(clause.Associations).Create(app).Error
	if err != nil && !isUniqueViolation(err) {
		return nil, err
	}
	return r.GetDraft(ctx, userID)
}

// Заявка по ID (удалённые не возвращаются)
func (r *Repository) GetApplication(ctx context.Context, id uint) (*ds.Application, error) {
	var app ds.Application
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Moderator").
		Where("id = ? AND status <> ?", id, string(ds.StatusDeleted)).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: заявка %d", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Список заявок по статусам, создателю и дате формирования
func (r *Repository) ListApplications(ctx context.Context, filter ds.ApplicationFilter) ([]ds.Application, error) {
	query := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Moderator").
		Where("status IN ?", lo.Map(filter.Statuses, func(s ds.Status, _ int) string { return string(s) }))

	if filter.CreatorID != nil {
		query = query.Where("user_creator_id = ?", *filter.CreatorID)
	}
	if filter.DateFrom != nil {
		query = query.Where("formed_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("formed_at <= ?", *filter.DateTo)
	}

	var apps []ds.Application
	err := query.Order("created_at").Order("id").Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// Услуги в заявке
func (r *Repository) GetApplicationServices(ctx context.Context, applicationID uint) ([]ds.Service, error) {
	var services []ds.Service
	err := r.db.WithContext(ctx).
		Model(&ds.Service{}).
		Select("services.*").
		Joins("JOIN application_services ON application_services.service_id = services.id").
		Where("application_services.application_id = ?", applicationID).
		Order("services.id").
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

// Методы для М-М связей

// Добавить услугу в заявку. Повторное добавление возвращает errs.ErrConflict
func (r *Repository) AddServiceToApplication(ctx context.Context, applicationID, serviceID uint) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&ds.ApplicationService{}).
		Where("application_id = ? AND service_id = ?", applicationID, serviceID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: услуга %d уже в заявке %d", errs.ErrConflict, serviceID, applicationID)
	}

	link := ds.ApplicationService{
		ApplicationID: applicationID,
		ServiceID:     serviceID,
	}
	err = r.db.WithContext(ctx).Omit(clause.Associations).Create(&link).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: услуга %d уже в заявке %d", errs.ErrConflict, serviceID, applicationID)
	}
	return err
}

// Удалить услугу из заявки
func (r *Repository) RemoveServiceFromApplication(ctx context.Context, applicationID, serviceID uint) error {
	result := r.db.WithContext(ctx).
		Where("application_id = ? AND service_id = ?", applicationID, serviceID).
		Delete(&ds.ApplicationService{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: услуга %d в заявке %d", errs.ErrNotFound, serviceID, applicationID)
	}
	return nil
}

// Сохранить статус заявки и связанные с ним поля
func (r *Repository) UpdateApplicationStatus(ctx context.Context, app *ds.Application) error {
	result := r.db.WithContext(ctx).Model(&ds.Application{}).Where("id = ?", app.ID).Updates(map[string]interface{}{
		"status":            string(app.Status),
		"formed_at":         app.FormedAt,
		"completed_at":      app.CompletedAt,
		"user_moderator_id": app.ModeratorID,
		"updated_at":        app.UpdatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: заявка %d", errs.ErrNotFound, app.ID)
	}
	return nil
}
