// Package lifecycle содержит правила жизненного цикла заявки:
// черновик (корзина) пользователя, формирование, модерация и логическое удаление.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/errs"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// ServiceStore чтение услуг каталога.
// GetService возвращает errs.ErrNotFound, если записи нет (неактивные услуги тоже возвращаются).
type ServiceStore interface {
	GetService(ctx context.Context, id uint) (*ds.Service, error)
}

// ApplicationStore хранилище заявок и связей заявка-услуга.
// Методы Get* возвращают errs.ErrNotFound при отсутствии записи, GetApplication не видит DELETED.
// AddServiceToApplication возвращает errs.ErrConflict, если пара уже есть.
type ApplicationStore interface {
	GetDraft(ctx context.Context, userID uint) (*ds.Application, error)
	GetOrCreateDraft(ctx context.Context, userID uint) (*ds.Application, error)
	GetApplication(ctx context.Context, id uint) (*ds.Application, error)
	ListApplications(ctx context.Context, filter ds.ApplicationFilter) ([]ds.Application, error)
	GetApplicationServices(ctx context.Context, applicationID uint) ([]ds.Service, error)
	AddServiceToApplication(ctx context.Context, applicationID, serviceID uint) error
	RemoveServiceFromApplication(ctx context.Context, applicationID, serviceID uint) error
	UpdateApplicationStatus(ctx context.Context, app *ds.Application) error
}

type Lifecycle struct {
	apps     ApplicationStore
	services ServiceStore
	now      func() time.Time
}

func New(apps ApplicationStore, services ServiceStore) *Lifecycle {
	return &Lifecycle{
		apps:     apps,
		services: services,
		now:      time.Now,
	}
}

// ListFilter параметры списка заявок из запроса
type ListFilter struct {
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// AddToDraft добавляет услугу в черновик пользователя, создавая черновик при необходимости
func (l *Lifecycle) AddToDraft(ctx context.Context, caller ds.Caller, serviceID uint) (*ds.Application, error) {
	service, err := l.services.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !service.IsActive {
		return nil, fmt.Errorf("%w: услуга %d", errs.ErrNotFound, serviceID)
	}

	draft, err := l.apps.GetOrCreateDraft(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("get or create draft: %w", err)
	}

	if err := l.apps.AddServiceToApplication(ctx, draft.ID, serviceID); err != nil {
		return nil, err
	}

	logrus.Infof("service %d added to draft %d of user %d", serviceID, draft.ID, caller.UserID)
	return l.withServices(ctx, draft)
}

// RemoveFromDraft удаляет услугу из черновика самого пользователя
func (l *Lifecycle) RemoveFromDraft(ctx context.Context, caller ds.Caller, serviceID uint) error {
	draft, err := l.apps.GetDraft(ctx, caller.UserID)
	if err != nil {
		return err
	}

	if err := l.apps.RemoveServiceFromApplication(ctx, draft.ID, serviceID); err != nil {
		return err
	}

	logrus.Infof("service %d removed from draft %d of user %d", serviceID, draft.ID, caller.UserID)
	return nil
}

// Draft возвращает текущий черновик пользователя вместе с услугами
func (l *Lifecycle) Draft(ctx context.Context, caller ds.Caller) (*ds.Application, error) {
	draft, err := l.apps.GetDraft(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return l.withServices(ctx, draft)
}

// Form переводит черновик в статус FORMED. Доступно только создателю
func (l *Lifecycle) Form(ctx context.Context, caller ds.Caller, applicationID uint) (*ds.Application, error) {
	app, err := l.apps.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.CreatorID != caller.UserID {
		return nil, fmt.Errorf("%w: сформировать можно только свою заявку", errs.ErrForbidden)
	}
	if app.Status != ds.StatusDraft {
		return nil, fmt.Errorf("%w: сформировать можно только черновик, текущий статус %s", errs.ErrInvalidInput, app.Status)
	}

	now := l.now()
	app.Status = ds.StatusFormed
	app.FormedAt = &now
	app.UpdatedAt = now
	if err := l.apps.UpdateApplicationStatus(ctx, app); err != nil {
		return nil, fmt.Errorf("form application %d: %w", applicationID, err)
	}

	logrus.Infof("application %d formed by user %d", app.ID, caller.UserID)
	return l.reload(ctx, app.ID)
}

// Moderate завершает или отклоняет сформированную заявку
func (l *Lifecycle) Moderate(ctx context.Context, caller ds.Caller, applicationID uint, status string) (*ds.Application, error) {
	if !caller.IsModerator {
		return nil, fmt.Errorf("%w: действие доступно только модератору", errs.ErrForbidden)
	}

	next, ok := ds.ParseStatus(status)
	if !ok || !isModerationResult(next) {
		return nil, fmt.Errorf("%w: статус должен быть %s или %s", errs.ErrInvalidInput, ds.StatusCompleted, ds.StatusRejected)
	}

	app, err := l.apps.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(app.Status, next) {
		return nil, fmt.Errorf("%w: переход %s -> %s недопустим", errs.ErrInvalidInput, app.Status, next)
	}

	now := l.now()
	moderatorID := caller.UserID
	app.Status = next
	app.ModeratorID = &moderatorID
	app.CompletedAt = &now
	app.UpdatedAt = now
	if err := l.apps.UpdateApplicationStatus(ctx, app); err != nil {
		return nil, fmt.Errorf("moderate application %d: %w", applicationID, err)
	}

	logrus.Infof("application %d set to %s by moderator %d", app.ID, next, caller.UserID)
	return l.reload(ctx, app.ID)
}

// Delete логически удаляет заявку (статус DELETED), связи с услугами остаются
func (l *Lifecycle) Delete(ctx context.Context, caller ds.Caller, applicationID uint) error {
	app, err := l.apps.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if !canAccess(caller, app) {
		return fmt.Errorf("%w: заявка принадлежит другому пользователю", errs.ErrForbidden)
	}
	if isTerminal(app.Status) {
		return fmt.Errorf("%w: заявку в статусе %s нельзя удалить", errs.ErrInvalidInput, app.Status)
	}

	app.Status = ds.StatusDeleted
	app.UpdatedAt = l.now()
	if err := l.apps.UpdateApplicationStatus(ctx, app); err != nil {
		return fmt.Errorf("delete application %d: %w", applicationID, err)
	}

	logrus.Infof("application %d deleted by user %d", app.ID, caller.UserID)
	return nil
}

// Get возвращает заявку с услугами создателю или модератору
func (l *Lifecycle) Get(ctx context.Context, caller ds.Caller, applicationID uint) (*ds.Application, error) {
	app, err := l.apps.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !canAccess(caller, app) {
		return nil, fmt.Errorf("%w: заявка принадлежит другому пользователю", errs.ErrForbidden)
	}
	return l.withServices(ctx, app)
}

// List возвращает заявки без черновиков и удалённых.
// Обычный пользователь видит только свои заявки
func (l *Lifecycle) List(ctx context.Context, caller ds.Caller, filter ListFilter) ([]ds.Application, error) {
	statuses := listedStatuses
	if filter.Status != "" {
		st, ok := ds.ParseStatus(filter.Status)
		if !ok {
			return nil, fmt.Errorf("%w: неизвестный статус %q", errs.ErrInvalidInput, filter.Status)
		}
		if !lo.Contains(listedStatuses, st) {
			return []ds.Application{}, nil
		}
		statuses = []ds.Status{st}
	}

	query := ds.ApplicationFilter{
		Statuses: statuses,
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
	}
	if !caller.IsModerator {
		creatorID := caller.UserID
		query.CreatorID = &creatorID
	}

	return l.apps.ListApplications(ctx, query)
}

// reload перечитывает заявку после смены статуса, чтобы подтянуть создателя и модератора
func (l *Lifecycle) reload(ctx context.Context, applicationID uint) (*ds.Application, error) {
	app, err := l.apps.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("reload application %d: %w", applicationID, err)
	}
	return l.withServices(ctx, app)
}

func (l *Lifecycle) withServices(ctx context.Context, app *ds.Application) (*ds.Application, error) {
	services, err := l.apps.GetApplicationServices(ctx, app.ID)
	if err != nil {
		return nil, fmt.Errorf("load services of application %d: %w", app.ID, err)
	}
	app.Services = services
	return app, nil
}

func canAccess(caller ds.Caller, app *ds.Application) bool {
	return caller.IsModerator || app.CreatorID == caller.UserID
}

