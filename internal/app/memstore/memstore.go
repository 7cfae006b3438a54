// Package memstore хранилище в памяти с теми же контрактами, что и repository.
// Используется в тестах правил заявок, каталога и обработчиков.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/errs"

	"github.com/samber/lo"
)

type pair struct {
	applicationID uint
	serviceID     uint
}

type Store struct {
	mu sync.Mutex

	services     map[uint]ds.Service
	applications map[uint]ds.Application
	links        map[pair]struct{}
	users        map[uint]ds.User

	lastServiceID     uint
	lastApplicationID uint
	lastUserID        uint
}

func New() *Store {
	return &Store{
		services:     make(map[uint]ds.Service),
		applications: make(map[uint]ds.Application),
		links:        make(map[pair]struct{}),
		users:        make(map[uint]ds.User),
	}
}

// ============ Услуги ============

func (s *Store) ListServices(_ context.Context, filter ds.ServiceFilter) ([]ds.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.ToLower(filter.Name)
	result := make([]ds.Service, 0, len(s.services))
	for _, svc := range s.services {
		if !svc.IsActive {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(svc.Name), name) {
			continue
		}
		if filter.MinPrice != nil && svc.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && svc.Price > *filter.MaxPrice {
			continue
		}
		result = append(result, svc)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) GetService(_ context.Context, id uint) (*ds.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return nil, fmt.Errorf("%w: услуга %d", errs.ErrNotFound, id)
	}
	return &svc, nil
}

func (s *Store) CreateService(_ context.Context, svc *ds.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastServiceID++
	svc.ID = s.lastServiceID
	s.services[svc.ID] = *svc
	return nil
}

func (s *Store) SaveService(_ context.Context, svc *ds.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[svc.ID]; !ok {
		return fmt.Errorf("%w: услуга %d", errs.ErrNotFound, svc.ID)
	}
	s.services[svc.ID] = *svc
	return nil
}

// ============ Заявки ============

func (s *Store) GetDraft(_ context.Context, userID uint) (*ds.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app, ok := s.draftLocked(userID); ok {
		app = s.withUsersLocked(app)
		return &app, nil
	}
	return nil, fmt.Errorf("%w: черновик пользователя %d", errs.ErrNotFound, userID)
}

func (s *Store) GetOrCreateDraft(_ context.Context, userID uint) (*ds.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app, ok := s.draftLocked(userID); ok {
		app = s.withUsersLocked(app)
		return &app, nil
	}

	now := time.Now()
	s.lastApplicationID++
	app := ds.Application{
		ID:        s.lastApplicationID,
		Status:    ds.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
		CreatorID: userID,
	}
	s.applications[app.ID] = app
	app = s.withUsersLocked(app)
	return &app, nil
}

func (s *Store) draftLocked(userID uint) (ds.Application, bool) {
	for _, app := range s.applications {
		if app.CreatorID == userID && app.Status == ds.StatusDraft {
			return app, true
		}
	}
	return ds.Application{}, false
}

func (s *Store) GetApplication(_ context.Context, id uint) (*ds.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok || app.Status == ds.StatusDeleted {
		return nil, fmt.Errorf("%w: заявка %d", errs.ErrNotFound, id)
	}
	app = s.withUsersLocked(app)
	return &app, nil
}

func (s *Store) ListApplications(_ context.Context, filter ds.ApplicationFilter) ([]ds.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]ds.Application, 0)
	for _, app := range s.applications {
		if !lo.Contains(filter.Statuses, app.Status) {
			continue
		}
		if filter.CreatorID != nil && app.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.DateFrom != nil && (app.FormedAt == nil || app.FormedAt.Before(*filter.DateFrom)) {
			continue
		}
		if filter.DateTo != nil && (app.FormedAt == nil || app.FormedAt.After(*filter.DateTo)) {
			continue
		}
		result = append(result, s.withUsersLocked(app))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// withUsersLocked заполняет создателя и модератора, как Preload в repository
func (s *Store) withUsersLocked(app ds.Application) ds.Application {
	app.Creator = s.users[app.CreatorID]
	app.Moderator = nil
	if app.ModeratorID != nil {
		if m, ok := s.users[*app.ModeratorID]; ok {
			app.Moderator = &m
		}
	}
	return app
}

func (s *Store) GetApplicationServices(_ context.Context, applicationID uint) ([]ds.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]ds.Service, 0)
	for p := range s.links {
		if p.applicationID == applicationID {
			result = append(result, s.services[p.serviceID])
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) AddServiceToApplication(_ context.Context, applicationID, serviceID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := pair{applicationID: applicationID, serviceID: serviceID}
	if _, ok := s.links[p]; ok {
		return fmt.Errorf("%w: услуга %d уже в заявке %d", errs.ErrConflict, serviceID, applicationID)
	}
	s.links[p] = struct{}{}
	return nil
}

func (s *Store) RemoveServiceFromApplication(_ context.Context, applicationID, serviceID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := pair{applicationID: applicationID, serviceID: serviceID}
	if _, ok := s.links[p]; !ok {
		return fmt.Errorf("%w: услуга %d в заявке %d", errs.ErrNotFound, serviceID, applicationID)
	}
	delete(s.links, p)
	return nil
}

func (s *Store) UpdateApplicationStatus(_ context.Context, app *ds.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.applications[app.ID]
	if !ok {
		return fmt.Errorf("%w: заявка %d", errs.ErrNotFound, app.ID)
	}
	stored.Status = app.Status
	stored.FormedAt = app.FormedAt
	stored.CompletedAt = app.CompletedAt
	stored.ModeratorID = app.ModeratorID
	stored.UpdatedAt = app.UpdatedAt
	s.applications[app.ID] = stored
	return nil
}

// LinkCount число строк связи заявка-услуга для заявки
func (s *Store) LinkCount(applicationID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for p := range s.links {
		if p.applicationID == applicationID {
			n++
		}
	}
	return n
}

// DraftCount число черновиков пользователя
func (s *Store) DraftCount(userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, app := range s.applications {
		if app.CreatorID == userID && app.Status == ds.StatusDraft {
			n++
		}
	}
	return n
}

// ============ Пользователи ============

func (s *Store) GetUserByID(_ context.Context, id uint) (*ds.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: пользователь %d", errs.ErrNotFound, id)
	}
	return &u, nil
}

func (s *Store) GetUserByLogin(_ context.Context, login string) (*ds.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Login == login {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: пользователь %s", errs.ErrNotFound, login)
}

func (s *Store) CreateUser(_ context.Context, user *ds.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Login == user.Login {
			return fmt.Errorf("%w: логин %s занят", errs.ErrConflict, user.Login)
		}
	}
	s.lastUserID++
	user.ID = s.lastUserID
	s.users[user.ID] = *user
	return nil
}

func (s *Store) UpdateUser(_ context.Context, user *ds.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return fmt.Errorf("%w: пользователь %d", errs.ErrNotFound, user.ID)
	}
	stored.FullName = user.FullName
	stored.Email = user.Email
	stored.Password = user.Password
	s.users[user.ID] = stored
	return nil
}
