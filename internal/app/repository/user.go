package repository

import (
	"context"
	"errors"
	"fmt"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/errs"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Методы для пользователей (ORM)

func (r *Repository) GetUserByID(ctx context.Context, id uint) (*ds.User, error) {
	var user ds.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: пользователь %d", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*ds.User, error) {
	var user ds.User
	err := r.db.WithContext(ctx).Where("login = ?", login).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: пользователь %s", errs.ErrNotFound, login)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser создаёт пользователя, занятый логин возвращает errs.ErrConflict
func (r *Repository) CreateUser(ctx context.Context, user *ds.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: логин %s занят", errs.ErrConflict, user.Login)
	}
	return err
}

// UpdateUser обновляет профиль (ФИО, email, хеш пароля)
func (r *Repository) UpdateUser(ctx context.Context, user *ds.User) error {
	result := r.db.WithContext(ctx).Model(&ds.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"full_name": user.FullName,
		"email":     user.Email,
		"password":  user.Password,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: пользователь %d", errs.ErrNotFound, user.ID)
	}
	return nil
}

// EnsureModerator создаёт модератора с заданным логином.
// Существующий пользователь с этим логином получает роль модератора, пароль не меняется
func (r *Repository) EnsureModerator(ctx context.Context, login, passwordHash string) (*ds.User, error) {
	user, err := r.GetUserByLogin(ctx, login)
	if errs.IsNotFound(err) {
		user = &ds.User{
			Login:       login,
			Password:    passwordHash,
			IsModerator: true,
		}
		if err := r.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if err != nil {
		return nil, err
	}
	if user.IsModerator {
		return user, nil
	}

	err = r.db.WithContext(ctx).Model(&ds.User{}).Where("id = ?", user.ID).Update("is_moderator", true).Error
	if err != nil {
		return nil, fmt.Errorf("promote user %s: %w", login, err)
	}
	user.IsModerator = true
	logrus.Warnf("existing user %s (id %d) promoted to moderator", user.Login, user.ID)
	return user, nil
}
