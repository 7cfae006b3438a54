package repository

import (
	"vpsrental/internal/app/ds"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var migrations = []*gormigrate.Migration{
	{
		ID: "202501150001_initial",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&ds.User{},
				&ds.Service{},
				&ds.Application{},
				&ds.ApplicationService{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable("application_services", "applications", "services", "users")
		},
	},
	{
		// не более одного черновика на пользователя
		ID: "202501150002_one_draft_per_user",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_applications_one_draft
				ON applications (user_creator_id) WHERE status = 'DRAFT'`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DROP INDEX IF EXISTS idx_applications_one_draft`).Error
		},
	},
}

// Migrate применяет все миграции схемы
func (r *Repository) Migrate() error {
	return gormigrate.New(r.db, gormigrate.DefaultOptions, migrations).Migrate()
}

// RollbackLast откатывает последнюю применённую миграцию
func (r *Repository) RollbackLast() error {
	return gormigrate.New(r.db, gormigrate.DefaultOptions, migrations).RollbackLast()
}
