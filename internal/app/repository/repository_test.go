package repository

import (
	"context"
	"fmt"
	"testing"

	"vpsrental/internal/app/ds"
	"vpsrental/internal/app/errs"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewWithDB(gdb), mock
}

func uniqueErr() error {
	return &pgconn.PgError{Code: uniqueViolation, Message: "duplicate key value violates unique constraint"}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(uniqueErr()))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", uniqueErr())))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}

func TestGetDraftNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "applications" WHERE user_creator_id = \$1 AND status = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetDraft(context.Background(), 1)
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateDraftLosesRace(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`FROM "applications" WHERE user_creator_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "applications"`).
		WillReturnError(uniqueErr())
	mock.ExpectQuery(`FROM "applications" WHERE user_creator_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "user_creator_id"}).AddRow(7, "DRAFT", 1))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "login"}).AddRow(1, "alice"))

	app, err := repo.GetOrCreateDraft(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint(7), app.ID)
	assert.Equal(t, ds.StatusDraft, app.Status)
	assert.Equal(t, "alice", app.Creator.Login)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddServiceToApplicationDuplicate(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "application_services"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := repo.AddServiceToApplication(context.Background(), 3, 5)
	assert.True(t, errs.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddServiceToApplicationUniqueIndex(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "application_services"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO "application_services"`).
		WillReturnError(uniqueErr())

	err := repo.AddServiceToApplication(context.Background(), 3, 5)
	assert.True(t, errs.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveServiceFromApplicationMissing(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`DELETE FROM "application_services" WHERE application_id = \$1 AND service_id = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveServiceFromApplication(context.Background(), 3, 5)
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateApplicationStatus(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`UPDATE "applications" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateApplicationStatus(context.Background(), &ds.Application{ID: 3, Status: ds.StatusFormed})
	assert.NoError(t, err)

	mock.ExpectExec(`UPDATE "applications" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.UpdateApplicationStatus(context.Background(), &ds.Application{ID: 4, Status: ds.StatusFormed})
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListServicesFilters(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "services" WHERE is_active = \$1 AND name ILIKE \$2 AND price >= \$3 ORDER BY id`).
		WithArgs(true, "%vps%", 100.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "is_active"}).
			AddRow(1, "VPS Start", 300.0, true).
			AddRow(2, "VPS Pro", 900.0, true))

	services, err := repo.ListServices(context.Background(), ds.ServiceFilter{Name: "vps", MinPrice: lo.ToPtr(100.0)})
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "VPS Pro", services[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListServicesEscapesWildcards(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "services" WHERE is_active = \$1 AND name ILIKE \$2 ORDER BY id`).
		WithArgs(true, `%50\%\_off\\%`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	services, err := repo.ListServices(context.Background(), ds.ServiceFilter{Name: `50%_off\`})
	require.NoError(t, err)
	assert.Empty(t, services)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetServiceNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "services"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetService(context.Background(), 42)
	assert.True(t, errs.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserLoginTaken(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(uniqueErr())

	err := repo.CreateUser(context.Background(), &ds.User{Login: "alice", Password: "hash"})
	assert.True(t, errs.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureModeratorCreatesUser(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE login = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	user, err := repo.EnsureModerator(context.Background(), "admin", "hash")
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
	assert.True(t, user.IsModerator)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureModeratorPromotesExistingUser(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE login = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "login", "password", "is_moderator"}).
			AddRow(5, "admin", "old-hash", false))
	mock.ExpectExec(`UPDATE "users" SET .*"is_moderator"=\$1.* WHERE id = \$\d`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := repo.EnsureModerator(context.Background(), "admin", "new-hash")
	require.NoError(t, err)
	assert.Equal(t, uint(5), user.ID)
	assert.True(t, user.IsModerator)
	assert.Equal(t, "old-hash", user.Password, "password of an existing user is kept")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureModeratorKeepsModerator(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE login = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "login", "is_moderator"}).AddRow(3, "admin", true))

	user, err := repo.EnsureModerator(context.Background(), "admin", "hash")
	require.NoError(t, err)
	assert.Equal(t, uint(3), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
