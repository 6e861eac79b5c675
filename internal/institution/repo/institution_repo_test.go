package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sodam-care/service-care-go/internal/institution/entity"
)

func newRepoWithMock(t *testing.T) (*InstitutionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewInstitutionRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestExists(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM institutions WHERE id = \$1\)`).
		WithArgs("ABC123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM institutions WHERE id = \$1`).
		WithArgs("NOPE00").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "NOPE00")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO institutions \(id, name, address\) VALUES \(\$1, \$2, \$3\) RETURNING created_at`).
		WithArgs("ABC123", "Sodam Center", "Seoul").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	in := &entity.Institution{ID: "ABC123", Name: "Sodam Center", Address: "Seoul"}
	require.NoError(t, repo.Create(context.Background(), in))
	assert.Equal(t, created, in.CreatedAt)
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT INTO institutions`).WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &entity.Institution{ID: "ABC123"})
	assert.ErrorIs(t, err, ErrDuplicate)
}
