package careuser

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/sodam-care/service-care-go/internal/careuser/entity"
	"github.com/sodam-care/service-care-go/internal/careuser/repo"
)

// Store is the persistence the care-user service needs.
type Store interface {
	Create(ctx context.Context, c *entity.CareUser) error
	CreateBulk(ctx context.Context, records []*entity.CareUser) error
	ListByInstitution(ctx context.Context, institutionID string) ([]entity.CareUser, error)
	ListByGuardian(ctx context.Context, guardianID string) ([]entity.CareUser, error)
}

// SQLStore backs Store with Postgres.
type SQLStore struct {
	db *sqlx.DB
	*repo.CareUserRepo
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, CareUserRepo: repo.NewCareUserRepo(db)}
}

func (s *SQLStore) CreateBulk(ctx context.Context, records []*entity.CareUser) error {
	return repo.CreateBulk(ctx, s.db, records)
}
