package auth

import (
	"context"

	"github.com/jmoiron/sqlx"

	instentity "github.com/sodam-care/service-care-go/internal/institution/entity"
	instrepo "github.com/sodam-care/service-care-go/internal/institution/repo"
	"github.com/sodam-care/service-care-go/internal/user/entity"
	userrepo "github.com/sodam-care/service-care-go/internal/user/repo"
	"github.com/sodam-care/service-care-go/pkg/database"
)

// UserStore is the user half of the credential store.
// Missing rows are reported as userrepo.ErrNotFound.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, id string, p entity.Patch) error
}

// InstitutionStore is the institution half of the credential store.
// Missing rows are reported as instrepo.ErrNotFound.
type InstitutionStore interface {
	GetByID(ctx context.Context, id string) (*instentity.Institution, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, in *instentity.Institution) error
}

// Stores bundles the credential store and a way to run several writes atomically.
type Stores interface {
	Users() UserStore
	Institutions() InstitutionStore
	WithinTx(ctx context.Context, fn func(ctx context.Context, users UserStore, institutions InstitutionStore) error) error
}

// SQLStores is the Postgres-backed Stores.
type SQLStores struct {
	db           *sqlx.DB
	users        *userrepo.UserRepo
	institutions *instrepo.InstitutionRepo
}

func NewSQLStores(db *sqlx.DB) *SQLStores {
	return &SQLStores{
		db:           db,
		users:        userrepo.NewUserRepo(db),
		institutions: instrepo.NewInstitutionRepo(db),
	}
}

func (s *SQLStores) Users() UserStore               { return s.users }
func (s *SQLStores) Institutions() InstitutionStore { return s.institutions }

func (s *SQLStores) WithinTx(ctx context.Context, fn func(ctx context.Context, users UserStore, institutions InstitutionStore) error) error {
	return database.WithTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, s.users.WithTx(tx), s.institutions.WithTx(tx))
	})
}
