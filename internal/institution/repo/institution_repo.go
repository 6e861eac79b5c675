package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sodam-care/service-care-go/internal/institution/entity"
	"github.com/sodam-care/service-care-go/pkg/database"
)

var (
	ErrNotFound  = errors.New("institution not found")
	ErrDuplicate = errors.New("institution id already taken")
)

type InstitutionRepo struct {
	db database.DBTX
}

func NewInstitutionRepo(db database.DBTX) *InstitutionRepo { return &InstitutionRepo{db: db} }

func (r *InstitutionRepo) WithTx(tx *sqlx.Tx) *InstitutionRepo { return &InstitutionRepo{db: tx} }

func (r *InstitutionRepo) GetByID(ctx context.Context, id string) (*entity.Institution, error) {
	var in entity.Institution
	q := r.db.Rebind(`SELECT id, name, address, created_at FROM institutions WHERE id = ?`)
	if err := r.db.GetContext(ctx, &in, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select institution: %w", err)
	}
	return &in, nil
}

// Exists is the cheap lookup used by the id generator.
func (r *InstitutionRepo) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	q := r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM institutions WHERE id = ?)`)
	if err := r.db.GetContext(ctx, &ok, q, id); err != nil {
		return false, fmt.Errorf("check institution: %w", err)
	}
	return ok, nil
}

func (r *InstitutionRepo) Create(ctx context.Context, in *entity.Institution) error {
	q := r.db.Rebind(`INSERT INTO institutions (id, name, address) VALUES (?, ?, ?) RETURNING created_at`)
	if err := r.db.QueryRowxContext(ctx, q, in.ID, in.Name, in.Address).Scan(&in.CreatedAt); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert institution: %w", err)
	}
	return nil
}
