package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sodam-care/service-care-go/internal/careuser/entity"
	"github.com/sodam-care/service-care-go/pkg/database"
)

const careUserColumns = `id, name, age, gender, address, risk_level, main_condition, ai_schedule,
	last_ai_report, reg_type, institution_id, guardian_id, manager, created_at, updated_at`

type CareUserRepo struct {
	db database.DBTX
}

func NewCareUserRepo(db database.DBTX) *CareUserRepo { return &CareUserRepo{db: db} }

func (r *CareUserRepo) WithTx(tx *sqlx.Tx) *CareUserRepo { return &CareUserRepo{db: tx} }

// Create inserts c and fills in the server-side timestamps.
func (r *CareUserRepo) Create(ctx context.Context, c *entity.CareUser) error {
	q := r.db.Rebind(`INSERT INTO care_users (id, name, age, gender, address, risk_level, main_condition,
		ai_schedule, last_ai_report, reg_type, institution_id, guardian_id, manager)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at, updated_at`)
	row := r.db.QueryRowxContext(ctx, q,
		c.ID, c.Name, c.Age, c.Gender, c.Address, c.RiskLevel, c.MainCondition,
		c.AISchedule, c.LastAIReport, c.RegType, c.InstitutionID, c.GuardianID, c.Manager,
	)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("insert care user: %w", err)
	}
	return nil
}

func (r *CareUserRepo) ListByInstitution(ctx context.Context, institutionID string) ([]entity.CareUser, error) {
	return r.list(ctx, `institution_id = ?`, institutionID)
}

func (r *CareUserRepo) ListByGuardian(ctx context.Context, guardianID string) ([]entity.CareUser, error) {
	return r.list(ctx, `guardian_id = ?`, guardianID)
}

func (r *CareUserRepo) list(ctx context.Context, where string, arg any) ([]entity.CareUser, error) {
	out := []entity.CareUser{}
	q := r.db.Rebind(`SELECT ` + careUserColumns + ` FROM care_users WHERE ` + where + ` ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &out, q, arg); err != nil {
		return nil, fmt.Errorf("select care users: %w", err)
	}
	return out, nil
}

// CreateBulk inserts every record in one transaction. The first failing
// row aborts the batch and nothing is persisted.
func CreateBulk(ctx context.Context, db *sqlx.DB, records []*entity.CareUser) error {
	return database.WithTx(ctx, db, func(ctx context.Context, tx *sqlx.Tx) error {
		r := NewCareUserRepo(tx)
		for i, c := range records {
			if err := r.Create(ctx, c); err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		return nil
	})
}
