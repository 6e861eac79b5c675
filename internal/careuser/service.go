package careuser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sodam-care/service-care-go/internal/auth"
	"github.com/sodam-care/service-care-go/internal/careuser/entity"
	"github.com/sodam-care/service-care-go/pkg/apperror"
	"github.com/sodam-care/service-care-go/pkg/utilities"
)

const (
	maxGenderLength = 10
	MaxBulkRecords  = 1000
)

// CreateInput is one care-user record as submitted by a client.
type CreateInput struct {
	Name          string  `json:"name"`
	Age           *int    `json:"age"`
	Gender        string  `json:"gender"`
	Address       string  `json:"address"`
	RiskLevel     string  `json:"riskLevel"`
	MainCondition string  `json:"mainCondition"`
	AISchedule    string  `json:"aiSchedule"`
	LastAIReport  *string `json:"lastAiReport"`
	Manager       *string `json:"manager"`
}

type Service struct {
	store  Store
	logger *zap.SugaredLogger
	newID  func() string
}

func NewService(store Store, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: store, logger: logger, newID: utilities.NewUUID}
}

// Create stores one record in the caller's scope.
func (s *Service) Create(ctx context.Context, owner auth.Identity, in CreateInput) (*entity.CareUser, error) {
	c, err := s.build(owner, in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, apperror.Internal("failed to create care user", err)
	}
	s.logger.Infow("care user created", "id", c.ID, "regType", c.RegType)
	return c, nil
}

// List returns the caller's records, newest first.
func (s *Service) List(ctx context.Context, owner auth.Identity) ([]entity.CareUser, error) {
	var (
		out []entity.CareUser
		err error
	)
	if owner.InstitutionID != nil {
		out, err = s.store.ListByInstitution(ctx, *owner.InstitutionID)
	} else {
		out, err = s.store.ListByGuardian(ctx, owner.UserID)
	}
	if err != nil {
		return nil, apperror.Internal("failed to list care users", err)
	}
	return out, nil
}

// CreateBulk validates every row up front, then inserts them all in a
// single transaction. Either every row is stored or none is.
func (s *Service) CreateBulk(ctx context.Context, owner auth.Identity, inputs []CreateInput) ([]*entity.CareUser, error) {
	if len(inputs) == 0 {
		return nil, apperror.Invalid("no records to insert")
	}
	if len(inputs) > MaxBulkRecords {
		return nil, apperror.Invalid(fmt.Sprintf("at most %d records per request", MaxBulkRecords))
	}
	records := make([]*entity.CareUser, 0, len(inputs))
	for i, in := range inputs {
		c, err := s.build(owner, in)
		if err != nil {
			return nil, apperror.Invalid(fmt.Sprintf("row %d: %s", i+1, apperror.PublicMessage(err)))
		}
		records = append(records, c)
	}
	if err := s.store.CreateBulk(ctx, records); err != nil {
		s.logger.Warnw("bulk insert rolled back", "count", len(records), "err", err)
		return nil, apperror.Internal("bulk insert failed", err)
	}
	s.logger.Infow("care users bulk created", "count", len(records))
	return records, nil
}

func (s *Service) build(owner auth.Identity, in CreateInput) (*entity.CareUser, error) {
	c := &entity.CareUser{
		ID:            s.newID(),
		Name:          strings.TrimSpace(in.Name),
		Gender:        strings.TrimSpace(in.Gender),
		Address:       strings.TrimSpace(in.Address),
		RiskLevel:     entity.RiskLevel(strings.ToUpper(strings.TrimSpace(in.RiskLevel))),
		MainCondition: strings.TrimSpace(in.MainCondition),
		AISchedule:    strings.TrimSpace(in.AISchedule),
		LastAIReport:  in.LastAIReport,
		Manager:       in.Manager,
	}
	switch {
	case c.Name == "":
		return nil, apperror.Invalid("name is required")
	case in.Age == nil:
		return nil, apperror.Invalid("age is required")
	case *in.Age < 0:
		return nil, apperror.Invalid("age must not be negative")
	case c.Gender == "":
		return nil, apperror.Invalid("gender is required")
	case utf8.RuneCountInString(c.Gender) > maxGenderLength:
		return nil, apperror.Invalid("gender is too long")
	case c.Address == "":
		return nil, apperror.Invalid("address is required")
	case c.MainCondition == "":
		return nil, apperror.Invalid("mainCondition is required")
	case c.AISchedule == "":
		return nil, apperror.Invalid("aiSchedule is required")
	}
	c.Age = *in.Age
	if c.RiskLevel == "" {
		c.RiskLevel = entity.RiskLow
	}
	if !c.RiskLevel.Valid() {
		return nil, apperror.Invalid("riskLevel must be one of HIGH, MEDIUM, LOW")
	}

	if owner.InstitutionID != nil {
		inst := *owner.InstitutionID
		c.RegType = entity.RegInstitution
		c.InstitutionID = &inst
	} else {
		guardian := owner.UserID
		c.RegType = entity.RegPrivate
		c.GuardianID = &guardian
	}
	return c, nil
}
