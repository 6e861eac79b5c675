package entity

import "time"

type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}

// RegType records who registered the care user.
type RegType string

const (
	RegInstitution RegType = "INSTITUTION"
	RegPrivate     RegType = "PRIVATE"
)

// CareUser is a monitored individual. Exactly one of InstitutionID and
// GuardianID is set, matching RegType.
type CareUser struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Age           int       `db:"age" json:"age"`
	Gender        string    `db:"gender" json:"gender"`
	Address       string    `db:"address" json:"address"`
	RiskLevel     RiskLevel `db:"risk_level" json:"riskLevel"`
	MainCondition string    `db:"main_condition" json:"mainCondition"`
	AISchedule    string    `db:"ai_schedule" json:"aiSchedule"`
	LastAIReport  *string   `db:"last_ai_report" json:"lastAiReport,omitempty"`
	RegType       RegType   `db:"reg_type" json:"regType"`
	InstitutionID *string   `db:"institution_id" json:"institutionId,omitempty"`
	GuardianID    *string   `db:"guardian_id" json:"guardianId,omitempty"`
	Manager       *string   `db:"manager" json:"manager,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}
