package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/solapay/compliance-engine/internal/domain/compliance"
	"github.com/solapay/compliance-engine/internal/domain/customer"
	"github.com/solapay/compliance-engine/internal/domain/organization"
	"github.com/solapay/compliance-engine/internal/domain/rules"
	"github.com/solapay/compliance-engine/internal/domain/values"
)

// OrganizationStore reads organization records owned by the platform's
// account system. The engine only ever reads them.
type OrganizationStore interface {
	GetByID(ctx context.Context, id string) (*organization.Organization, error)
}

// CustomerStore reads customer records owned by the platform's account
// system. The engine only ever reads them.
type CustomerStore interface {
	GetByID(ctx context.Context, id string) (*customer.Customer, error)
}

// CheckRepository persists compliance check records
type CheckRepository interface {
	Create(ctx context.Context, check *compliance.Check) error
	GetByID(ctx context.Context, id uuid.UUID) (*compliance.Check, error)
	Update(ctx context.Context, check *compliance.Check) error
	ListPendingReview(ctx context.Context, organizationID string, limit int) ([]*compliance.Check, error)
}

// SanctionsScreener screens names and countries against watchlists
type SanctionsScreener interface {
	Screen(name string, sources []values.ListSource, threshold float64) []compliance.SanctionMatch
	ScreenCountry(code string) bool
}

// CountryRiskAssessor scores jurisdiction risk
type CountryRiskAssessor interface {
	Score(countryCode string) int
	IsHighRisk(countryCode string) bool
}

// VelocityChecker evaluates spend-rate limits
type VelocityChecker interface {
	CheckDaily(ctx context.Context, org *organization.Organization, customerID string, amount decimal.Decimal, now time.Time) (*compliance.VelocityCheck, error)
}

// RuleEvaluator runs an organization's custom rules against transaction context
type RuleEvaluator interface {
	Evaluate(ctx context.Context, organizationID, targetID string, txContext map[string]interface{}, set *rules.RuleSet) ([]rules.EvaluationResult, error)
}
