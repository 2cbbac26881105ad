package rules

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Prebuilt rule constructors for the most common compliance policies. Each
// returns a ready-to-store rule the organization can tune afterwards.

// NewHighValueTransactionRule flags transactions above threshold for review
func NewHighValueTransactionRule(organizationID string, threshold float64) *Rule {
	return &Rule{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Name:           "High Value Transaction",
		Description:    fmt.Sprintf("Flag transactions above %.2f for review", threshold),
		Type:           RuleTypeAmountThreshold,
		Scope:          ScopeOrganization,
		Conditions: []Condition{
			{Field: "amount", Operator: OpGreaterThan, Value: threshold, ValueType: ValueTypeNumber},
		},
		ConditionsLogic: LogicAnd,
		Action:          ActionReview,
		Severity:        SeverityHigh,
		RiskScoreImpact: 20,
		Message:         "High value transaction requires review",
		Enabled:         true,
		Priority:        100,
		CreatedAt:       time.Now(),
	}
}

// NewBlockedCountryRule blocks transactions destined for the given countries
func NewBlockedCountryRule(organizationID string, countries []string) *Rule {
	list := make([]interface{}, len(countries))
	for i, c := range countries {
		list[i] = c
	}
	return &Rule{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Name:           "Blocked Country",
		Description:    "Block transactions to restricted destinations",
		Type:           RuleTypeGeoFencing,
		Scope:          ScopeOrganization,
		Conditions: []Condition{
			{Field: "destination_country", Operator: OpIn, Value: list, ValueType: ValueTypeList},
		},
		ConditionsLogic: LogicAnd,
		Action:          ActionBlock,
		Severity:        SeverityCritical,
		RiskScoreImpact: 85,
		Message:         "Destination country is blocked by policy",
		Enabled:         true,
		Priority:        10,
		CreatedAt:       time.Now(),
	}
}

// NewDailyVelocityRule blocks customers exceeding a daily transaction count
func NewDailyVelocityRule(organizationID string, maxDailyCount int) *Rule {
	return &Rule{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Name:           "Daily Transaction Limit",
		Description:    fmt.Sprintf("Block after %d transactions in one day", maxDailyCount),
		Type:           RuleTypeVelocity,
		Scope:          ScopeOrganization,
		Conditions: []Condition{
			{Field: "daily_count", Operator: OpGreaterThan, Value: maxDailyCount, ValueType: ValueTypeNumber},
		},
		ConditionsLogic: LogicAnd,
		Action:          ActionBlock,
		Severity:        SeverityMedium,
		RiskScoreImpact: 40,
		Message:         "Daily transaction count limit exceeded",
		Enabled:         true,
		Priority:        50,
		CreatedAt:       time.Now(),
	}
}

// NewUnverifiedKYCRule blocks any customer whose KYC is not verified
func NewUnverifiedKYCRule(organizationID string) *Rule {
	return &Rule{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Name:           "Unverified KYC",
		Description:    "Block transactions for customers without verified KYC",
		Type:           RuleTypeKYCVerification,
		Scope:          ScopeOrganization,
		Conditions: []Condition{
			{Field: "kyc_status", Operator: OpNotEquals, Value: "verified", ValueType: ValueTypeString},
		},
		ConditionsLogic: LogicAnd,
		Action:          ActionBlock,
		Severity:        SeverityHigh,
		RiskScoreImpact: 30,
		Message:         "Customer KYC verification is required",
		Enabled:         true,
		Priority:        20,
		CreatedAt:       time.Now(),
	}
}
