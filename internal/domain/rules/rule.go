package rules

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solapay/compliance-engine/internal/domain/errors"
)

// RuleType categorizes what a compliance rule watches for
type RuleType string

const (
	RuleTypeAmountThreshold          RuleType = "amount_threshold"
	RuleTypeVelocity                 RuleType = "velocity"
	RuleTypeGeoFencing               RuleType = "geo_fencing"
	RuleTypeSanctionScreening        RuleType = "sanction_screening"
	RuleTypeKYCVerification          RuleType = "kyc_verification"
	RuleTypePEPCheck                 RuleType = "pep_check"
	RuleTypePatternDetection         RuleType = "pattern_detection"
	RuleTypeBlacklist                RuleType = "blacklist"
	RuleTypeWhitelist                RuleType = "whitelist"
	RuleTypeTimeRestriction          RuleType = "time_restriction"
	RuleTypeCurrencyRestriction      RuleType = "currency_restriction"
	RuleTypePaymentMethodRestriction RuleType = "payment_method_restriction"
	RuleTypeCustom                   RuleType = "custom"
)

// Action is what the pipeline does when a rule triggers
type Action string

const (
	ActionAllow             Action = "allow"
	ActionBlock             Action = "block"
	ActionReview            Action = "review"
	ActionAlert             Action = "alert"
	ActionLog               Action = "log"
	ActionIncreaseRiskScore Action = "increase_risk_score"
	ActionRequireApproval   Action = "require_approval"
)

// Severity grades a triggered rule
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Scope bounds where a rule applies
type Scope string

const (
	ScopeGlobal       Scope = "global"
	ScopeOrganization Scope = "organization"
	ScopeCustomer     Scope = "customer"
	ScopeAccount      Scope = "account"
)

// Logic combines a rule's condition results
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Rule is one configurable compliance rule. Conditions combine under
// ConditionsLogic; AppliesTo is an explicit allow-list of target ids within
// the scope (empty = everyone in scope).
type Rule struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID string    `json:"organization_id,omitempty"`

	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        RuleType `json:"rule_type"`

	Scope     Scope    `json:"scope"`
	AppliesTo []string `json:"applies_to,omitempty"`

	Conditions      []Condition `json:"conditions"`
	ConditionsLogic Logic       `json:"conditions_logic"`

	Action          Action   `json:"action"`
	Severity        Severity `json:"severity"`
	RiskScoreImpact int      `json:"risk_score_impact"`
	Message         string   `json:"message,omitempty"`

	Enabled  bool `json:"enabled"`
	Priority int  `json:"priority"`

	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt *time.Time             `json:"updated_at,omitempty"`
	CreatedBy string                 `json:"created_by,omitempty"`
}

// Evaluate reports whether the rule triggers for the context. Disabled rules
// and rules with no conditions never trigger. A conditions logic outside
// AND/OR fails closed rather than defaulting to either.
func (r *Rule) Evaluate(context map[string]interface{}) bool {
	if !r.Enabled {
		return false
	}
	if len(r.Conditions) == 0 {
		return false
	}

	switch r.ConditionsLogic {
	case LogicAnd:
		for _, c := range r.Conditions {
			if !c.Evaluate(context) {
				return false
			}
		}
		return true
	case LogicOr:
		for _, c := range r.Conditions {
			if c.Evaluate(context) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ShouldApplyTo reports whether the rule is in force for the target id.
// Global rules apply to everyone; an empty allow-list applies to everyone in
// scope; otherwise the target must be an exact member of the allow-list.
func (r *Rule) ShouldApplyTo(targetID string) bool {
	if !r.Enabled {
		return false
	}
	if r.Scope == ScopeGlobal {
		return true
	}
	if len(r.AppliesTo) == 0 {
		return true
	}
	for _, id := range r.AppliesTo {
		if id == targetID {
			return true
		}
	}
	return false
}

// Validate checks the rule configuration before it is stored
func (r *Rule) Validate() error {
	if r.Name == "" {
		return errors.NewValidationError("EMPTY_RULE_NAME", "rule name cannot be empty")
	}
	if r.RiskScoreImpact < 0 || r.RiskScoreImpact > 100 {
		return errors.NewValidationError("INVALID_RISK_IMPACT",
			fmt.Sprintf("risk score impact %d outside [0,100]", r.RiskScoreImpact))
	}
	if r.Priority < 1 || r.Priority > 1000 {
		return errors.NewValidationError("INVALID_PRIORITY",
			fmt.Sprintf("priority %d outside [1,1000]", r.Priority))
	}
	if r.ConditionsLogic != LogicAnd && r.ConditionsLogic != LogicOr {
		return errors.NewValidationError("INVALID_CONDITIONS_LOGIC",
			fmt.Sprintf("conditions logic %q must be AND or OR", r.ConditionsLogic))
	}
	for i, c := range r.Conditions {
		if c.Field == "" {
			return errors.NewValidationError("EMPTY_CONDITION_FIELD",
				fmt.Sprintf("condition %d has no field", i))
		}
		if !IsValidOperator(c.Operator) {
			return errors.NewValidationError("INVALID_OPERATOR",
				fmt.Sprintf("condition %d operator %q is not supported", i, c.Operator))
		}
	}
	return nil
}

// EvaluationResult records one rule evaluation within a pipeline run
type EvaluationResult struct {
	RuleID          uuid.UUID `json:"rule_id"`
	RuleName        string    `json:"rule_name"`
	Triggered       bool      `json:"triggered"`
	Action          Action    `json:"action,omitempty"`
	Severity        Severity  `json:"severity,omitempty"`
	Message         string    `json:"message,omitempty"`
	RiskScoreImpact int       `json:"risk_score_impact"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// RuleSet declares how an organization's rules are iterated
type RuleSet struct {
	ID                 uuid.UUID `json:"id"`
	OrganizationID     string    `json:"organization_id,omitempty"`
	Name               string    `json:"name"`
	Enabled            bool      `json:"enabled"`
	StopOnFirstTrigger bool      `json:"stop_on_first_trigger"`
	CreatedAt          time.Time `json:"created_at"`
}
