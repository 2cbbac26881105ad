package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solapay/compliance-engine/internal/domain/errors"
	"github.com/solapay/compliance-engine/internal/domain/rules"
)

// RuleRepository persists compliance rules in Postgres
type RuleRepository struct {
	db *pgxpool.Pool
}

func NewRuleRepository(db *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `
	id, organization_id, name, description, rule_type,
	scope, applies_to, conditions, conditions_logic,
	action, severity, risk_score_impact, message,
	enabled, priority, metadata, created_at, updated_at, created_by`

// ListActive returns the enabled rules visible to an organization: its own
// plus global rules with no organization.
func (r *RuleRepository) ListActive(ctx context.Context, organizationID string) ([]*rules.Rule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM compliance_rules
		WHERE enabled = true
		  AND (organization_id = $1 OR organization_id = '')
		ORDER BY priority ASC, id ASC`

	rows, err := r.db.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("listing active rules: %w", err)
	}
	defer rows.Close()

	var out []*rules.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// GetByID loads one rule
func (r *RuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*rules.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM compliance_rules WHERE id = $1`
	return scanRule(r.db.QueryRow(ctx, query, id))
}

// Create inserts a new rule
func (r *RuleRepository) Create(ctx context.Context, rule *rules.Rule) error {
	conditions, metadata, err := marshalRuleJSON(rule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO compliance_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err = r.db.Exec(ctx, query,
		rule.ID, rule.OrganizationID, rule.Name, rule.Description, rule.Type,
		rule.Scope, rule.AppliesTo, conditions, rule.ConditionsLogic,
		rule.Action, rule.Severity, rule.RiskScoreImpact, rule.Message,
		rule.Enabled, rule.Priority, metadata, rule.CreatedAt, rule.UpdatedAt, rule.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

// Update rewrites an existing rule
func (r *RuleRepository) Update(ctx context.Context, rule *rules.Rule) error {
	conditions, metadata, err := marshalRuleJSON(rule)
	if err != nil {
		return err
	}

	query := `
		UPDATE compliance_rules
		SET name = $2, description = $3, rule_type = $4,
		    scope = $5, applies_to = $6, conditions = $7, conditions_logic = $8,
		    action = $9, severity = $10, risk_score_impact = $11, message = $12,
		    enabled = $13, priority = $14, metadata = $15, updated_at = $16
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		rule.ID, rule.Name, rule.Description, rule.Type,
		rule.Scope, rule.AppliesTo, conditions, rule.ConditionsLogic,
		rule.Action, rule.Severity, rule.RiskScoreImpact, rule.Message,
		rule.Enabled, rule.Priority, metadata, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("compliance rule")
	}
	return nil
}

func marshalRuleJSON(rule *rules.Rule) (conditions, metadata []byte, err error) {
	conditions, err = json.Marshal(rule.Conditions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling conditions: %w", err)
	}
	metadata, err = json.Marshal(rule.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling metadata: %w", err)
	}
	return conditions, metadata, nil
}

func scanRule(row pgx.Row) (*rules.Rule, error) {
	var (
		rule       rules.Rule
		conditions []byte
		metadata   []byte
	)

	err := row.Scan(
		&rule.ID, &rule.OrganizationID, &rule.Name, &rule.Description, &rule.Type,
		&rule.Scope, &rule.AppliesTo, &conditions, &rule.ConditionsLogic,
		&rule.Action, &rule.Severity, &rule.RiskScoreImpact, &rule.Message,
		&rule.Enabled, &rule.Priority, &metadata, &rule.CreatedAt, &rule.UpdatedAt, &rule.CreatedBy,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NewNotFoundError("compliance rule")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning rule: %w", err)
	}

	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
			return nil, fmt.Errorf("unmarshaling conditions: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rule.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &rule, nil
}
