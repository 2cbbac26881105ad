// Package repository implements Postgres persistence for compliance checks
// and rules using pgx.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solapay/compliance-engine/internal/domain/compliance"
	"github.com/solapay/compliance-engine/internal/domain/errors"
)

// CheckRepository persists compliance check records in Postgres
type CheckRepository struct {
	db *pgxpool.Pool
}

func NewCheckRepository(db *pgxpool.Pool) *CheckRepository {
	return &CheckRepository{db: db}
}

// Create inserts a completed check record
func (r *CheckRepository) Create(ctx context.Context, check *compliance.Check) error {
	matches, err := json.Marshal(check.SanctionsMatches)
	if err != nil {
		return fmt.Errorf("marshaling sanctions matches: %w", err)
	}
	details, err := json.Marshal(check.Details)
	if err != nil {
		return fmt.Errorf("marshaling details: %w", err)
	}
	metadata, err := json.Marshal(check.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	query := `
		INSERT INTO compliance_checks (
			id, organization_id, customer_id, account_id, transaction_id,
			status, risk_level, risk_score,
			rules_evaluated, rules_triggered, reason,
			sanctions_matches, requires_manual_review,
			details, metadata, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = r.db.Exec(ctx, query,
		check.ID, check.OrganizationID, check.CustomerID, check.AccountID, check.TransactionID,
		check.Status, check.RiskLevel, check.RiskScore,
		check.RulesEvaluated, check.RulesTriggered, check.Reason,
		matches, check.RequiresManualReview,
		details, metadata, check.CreatedAt, check.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting compliance check: %w", err)
	}
	return nil
}

// GetByID loads one check record
func (r *CheckRepository) GetByID(ctx context.Context, id uuid.UUID) (*compliance.Check, error) {
	query := `
		SELECT id, organization_id, customer_id, account_id, transaction_id,
		       status, risk_level, risk_score,
		       rules_evaluated, rules_triggered, reason,
		       sanctions_matches, requires_manual_review,
		       reviewed_by, reviewed_at, review_notes,
		       details, metadata, created_at, expires_at
		FROM compliance_checks
		WHERE id = $1`

	return r.scanCheck(r.db.QueryRow(ctx, query, id))
}

// Update persists a manual review resolution
func (r *CheckRepository) Update(ctx context.Context, check *compliance.Check) error {
	query := `
		UPDATE compliance_checks
		SET status = $2, reason = $3,
		    reviewed_by = $4, reviewed_at = $5, review_notes = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		check.ID, check.Status, check.Reason,
		check.ReviewedBy, check.ReviewedAt, check.ReviewNotes,
	)
	if err != nil {
		return fmt.Errorf("updating compliance check: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("compliance check")
	}
	return nil
}

// ListPendingReview returns the organization's oldest unresolved review-state
// checks first, so the queue drains in arrival order.
func (r *CheckRepository) ListPendingReview(ctx context.Context, organizationID string, limit int) ([]*compliance.Check, error) {
	query := `
		SELECT id, organization_id, customer_id, account_id, transaction_id,
		       status, risk_level, risk_score,
		       rules_evaluated, rules_triggered, reason,
		       sanctions_matches, requires_manual_review,
		       reviewed_by, reviewed_at, review_notes,
		       details, metadata, created_at, expires_at
		FROM compliance_checks
		WHERE organization_id = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, organizationID, compliance.StatusReview, limit)
	if err != nil {
		return nil, fmt.Errorf("listing pending reviews: %w", err)
	}
	defer rows.Close()

	var checks []*compliance.Check
	for rows.Next() {
		check, err := r.scanCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, rows.Err()
}

func (r *CheckRepository) scanCheck(row pgx.Row) (*compliance.Check, error) {
	var (
		check    compliance.Check
		matches  []byte
		details  []byte
		metadata []byte
	)

	err := row.Scan(
		&check.ID, &check.OrganizationID, &check.CustomerID, &check.AccountID, &check.TransactionID,
		&check.Status, &check.RiskLevel, &check.RiskScore,
		&check.RulesEvaluated, &check.RulesTriggered, &check.Reason,
		&matches, &check.RequiresManualReview,
		&check.ReviewedBy, &check.ReviewedAt, &check.ReviewNotes,
		&details, &metadata, &check.CreatedAt, &check.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NewNotFoundError("compliance check")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning compliance check: %w", err)
	}

	if len(matches) > 0 {
		if err := json.Unmarshal(matches, &check.SanctionsMatches); err != nil {
			return nil, fmt.Errorf("unmarshaling sanctions matches: %w", err)
		}
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &check.Details); err != nil {
			return nil, fmt.Errorf("unmarshaling details: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &check.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &check, nil
}
