package compliance

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/solapay/compliance-engine/internal/domain/errors"
)

// CheckStatus is the decision state of a compliance check
type CheckStatus string

const (
	StatusPending  CheckStatus = "pending"
	StatusApproved CheckStatus = "approved"
	StatusBlocked  CheckStatus = "blocked"
	StatusReview   CheckStatus = "review"
	StatusRejected CheckStatus = "rejected"
	StatusExpired  CheckStatus = "expired"
)

// RiskLevel is the discrete risk classification derived from the risk score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskLevelFromScore maps a 0-100 risk score to a discrete level. Boundaries
// are half-open on the lower bound: 25 is medium, 75 is critical.
func RiskLevelFromScore(score int) RiskLevel {
	switch {
	case score < 25:
		return RiskLevelLow
	case score < 50:
		return RiskLevelMedium
	case score < 75:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// Check is the auditable record of one transaction evaluation. The pipeline
// builds it atomically and returns it in a terminal automated state; the only
// mutation allowed afterwards is the manual-review transition.
type Check struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID string    `json:"organization_id"`
	CustomerID     string    `json:"customer_id,omitempty"`
	AccountID      string    `json:"account_id,omitempty"`
	TransactionID  string    `json:"transaction_id,omitempty"`

	Status    CheckStatus `json:"status"`
	RiskLevel RiskLevel   `json:"risk_level"`
	RiskScore int         `json:"risk_score"`

	RulesEvaluated []string `json:"rules_evaluated"`
	RulesTriggered []string `json:"rules_triggered"`
	Reason         string   `json:"reason,omitempty"`

	SanctionsMatches []SanctionMatch `json:"sanctions_matches,omitempty"`

	RequiresManualReview bool       `json:"requires_manual_review"`
	ReviewedBy           string     `json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes          string     `json:"review_notes,omitempty"`

	Details  map[string]interface{} `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IsApproved reports whether the check passed
func (c *Check) IsApproved() bool {
	return c.Status == StatusApproved
}

// IsBlocked reports whether the check is a hard stop
func (c *Check) IsBlocked() bool {
	return c.Status == StatusBlocked
}

// NeedsReview reports whether a human decision is outstanding
func (c *Check) NeedsReview() bool {
	return c.Status == StatusReview
}

// IsHighRisk reports whether the check landed in the high or critical band
func (c *Check) IsHighRisk() bool {
	return c.RiskLevel == RiskLevelHigh || c.RiskLevel == RiskLevelCritical
}

// IsExpired reports whether the check result has aged out
func (c *Check) IsExpired() bool {
	return c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt)
}

// Approve transitions a review-state check to approved. Only a REVIEW-status
// record may be reviewed, and only once: a second attempt fails because the
// record is already terminal.
func (c *Check) Approve(reviewerID, notes string) error {
	if err := c.reviewable(reviewerID); err != nil {
		return err
	}

	now := time.Now()
	c.Status = StatusApproved
	c.ReviewedBy = reviewerID
	c.ReviewedAt = &now
	c.ReviewNotes = notes
	return nil
}

// Reject transitions a review-state check to rejected with a mandatory reason
func (c *Check) Reject(reviewerID, reason string) error {
	if reason == "" {
		return errors.NewValidationError("EMPTY_REJECT_REASON",
			"a rejection reason is required")
	}
	if err := c.reviewable(reviewerID); err != nil {
		return err
	}

	now := time.Now()
	c.Status = StatusRejected
	c.ReviewedBy = reviewerID
	c.ReviewedAt = &now
	c.ReviewNotes = reason
	c.Reason = reason
	return nil
}

func (c *Check) reviewable(reviewerID string) error {
	if reviewerID == "" {
		return errors.NewValidationError("EMPTY_REVIEWER", "reviewer id is required")
	}
	if c.Status != StatusReview {
		return errors.NewConflictError(fmt.Sprintf(
			"check %s is %s, only review-status checks can be reviewed", c.ID, c.Status))
	}
	return nil
}
