package compliance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VelocityLimits are the configured ceilings for a monitoring window
type VelocityLimits struct {
	CountLimit  *int             `json:"count_limit,omitempty"`
	AmountLimit *decimal.Decimal `json:"amount_limit,omitempty"`
}

// Limit names recorded in VelocityCheck.ExceededLimits
const (
	VelocityLimitCount  = "count_limit"
	VelocityLimitAmount = "amount_limit"
)

// VelocityCheck is the outcome of one spend-rate evaluation for a window
type VelocityCheck struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID string    `json:"organization_id"`
	CustomerID     string    `json:"customer_id"`
	AccountID      string    `json:"account_id,omitempty"`

	Period    string    `json:"period"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	TransactionCount int             `json:"transaction_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AverageAmount    decimal.Decimal `json:"average_amount"`
	MaxAmount        decimal.Decimal `json:"max_amount"`

	Limits VelocityLimits `json:"limits"`

	LimitExceeded  bool     `json:"limit_exceeded"`
	ExceededLimits []string `json:"exceeded_limits,omitempty"`

	CheckedAt time.Time `json:"checked_at"`
}
