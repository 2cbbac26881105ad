package risk

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/solapay/compliance-engine/internal/domain/compliance"
	"github.com/solapay/compliance-engine/internal/domain/organization"
)

// DailyStats summarizes a customer's prior activity inside one UTC day
type DailyStats struct {
	Count int
	Total decimal.Decimal
	Max   decimal.Decimal
}

// TransactionHistory supplies prior-activity aggregates for velocity windows.
// Implementations typically query the payments store; the monitor works
// without one by evaluating the current transaction alone.
type TransactionHistory interface {
	DailyStats(ctx context.Context, organizationID, customerID string, day time.Time) (DailyStats, error)
}

// Monitor evaluates spend-rate limits for the velocity pipeline stage
type Monitor struct {
	history TransactionHistory
	logger  *zap.Logger
}

// MonitorOption configures a Monitor
type MonitorOption func(*Monitor)

// WithTransactionHistory wires a prior-activity source
func WithTransactionHistory(h TransactionHistory) MonitorOption {
	return func(m *Monitor) { m.history = h }
}

func NewMonitor(logger *zap.Logger, opts ...MonitorOption) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckDaily evaluates the organization's daily amount limit against the
// current transaction plus any prior activity in the same UTC day. A history
// read failure degrades to evaluating the current transaction alone rather
// than failing the pipeline.
func (m *Monitor) CheckDaily(ctx context.Context, org *organization.Organization, customerID string, amount decimal.Decimal, now time.Time) (*compliance.VelocityCheck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	day := now.UTC().Truncate(24 * time.Hour)
	check := &compliance.VelocityCheck{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		CustomerID:     customerID,
		Period:         "daily",
		StartTime:      day,
		EndTime:        day.Add(24 * time.Hour),
		CheckedAt:      now.UTC(),
	}

	stats := DailyStats{Total: decimal.Zero, Max: decimal.Zero}
	if m.history != nil {
		prior, err := m.history.DailyStats(ctx, org.ID, customerID, day)
		if err != nil {
			m.logger.Warn("velocity history unavailable, evaluating current transaction only",
				zap.String("organization_id", org.ID),
				zap.Error(err),
			)
		} else {
			stats = prior
		}
	}

	check.TransactionCount = stats.Count + 1
	check.TotalAmount = stats.Total.Add(amount)
	check.MaxAmount = decimal.Max(stats.Max, amount)
	check.AverageAmount = check.TotalAmount.Div(decimal.NewFromInt(int64(check.TransactionCount)))

	if limit := org.Settings.MaxDailyTransactionLimit; limit != nil {
		check.Limits.AmountLimit = limit
		if check.TotalAmount.GreaterThan(*limit) {
			check.LimitExceeded = true
			check.ExceededLimits = append(check.ExceededLimits, compliance.VelocityLimitAmount)
		}
	}

	return check, nil
}
