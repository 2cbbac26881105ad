package compliance

import (
	"github.com/shopspring/decimal"
)

// ReportingThresholds configure the signals read by the downstream regulatory
// reporting system. This engine never files reports; it only exposes whether
// a check warrants one.
type ReportingThresholds struct {
	// CTRAmount is the currency-transaction-report amount threshold.
	CTRAmount decimal.Decimal `json:"ctr_amount"`
	// SARRiskScore is the minimum risk score that flags a check for a
	// suspicious-activity report.
	SARRiskScore int `json:"sar_risk_score"`
}

// DefaultReportingThresholds mirrors the US BSA defaults: CTR at 10,000 and
// SAR review at the critical risk band.
func DefaultReportingThresholds() ReportingThresholds {
	return ReportingThresholds{
		CTRAmount:    decimal.NewFromInt(10000),
		SARRiskScore: 75,
	}
}

// ShouldFileCTR reports whether the transaction amount crosses the currency
// transaction reporting threshold.
func (t ReportingThresholds) ShouldFileCTR(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(t.CTRAmount)
}

// ShouldFileSAR reports whether the check carries signals that warrant a
// suspicious-activity report: a risk score at or above the configured
// threshold, or any sanctions match on record.
func (t ReportingThresholds) ShouldFileSAR(check *Check) bool {
	if check == nil {
		return false
	}
	return check.RiskScore >= t.SARRiskScore || len(check.SanctionsMatches) > 0
}
