package organization

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the operational status of an organization on the platform
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed"
)

// KYBStatus tracks Know Your Business verification progress
type KYBStatus string

const (
	KYBNotStarted KYBStatus = "not_started"
	KYBInProgress KYBStatus = "in_progress"
	KYBVerified   KYBStatus = "verified"
	KYBRejected   KYBStatus = "rejected"
)

// ComplianceLevel controls how aggressively the pipeline blocks borderline
// transactions for an organization.
type ComplianceLevel string

const (
	ComplianceLevelBasic    ComplianceLevel = "basic"
	ComplianceLevelStandard ComplianceLevel = "standard"
	ComplianceLevelStrict   ComplianceLevel = "strict"
)

// Settings holds the per-organization transaction policy consumed by the
// compliance pipeline. Owned by the platform; read-only here.
type Settings struct {
	AllowedCurrencies        []string         `json:"allowed_currencies"`
	MaxTransactionAmount     *decimal.Decimal `json:"max_transaction_amount,omitempty"`
	MaxDailyTransactionLimit *decimal.Decimal `json:"max_daily_transaction_limit,omitempty"`
	AllowMobileMoney         bool             `json:"allow_mobile_money"`
	AllowInternational       bool             `json:"allow_international"`
	RestrictedCountries      []string         `json:"restricted_countries"`
	ComplianceLevel          ComplianceLevel  `json:"compliance_level"`
	EnableSanctionsScreening bool             `json:"enable_sanctions_screening"`
	EnableVelocityMonitoring bool             `json:"enable_velocity_monitoring"`
}

// CurrencyAllowed reports whether the organization accepts the currency
func (s Settings) CurrencyAllowed(currency string) bool {
	for _, c := range s.AllowedCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

// CountryRestricted reports whether the organization blocks the destination
func (s Settings) CountryRestricted(code string) bool {
	for _, c := range s.RestrictedCountries {
		if c == code {
			return true
		}
	}
	return false
}

// Organization is the read model of a platform tenant
type Organization struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	KYBStatus  KYBStatus  `json:"kyb_status"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	Settings   Settings   `json:"settings"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsActive reports whether the organization is in active status
func (o *Organization) IsActive() bool {
	return o.Status == StatusActive
}

// IsVerified reports whether KYB verification has completed
func (o *Organization) IsVerified() bool {
	return o.KYBStatus == KYBVerified && o.VerifiedAt != nil
}

// CanOperate reports whether the organization may move funds at all
func (o *Organization) CanOperate() bool {
	return o.IsActive() && o.IsVerified()
}
