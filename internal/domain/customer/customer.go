package customer

import (
	"strings"
	"time"
)

// Status is the lifecycle status of a customer record
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed"
)

// KYCStatus tracks identity verification progress
type KYCStatus string

const (
	KYCNotStarted KYCStatus = "not_started"
	KYCInProgress KYCStatus = "in_progress"
	KYCVerified   KYCStatus = "verified"
	KYCRejected   KYCStatus = "rejected"
	KYCExpired    KYCStatus = "expired"
)

// Customer is the read model of a platform customer consumed by the pipeline
type Customer struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Status         Status    `json:"status"`
	KYCStatus      KYCStatus `json:"kyc_status"`
	Nationality    string    `json:"nationality,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FullName returns the screening name for the customer
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// IsActive reports whether the customer may transact at all
func (c *Customer) IsActive() bool {
	return c.Status == StatusActive
}

// IsKYCVerified reports whether identity verification has completed
func (c *Customer) IsKYCVerified() bool {
	return c.KYCStatus == KYCVerified
}

// CanTransact reports whether the customer passes the basic gates
func (c *Customer) CanTransact() bool {
	return c.IsActive() && c.IsKYCVerified()
}
