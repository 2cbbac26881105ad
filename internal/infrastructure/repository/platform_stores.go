package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solapay/compliance-engine/internal/domain/customer"
	"github.com/solapay/compliance-engine/internal/domain/errors"
	"github.com/solapay/compliance-engine/internal/domain/organization"
)

// OrganizationStore reads organization records from the platform database.
// The engine never writes these tables; account lifecycle lives elsewhere.
type OrganizationStore struct {
	db *pgxpool.Pool
}

func NewOrganizationStore(db *pgxpool.Pool) *OrganizationStore {
	return &OrganizationStore{db: db}
}

func (s *OrganizationStore) GetByID(ctx context.Context, id string) (*organization.Organization, error) {
	query := `
		SELECT id, name, status, kyb_status, verified_at, settings, created_at
		FROM organizations
		WHERE id = $1`

	var (
		org      organization.Organization
		settings []byte
	)
	err := s.db.QueryRow(ctx, query, id).Scan(
		&org.ID, &org.Name, &org.Status, &org.KYBStatus,
		&org.VerifiedAt, &settings, &org.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NewNotFoundError("organization")
	}
	if err != nil {
		return nil, fmt.Errorf("loading organization: %w", err)
	}

	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &org.Settings); err != nil {
			return nil, fmt.Errorf("unmarshaling organization settings: %w", err)
		}
	}
	return &org, nil
}

// CustomerStore reads customer records from the platform database
type CustomerStore struct {
	db *pgxpool.Pool
}

func NewCustomerStore(db *pgxpool.Pool) *CustomerStore {
	return &CustomerStore{db: db}
}

func (s *CustomerStore) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	query := `
		SELECT id, organization_id, first_name, last_name,
		       status, kyc_status, nationality, created_at
		FROM customers
		WHERE id = $1`

	var c customer.Customer
	err := s.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.OrganizationID, &c.FirstName, &c.LastName,
		&c.Status, &c.KYCStatus, &c.Nationality, &c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NewNotFoundError("customer")
	}
	if err != nil {
		return nil, fmt.Errorf("loading customer: %w", err)
	}
	return &c, nil
}
