package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"3tcapital/ms_fiscal_receipts/internal/core/company"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/database"
)

// Repository implements company.Repository using PostgreSQL.
type Repository struct {
	db    database.DB
	table string
}

// NewRepository creates a company repository on schema.
func NewRepository(db database.DB, schema database.Schema) *Repository {
	return &Repository{db: db, table: schema.Table("company")}
}

// FindByTaxIDAndLocation returns nil when no company matches.
func (r *Repository) FindByTaxIDAndLocation(ctx context.Context, taxID, locationName string) (*company.Company, error) {
	query := `
		SELECT id, tax_id, business_name, location_name,
		       COALESCE(city, ''), COALESCE(administrative_unit, ''), COALESCE(address, ''), created_at
		FROM ` + r.table + `
		WHERE tax_id = $1 AND location_name = $2
	`

	var c company.Company
	err := r.db.QueryRow(ctx, query, taxID, locationName).Scan(
		&c.ID,
		&c.TaxID,
		&c.BusinessName,
		&c.LocationName,
		&c.City,
		&c.AdministrativeUnit,
		&c.Address,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find company: %w", err)
	}

	return &c, nil
}

// Create inserts c with a fresh time-ordered id. A concurrent insert of the
// same (tax id, location name) returns company.ErrAlreadyExists.
func (r *Repository) Create(ctx context.Context, c company.Company) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate company id: %w", err)
	}

	query := `
		INSERT INTO ` + r.table + ` (
			id, tax_id, business_name, location_name, city, administrative_unit, address
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.Exec(ctx, query,
		id,
		c.TaxID,
		c.BusinessName,
		c.LocationName,
		c.City,
		c.AdministrativeUnit,
		c.Address,
	)
	if err != nil {
		if _, ok := database.UniqueViolation(err); ok {
			return uuid.Nil, fmt.Errorf("create company %s/%s: %w", c.TaxID, c.LocationName, company.ErrAlreadyExists)
		}
		return uuid.Nil, fmt.Errorf("create company: %w", err)
	}

	return id, nil
}
