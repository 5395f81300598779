package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	corecompany "3tcapital/ms_fiscal_receipts/internal/core/company"
	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
	ctxutil "3tcapital/ms_fiscal_receipts/internal/infrastructure/context"
)

// Resolver maps an invoice issuer to a company id, creating the company on
// first sight. Existing companies are never updated.
type Resolver struct {
	repo corecompany.Repository
	log  *slog.Logger
}

// NewResolver creates a company resolver.
func NewResolver(repo corecompany.Repository, log *slog.Logger) *Resolver {
	return &Resolver{repo: repo, log: log}
}

// Resolve returns the id of the company identified by (TaxID, LocationName).
// Failures are reported wrapping invoice.ErrCompanyResolutionFailed.
func (r *Resolver) Resolve(ctx context.Context, issuer invoice.Issuer) (uuid.UUID, error) {
	existing, err := r.repo.FindByTaxIDAndLocation(ctx, issuer.TaxID, issuer.LocationName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: find company: %w", invoice.ErrCompanyResolutionFailed, err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	id, err := r.repo.Create(ctx, corecompany.Company{
		TaxID:              issuer.TaxID,
		BusinessName:       issuer.BusinessName,
		LocationName:       issuer.LocationName,
		City:               issuer.City,
		AdministrativeUnit: issuer.AdministrativeUnit,
		Address:            issuer.Address,
	})
	if err == nil {
		r.log.Info("company created",
			"correlation_id", ctxutil.GetCorrelationID(ctx),
			"company_id", id,
			"tax_id", issuer.TaxID,
			"location_name", issuer.LocationName,
		)
		return id, nil
	}
	if !errors.Is(err, corecompany.ErrAlreadyExists) {
		return uuid.Nil, fmt.Errorf("%w: create company: %w", invoice.ErrCompanyResolutionFailed, err)
	}

	// A concurrent run inserted the same pair first; use its row.
	winner, err := r.repo.FindByTaxIDAndLocation(ctx, issuer.TaxID, issuer.LocationName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: find company after conflict: %w", invoice.ErrCompanyResolutionFailed, err)
	}
	if winner == nil {
		return uuid.Nil, fmt.Errorf("%w: company vanished after conflict", invoice.ErrCompanyResolutionFailed)
	}
	return winner.ID, nil
}
