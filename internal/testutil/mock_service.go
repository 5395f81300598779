package testutil

import (
	"context"

	"github.com/google/uuid"

	"3tcapital/ms_fiscal_receipts/internal/core/company"
	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
)

// MockCompanyRepository is a mock implementation of company.Repository for testing.
type MockCompanyRepository struct {
	FindByTaxIDAndLocationFunc func(ctx context.Context, taxID, locationName string) (*company.Company, error)
	CreateFunc                 func(ctx context.Context, c company.Company) (uuid.UUID, error)
}

// FindByTaxIDAndLocation calls the mock function if set, otherwise reports not found.
func (m *MockCompanyRepository) FindByTaxIDAndLocation(ctx context.Context, taxID, locationName string) (*company.Company, error) {
	if m.FindByTaxIDAndLocationFunc != nil {
		return m.FindByTaxIDAndLocationFunc(ctx, taxID, locationName)
	}
	return nil, nil
}

// Create calls the mock function if set, otherwise returns ErrUnexpectedCall.
func (m *MockCompanyRepository) Create(ctx context.Context, c company.Company) (uuid.UUID, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	return uuid.Nil, ErrUnexpectedCall
}

// MockCompanyResolver is a mock implementation of invoice.CompanyResolver for testing.
type MockCompanyResolver struct {
	ResolveFunc func(ctx context.Context, issuer invoice.Issuer) (uuid.UUID, error)
}

// Resolve calls the mock function if set, otherwise returns ErrUnexpectedCall.
func (m *MockCompanyResolver) Resolve(ctx context.Context, issuer invoice.Issuer) (uuid.UUID, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, issuer)
	}
	return uuid.Nil, ErrUnexpectedCall
}

// MockInvoiceRepository is a mock implementation of invoice.Repository for testing.
type MockInvoiceRepository struct {
	CreateWithItemsFunc func(ctx context.Context, inv invoice.Invoice, items []invoice.Item) (uuid.UUID, error)
}

// CreateWithItems calls the mock function if set, otherwise returns ErrUnexpectedCall.
func (m *MockInvoiceRepository) CreateWithItems(ctx context.Context, inv invoice.Invoice, items []invoice.Item) (uuid.UUID, error) {
	if m.CreateWithItemsFunc != nil {
		return m.CreateWithItemsFunc(ctx, inv, items)
	}
	return uuid.Nil, ErrUnexpectedCall
}

// MockIngestor is a mock of the ingestion use case the HTTP handler drives.
type MockIngestor struct {
	IngestFunc func(ctx context.Context, sourceURL string, owner uuid.UUID) (invoice.IngestOutcome, error)
}

// Ingest calls the mock function if set, otherwise returns ErrUnexpectedCall.
func (m *MockIngestor) Ingest(ctx context.Context, sourceURL string, owner uuid.UUID) (invoice.IngestOutcome, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, sourceURL, owner)
	}
	return invoice.IngestOutcome{}, ErrUnexpectedCall
}
