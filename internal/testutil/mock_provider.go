package testutil

import (
	"context"

	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
)

// MockDocumentFetcher is a mock implementation of invoice.DocumentFetcher for testing.
type MockDocumentFetcher struct {
	FetchFunc func(ctx context.Context, sourceURL string) (*invoice.Document, invoice.RawPage, error)
}

// Fetch calls the mock function if set, otherwise returns ErrUnexpectedCall.
func (m *MockDocumentFetcher) Fetch(ctx context.Context, sourceURL string) (*invoice.Document, invoice.RawPage, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, sourceURL)
	}
	return nil, "", ErrUnexpectedCall
}

// MockTokenExtractor is a mock implementation of invoice.TokenExtractor for testing.
type MockTokenExtractor struct {
	ExtractFunc func(page invoice.RawPage) (invoice.SessionToken, bool)
}

// Extract calls the mock function if set, otherwise reports no token.
func (m *MockTokenExtractor) Extract(page invoice.RawPage) (invoice.SessionToken, bool) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(page)
	}
	return "", false
}

// MockLineItemFetcher is a mock implementation of invoice.LineItemFetcher for testing.
type MockLineItemFetcher struct {
	FetchItemsFunc func(ctx context.Context, invoiceNumber string, token *invoice.SessionToken) invoice.LineItemFetchResult
}

// FetchItems calls the mock function if set, otherwise returns an empty result.
func (m *MockLineItemFetcher) FetchItems(ctx context.Context, invoiceNumber string, token *invoice.SessionToken) invoice.LineItemFetchResult {
	if m.FetchItemsFunc != nil {
		return m.FetchItemsFunc(ctx, invoiceNumber, token)
	}
	return invoice.LineItemFetchResult{Outcome: invoice.LineItemsEmpty}
}
