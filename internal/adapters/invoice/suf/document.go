package suf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
	httpx "3tcapital/ms_fiscal_receipts/internal/infrastructure/http"
)

const (
	opFetchDocument = "fetch_document"
	opFetchPage     = "fetch_page"
)

// DocumentFetcher reads the JSON document and the HTML page published at an
// invoice URL. Both reads run concurrently; either failing fails the fetch.
type DocumentFetcher struct {
	client  HTTPClient
	breaker *CircuitBreaker
	log     *slog.Logger
}

// NewDocumentFetcher creates a document fetcher. breaker may be nil.
func NewDocumentFetcher(client HTTPClient, breaker *CircuitBreaker, log *slog.Logger) *DocumentFetcher {
	return &DocumentFetcher{client: client, breaker: breaker, log: log}
}

// Fetch implements invoice.DocumentFetcher.
func (f *DocumentFetcher) Fetch(ctx context.Context, sourceURL string) (*invoice.Document, invoice.RawPage, error) {
	var (
		doc  *invoice.Document
		page invoice.RawPage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		doc, err = f.fetchDocument(gctx, sourceURL)
		return err
	})
	g.Go(func() error {
		var err error
		page, err = f.fetchPage(gctx, sourceURL)
		return err
	})

	if err := g.Wait(); err != nil {
		f.log.Warn("invoice fetch failed", "error", err)
		return nil, "", fmt.Errorf("%w: %w", invoice.ErrFetchFailed, err)
	}
	return doc, page, nil
}

func (f *DocumentFetcher) fetchDocument(ctx context.Context, sourceURL string) (*invoice.Document, error) {
	req, err := http.NewRequestWithContext(httpx.WithOperation(ctx, opFetchDocument), http.MethodPost, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", opFetchDocument, err)
	}
	req.Header.Set("Accept", "application/json")

	var body []byte
	err = f.breaker.Execute(ctx, func() error {
		var doErr error
		body, doErr = do(f.client, opFetchDocument, req)
		return doErr
	})
	if err != nil {
		return nil, err
	}

	var doc invoice.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &DecodeError{Operation: opFetchDocument, Err: err}
	}
	if doc.Result.InvoiceNumber == "" {
		return nil, &DecodeError{Operation: opFetchDocument, Err: errors.New("invoice number is missing")}
	}
	if doc.Request.TaxID == "" {
		return nil, &DecodeError{Operation: opFetchDocument, Err: errors.New("issuer tax id is missing")}
	}
	return &doc, nil
}

func (f *DocumentFetcher) fetchPage(ctx context.Context, sourceURL string) (invoice.RawPage, error) {
	req, err := http.NewRequestWithContext(httpx.WithOperation(ctx, opFetchPage), http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", opFetchPage, err)
	}

	var body []byte
	err = f.breaker.Execute(ctx, func() error {
		var doErr error
		body, doErr = do(f.client, opFetchPage, req)
		return doErr
	})
	if err != nil {
		return "", err
	}
	return invoice.RawPage(body), nil
}
