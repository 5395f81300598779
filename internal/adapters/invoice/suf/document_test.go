package suf

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
	"3tcapital/ms_fiscal_receipts/internal/testutil"
)

const (
	documentJSON = `{
		"isValid": true,
		"journal": "===== ФИСКАЛНИ РАЧУН =====",
		"invoiceRequest": {"taxId": "100000001", "locationName": "Maxi 42", "businessName": "Maxi DOO", "invoiceType": "Normal", "transactionType": "Sale"},
		"invoiceResult": {"invoiceNumber": "AB12CD34-AB12CD34-1234", "totalAmount": 499.99, "sdcTime": "2026-02-03T14:05:00+01:00"}
	}`
	documentPage = `<html><script>viewModel.Token('3f2b8c1e-9d4a-4e6b-8a7c-0b1d2e3f4a5b');</script></html>`
)

// portalServer answers JSON to POST and HTML to GET, like the portal's
// invoice verification URL.
func portalServer(t *testing.T, jsonStatus, pageStatus int, jsonBody string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("expected Accept application/json, got %q", r.Header.Get("Accept"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(jsonStatus)
			w.Write([]byte(jsonBody))
		case http.MethodGet:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(pageStatus)
			w.Write([]byte(documentPage))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDocumentFetcher_Fetch_Success(t *testing.T) {
	server := portalServer(t, http.StatusOK, http.StatusOK, documentJSON)
	fetcher := NewDocumentFetcher(server.Client(), nil, testutil.NewTestLogger())

	doc, page, err := fetcher.Fetch(context.Background(), server.URL+"/v/?vl=abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Result.InvoiceNumber != "AB12CD34-AB12CD34-1234" {
		t.Errorf("unexpected invoice number %q", doc.Result.InvoiceNumber)
	}
	if doc.Issuer().LocationName != "Maxi 42" {
		t.Errorf("unexpected issuer %+v", doc.Issuer())
	}
	if !strings.Contains(string(page), "viewModel.Token") {
		t.Errorf("expected raw page, got %q", page)
	}
}

func TestDocumentFetcher_Fetch_Failures(t *testing.T) {
	tests := []struct {
		name       string
		jsonStatus int
		pageStatus int
		jsonBody   string
	}{
		{"document not found", http.StatusNotFound, http.StatusOK, documentJSON},
		{"page unavailable", http.StatusOK, http.StatusBadGateway, documentJSON},
		{"document is html", http.StatusOK, http.StatusOK, documentPage},
		{"missing invoice number", http.StatusOK, http.StatusOK, `{"invoiceRequest": {"taxId": "100000001"}, "invoiceResult": {}}`},
		{"missing tax id", http.StatusOK, http.StatusOK, `{"invoiceRequest": {}, "invoiceResult": {"invoiceNumber": "X-1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := portalServer(t, tt.jsonStatus, tt.pageStatus, tt.jsonBody)
			fetcher := NewDocumentFetcher(server.Client(), nil, testutil.NewTestLogger())

			doc, page, err := fetcher.Fetch(context.Background(), server.URL)
			if !errors.Is(err, invoice.ErrFetchFailed) {
				t.Fatalf("expected ErrFetchFailed, got %v", err)
			}
			if doc != nil || page != "" {
				t.Error("expected no partial result")
			}
		})
	}
}

func TestDocumentFetcher_Fetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	fetcher := NewDocumentFetcher(http.DefaultClient, nil, testutil.NewTestLogger())
	if _, _, err := fetcher.Fetch(context.Background(), url); !errors.Is(err, invoice.ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got %v", err)
	}
}

func TestDocumentFetcher_Fetch_OpenCircuitSkipsPortal(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	breaker := NewCircuitBreaker(1, 0.5, 0)
	fetcher := NewDocumentFetcher(server.Client(), breaker, testutil.NewTestLogger())

	if _, _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error")
	}
	if breaker.State() != CircuitBreakerOpen {
		t.Fatalf("expected open circuit, got %s", breaker.State())
	}

	before := hits.Load()
	_, _, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, invoice.ErrFetchFailed) || !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected fetch failure caused by open circuit, got %v", err)
	}
	if hits.Load() != before {
		t.Errorf("expected no portal hits while open, got %d more", hits.Load()-before)
	}
}

var _ invoice.DocumentFetcher = (*DocumentFetcher)(nil)
