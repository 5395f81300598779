package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
	ctxutil "3tcapital/ms_fiscal_receipts/internal/infrastructure/context"
	httperrors "3tcapital/ms_fiscal_receipts/internal/infrastructure/http"
)

// maxRequestBody caps the JSON body of a fetch request.
const maxRequestBody = 64 << 10

const (
	msgCreated      = "Invoice created successfully"
	msgAlreadyAdded = "This invoice has already been added to your account"
)

// Ingestor is the ingestion use case behind the endpoint.
type Ingestor interface {
	Ingest(ctx context.Context, sourceURL string, owner uuid.UUID) (invoice.IngestOutcome, error)
}

// Handler bridges HTTP traffic with the invoice ingestion service.
type Handler struct {
	ingestor Ingestor
	log      *slog.Logger
}

// NewHandler creates a new invoice HTTP handler.
func NewHandler(ingestor Ingestor, log *slog.Logger) *Handler {
	return &Handler{ingestor: ingestor, log: log}
}

// FetchInvoiceRequest is the body of a fetch request.
type FetchInvoiceRequest struct {
	URL string `json:"url"`
}

// FetchInvoiceResponse is returned for created and duplicate invoices alike.
type FetchInvoiceResponse struct {
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	InvoiceID     *uuid.UUID `json:"invoice_id,omitempty"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	Items         *int       `json:"items,omitempty"`
}

// methodNotAllowed matches the body the router sends for unknown verbs.
type methodNotAllowed struct {
	Error string `json:"error"`
}

// ServeHTTP handles every verb on the fetch route: OPTIONS preflight, POST
// ingestion, and 405 for the rest.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	case http.MethodPost:
		h.FetchInvoice(w, r)
	default:
		httperrors.WriteJSON(w, http.StatusMethodNotAllowed, methodNotAllowed{Error: "Method not allowed"}, h.log)
	}
}

// FetchInvoice handles POST /api/v1/invoices/fetch requests.
func (h *Handler) FetchInvoice(w http.ResponseWriter, r *http.Request) {
	var reqBody FetchInvoiceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&reqBody); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", []string{"request body must be a JSON object with a url field"}, h.log)
		return
	}

	owner, ok := ctxutil.GetUserID(r.Context())
	if !ok {
		httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{"an authenticated user is required"}, h.log)
		return
	}

	outcome, err := h.ingestor.Ingest(r.Context(), reqBody.URL, owner)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response := FetchInvoiceResponse{
		Status:        string(outcome.Status),
		InvoiceNumber: outcome.InvoiceNumber,
	}
	switch outcome.Status {
	case invoice.IngestAlreadyAdded:
		response.Message = msgAlreadyAdded
	default:
		response.Message = msgCreated
		response.InvoiceID = &outcome.InvoiceID
		response.Items = &outcome.ItemCount
	}
	httperrors.WriteJSON(w, http.StatusOK, response, h.log)
}

// handleError maps ingestion errors to HTTP responses. Upstream and storage
// details are logged, never returned.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, invoice.ErrMissingSourceURL):
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", []string{"url is required"}, h.log)
		return
	case errors.Is(err, invoice.ErrInvalidSourceURL):
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", []string{"url must be a fiscal invoice verification link"}, h.log)
		return
	case errors.Is(err, invoice.ErrMissingOwner):
		httperrors.WriteError(w, http.StatusUnauthorized, "Unauthorized", []string{"an authenticated user is required"}, h.log)
		return
	}

	message := "Failed to process invoice and items"
	switch {
	case errors.Is(err, invoice.ErrFetchFailed):
		message = "Failed to fetch invoice"
	case errors.Is(err, invoice.ErrCompanyResolutionFailed):
		message = "Failed to process company"
	case errors.Is(err, invoice.ErrPersistenceFailed):
		message = "Failed to create invoice and items in transaction"
	}

	h.log.Error("invoice ingestion failed",
		"correlation_id", ctxutil.GetCorrelationID(r.Context()),
		"error", err,
	)
	httperrors.WriteError(w, http.StatusInternalServerError, message, nil, h.log)
}
