package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
	ctxutil "3tcapital/ms_fiscal_receipts/internal/infrastructure/context"
)

// State is a step of an ingestion run.
type State string

const (
	StateFetching          State = "fetching"
	StateCompanyResolving  State = "company_resolving"
	StateTokenExtracting   State = "token_extracting"
	StateItemsFetching     State = "items_fetching"
	StatePersisting        State = "persisting"
	StateCommitted         State = "committed"
	StateDuplicateRejected State = "duplicate_rejected"
	StateFailed            State = "failed"
)

// Config holds the ingestion settings that do not come from the portal.
type Config struct {
	Currency     string   // currency code stored on every invoice
	AllowedHosts []string // hosts a source URL may point to; empty allows any
}

// Service ingests fiscal invoices published on the verification portal.
// A run moves linearly through the states above and never retries.
type Service struct {
	documents invoice.DocumentFetcher
	tokens    invoice.TokenExtractor
	items     invoice.LineItemFetcher
	companies invoice.CompanyResolver
	repo      invoice.Repository
	cfg       Config
	log       *slog.Logger
}

// NewService creates the ingestion service.
func NewService(documents invoice.DocumentFetcher, tokens invoice.TokenExtractor, items invoice.LineItemFetcher, companies invoice.CompanyResolver, repo invoice.Repository, cfg Config, log *slog.Logger) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "RSD"
	}
	return &Service{
		documents: documents,
		tokens:    tokens,
		items:     items,
		companies: companies,
		repo:      repo,
		cfg:       cfg,
		log:       log,
	}
}

// run carries the state of one ingestion for logging.
type run struct {
	log           *slog.Logger
	state         State
	invoiceNumber string
}

func (r *run) enter(state State) {
	r.state = state
	r.log.Info("ingestion state", "state", state, "invoice_number", r.invoiceNumber)
}

// fail logs the state that failed and returns err unchanged.
func (r *run) fail(err error) error {
	r.log.Error("ingestion failed",
		"state", StateFailed,
		"failed_state", r.state,
		"invoice_number", r.invoiceNumber,
		"error", err,
	)
	r.state = StateFailed
	return err
}

// Ingest fetches the invoice at sourceURL and stores it for owner.
//
// A duplicate (owner, invoice number) is not an error: it returns an outcome
// with IngestAlreadyAdded. Errors wrap one of ErrMissingOwner,
// ErrMissingSourceURL, ErrInvalidSourceURL (the run never started),
// ErrFetchFailed, ErrCompanyResolutionFailed or ErrPersistenceFailed.
// A company created before a later failure is kept.
func (s *Service) Ingest(ctx context.Context, sourceURL string, owner uuid.UUID) (invoice.IngestOutcome, error) {
	if owner == uuid.Nil {
		return invoice.IngestOutcome{}, invoice.ErrMissingOwner
	}
	if err := invoice.ValidateSourceURL(sourceURL, s.cfg.AllowedHosts); err != nil {
		return invoice.IngestOutcome{}, err
	}

	r := &run{log: s.log.With(
		"correlation_id", ctxutil.GetCorrelationID(ctx),
		"user_id", owner,
	)}

	r.enter(StateFetching)
	doc, page, err := s.documents.Fetch(ctx, sourceURL)
	if err != nil {
		return invoice.IngestOutcome{}, r.fail(wrapAs(invoice.ErrFetchFailed, err))
	}
	r.invoiceNumber = doc.Result.InvoiceNumber

	r.enter(StateCompanyResolving)
	companyID, err := s.companies.Resolve(ctx, doc.Issuer())
	if err != nil {
		return invoice.IngestOutcome{}, r.fail(wrapAs(invoice.ErrCompanyResolutionFailed, err))
	}

	r.enter(StateTokenExtracting)
	var token *invoice.SessionToken
	if t, ok := s.tokens.Extract(page); ok {
		token = &t
	} else {
		r.log.Warn("session token not found", "invoice_number", r.invoiceNumber)
	}

	r.enter(StateItemsFetching)
	fetched := s.items.FetchItems(ctx, r.invoiceNumber, token)
	specs := fetched.Specifications()
	if fetched.Outcome != invoice.LineItemsFound {
		r.log.Warn("storing invoice without items",
			"invoice_number", r.invoiceNumber,
			"outcome", fetched.Outcome.String(),
		)
	}

	r.enter(StatePersisting)
	header := invoice.NewInvoice(doc, sourceURL, owner, companyID, s.cfg.Currency)
	items := invoice.NewItems(specs)
	invoiceID, err := s.repo.CreateWithItems(ctx, header, items)
	switch {
	case errors.Is(err, invoice.ErrDuplicateInvoice):
		r.enter(StateDuplicateRejected)
		return invoice.IngestOutcome{
			Status:        invoice.IngestAlreadyAdded,
			InvoiceNumber: r.invoiceNumber,
		}, nil
	case err != nil:
		return invoice.IngestOutcome{}, r.fail(wrapAs(invoice.ErrPersistenceFailed, err))
	}

	r.enter(StateCommitted)
	return invoice.IngestOutcome{
		Status:        invoice.IngestCreated,
		InvoiceID:     invoiceID,
		InvoiceNumber: r.invoiceNumber,
		ItemCount:     len(items),
	}, nil
}

// wrapAs makes sure err matches sentinel with errors.Is.
func wrapAs(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
