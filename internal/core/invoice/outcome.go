package invoice

import (
	"context"

	"github.com/google/uuid"
)

// IngestStatus is the successful end state of an ingestion run.
type IngestStatus string

const (
	// IngestCreated means the invoice and its items were committed.
	IngestCreated IngestStatus = "created"
	// IngestAlreadyAdded means the owner had already stored this invoice
	// number. Nothing was written.
	IngestAlreadyAdded IngestStatus = "already_added"
)

// IngestOutcome is returned for every run that did not fail.
type IngestOutcome struct {
	Status        IngestStatus
	InvoiceID     uuid.UUID // zero unless Status is IngestCreated
	InvoiceNumber string
	ItemCount     int
}

// CompanyResolver maps an issuer to a company id, creating it if needed.
type CompanyResolver interface {
	Resolve(ctx context.Context, issuer Issuer) (uuid.UUID, error)
}
