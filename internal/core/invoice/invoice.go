package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is the persisted header of an ingested fiscal invoice.
// (UserID, InvoiceNumber) is unique in storage.
type Invoice struct {
	ID                     uuid.UUID
	UserID                 uuid.UUID
	CompanyID              uuid.UUID
	InvoiceNumber          string
	InvoiceURL             string
	Journal                string
	TotalAmount            decimal.Decimal
	InvoiceType            string
	TransactionType        string
	CounterExtension       string
	TransactionTypeCounter int64
	CounterTotal           int64
	RequestedBy            string
	SignedBy               string
	PFTTime                time.Time
	IsValid                bool
	Note                   *string
	CurrencyCode           string
	CreatedAt              time.Time
}

// Item is one persisted line of an invoice.
type Item struct {
	ID            uuid.UUID
	InvoiceID     uuid.UUID
	ItemOrder     int
	Name          string
	UnitPrice     decimal.Decimal
	Quantity      decimal.Decimal
	Total         decimal.Decimal
	TaxBaseAmount decimal.Decimal
	VATAmount     decimal.Decimal
	Description   *string
	LabelID       uuid.UUID
	// CategoryID is assigned later by the user.
	CategoryID *uuid.UUID
}

// NewInvoice maps a fetched document to the header to persist.
func NewInvoice(doc *Document, sourceURL string, userID, companyID uuid.UUID, currency string) Invoice {
	return Invoice{
		UserID:                 userID,
		CompanyID:              companyID,
		InvoiceNumber:          doc.Result.InvoiceNumber,
		InvoiceURL:             sourceURL,
		Journal:                doc.Journal,
		TotalAmount:            doc.Result.TotalAmount,
		InvoiceType:            string(doc.Request.InvoiceType),
		TransactionType:        string(doc.Request.TransactionType),
		CounterExtension:       doc.Result.InvoiceCounterExtension,
		TransactionTypeCounter: doc.Result.TransactionTypeCounter,
		CounterTotal:           doc.Result.TotalCounter,
		RequestedBy:            doc.Request.RequestedBy,
		SignedBy:               doc.Result.SignedBy,
		PFTTime:                doc.Result.SDCTime.Time,
		IsValid:                doc.IsValid,
		CurrencyCode:           currency,
	}
}

// NewItems maps specifications to persisted items. ItemOrder is the 1-based
// position in specs and the label is resolved through ResolveLabel.
func NewItems(specs []LineItemSpecification) []Item {
	items := make([]Item, 0, len(specs))
	for i, spec := range specs {
		items = append(items, Item{
			ItemOrder:     i + 1,
			Name:          spec.Name,
			UnitPrice:     spec.UnitPrice,
			Quantity:      spec.Quantity,
			Total:         spec.Total,
			TaxBaseAmount: spec.TaxBaseAmount,
			VATAmount:     spec.VATAmount,
			LabelID:       ResolveLabel(spec.Label),
		})
	}
	return items
}
