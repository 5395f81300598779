package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/database"
)

// UniqueUserInvoiceConstraint guards one invoice number per user.
const UniqueUserInvoiceConstraint = "invoice_user_id_invoice_number_key"

// Repository implements invoice.Repository using PostgreSQL.
type Repository struct {
	db         database.DB
	invoiceTbl string
	itemTbl    string
}

// NewRepository creates an invoice repository on schema.
func NewRepository(db database.DB, schema database.Schema) *Repository {
	return &Repository{
		db:         db,
		invoiceTbl: schema.Table("invoice"),
		itemTbl:    schema.Table("invoice_item"),
	}
}

// CreateWithItems inserts the header and its items in one transaction. Items
// are sent as a single batch.
func (r *Repository) CreateWithItems(ctx context.Context, inv invoice.Invoice, items []invoice.Item) (uuid.UUID, error) {
	invoiceID, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate invoice id: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.insertHeader(ctx, tx, invoiceID, inv); err != nil {
		if constraint, ok := database.UniqueViolation(err); ok && constraint == UniqueUserInvoiceConstraint {
			return uuid.Nil, fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, invoice.ErrDuplicateInvoice)
		}
		return uuid.Nil, fmt.Errorf("insert invoice: %w", err)
	}

	if err := r.insertItems(ctx, tx, invoiceID, items); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit transaction: %w", err)
	}

	return invoiceID, nil
}

func (r *Repository) insertHeader(ctx context.Context, tx pgx.Tx, id uuid.UUID, inv invoice.Invoice) error {
	query := `
		INSERT INTO ` + r.invoiceTbl + ` (
			id, user_id, company_id, invoice_number, invoice_url, journal,
			total_amount, invoice_type, transaction_type, counter_extension,
			transaction_type_counter, counter_total, requested_by, signed_by,
			pft_time, is_valid, note, currency_code
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
	`

	_, err := tx.Exec(ctx, query,
		id,
		inv.UserID,
		inv.CompanyID,
		inv.InvoiceNumber,
		inv.InvoiceURL,
		inv.Journal,
		inv.TotalAmount,
		inv.InvoiceType,
		inv.TransactionType,
		inv.CounterExtension,
		inv.TransactionTypeCounter,
		inv.CounterTotal,
		inv.RequestedBy,
		inv.SignedBy,
		nullableTime(inv.PFTTime),
		inv.IsValid,
		inv.Note,
		inv.CurrencyCode,
	)
	return err
}

func (r *Repository) insertItems(ctx context.Context, tx pgx.Tx, invoiceID uuid.UUID, items []invoice.Item) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO ` + r.itemTbl + ` (
			id, invoice_id, item_order, name, unit_price, quantity, total,
			tax_base_amount, vat_amount, description, label_id, category_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		itemID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate item id: %w", err)
		}
		batch.Queue(query,
			itemID,
			invoiceID,
			item.ItemOrder,
			item.Name,
			item.UnitPrice,
			item.Quantity,
			item.Total,
			item.TaxBaseAmount,
			item.VATAmount,
			item.Description,
			item.LabelID,
			item.CategoryID,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, item := range items {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("insert item %d: %w", item.ItemOrder, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close item batch: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
