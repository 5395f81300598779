package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/database"
	"3tcapital/ms_fiscal_receipts/internal/testutil"
)

var _ invoice.Repository = (*Repository)(nil)

const schema = database.Schema("expense_tracker")

func sampleInvoice() invoice.Invoice {
	return invoice.Invoice{
		UserID:        uuid.New(),
		CompanyID:     uuid.New(),
		InvoiceNumber: "AB12CD34-AB12CD34-1234",
		InvoiceURL:    "https://suf.purs.gov.rs/v/?vl=abc",
		TotalAmount:   decimal.RequireFromString("1234.56"),
		PFTTime:       time.Date(2026, 2, 3, 14, 5, 0, 0, time.UTC),
		IsValid:       true,
		CurrencyCode:  "RSD",
	}
}

func sampleItems(n int) []invoice.Item {
	specs := make([]invoice.LineItemSpecification, n)
	for i := range specs {
		specs[i] = invoice.LineItemSpecification{Name: "Item", Label: "Ђ", Total: decimal.NewFromInt(int64(i + 1))}
	}
	return invoice.NewItems(specs)
}

func TestRepository_CreateWithItems_Commits(t *testing.T) {
	var headerSQL string
	var headerArgs []any
	var batch *pgx.Batch
	tx := &testutil.FakeTx{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			headerSQL, headerArgs = sql, args
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
		SendBatchFunc: func(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
			batch = b
			return &testutil.FakeBatchResults{}
		},
	}
	db := &testutil.FakeDB{BeginFunc: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}

	inv := sampleInvoice()
	id, err := NewRepository(db, schema).CreateWithItems(context.Background(), inv, sampleItems(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id == uuid.Nil {
		t.Fatal("expected a new invoice id")
	}
	if !tx.Committed {
		t.Error("expected transaction to be committed")
	}
	if !strings.Contains(headerSQL, `INSERT INTO "expense_tracker"."invoice"`) {
		t.Errorf("expected schema qualified header insert, got %s", headerSQL)
	}
	if headerArgs[0] != id || headerArgs[1] != inv.UserID || headerArgs[3] != inv.InvoiceNumber {
		t.Errorf("unexpected header arguments %v", headerArgs[:4])
	}
	if batch == nil || batch.Len() != 3 {
		t.Fatalf("expected 3 queued item inserts, got %v", batch)
	}
	for i, q := range batch.QueuedQueries {
		if !strings.Contains(q.SQL, `"expense_tracker"."invoice_item"`) {
			t.Errorf("item %d: unexpected SQL %s", i, q.SQL)
		}
		if q.Arguments[1] != id {
			t.Errorf("item %d: expected invoice id foreign key, got %v", i, q.Arguments[1])
		}
		if q.Arguments[2] != i+1 {
			t.Errorf("item %d: expected item_order %d, got %v", i, i+1, q.Arguments[2])
		}
		if q.Arguments[10] != invoice.LabelVAT20 {
			t.Errorf("item %d: expected resolved label, got %v", i, q.Arguments[10])
		}
	}
}

func TestRepository_CreateWithItems_NoItemsSkipsBatch(t *testing.T) {
	tx := &testutil.FakeTx{
		SendBatchFunc: func(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
			t.Error("expected no batch for an invoice without items")
			return &testutil.FakeBatchResults{}
		},
	}
	db := &testutil.FakeDB{BeginFunc: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}

	if _, err := NewRepository(db, schema).CreateWithItems(context.Background(), sampleInvoice(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tx.Committed {
		t.Error("expected header-only invoice to be committed")
	}
}

func TestRepository_CreateWithItems_Failures(t *testing.T) {
	tests := []struct {
		name          string
		beginErr      error
		headerErr     error
		itemErrs      []error
		commitErr     error
		wantDuplicate bool
	}{
		{
			name:          "duplicate user invoice number",
			headerErr:     &pgconn.PgError{Code: "23505", ConstraintName: UniqueUserInvoiceConstraint},
			wantDuplicate: true,
		},
		{
			name:      "unique violation on another constraint",
			headerErr: &pgconn.PgError{Code: "23505", ConstraintName: "invoice_pkey"},
		},
		{
			name:      "foreign key violation",
			headerErr: &pgconn.PgError{Code: "23503", ConstraintName: "invoice_company_id_fkey"},
		},
		{
			name:     "item insert fails",
			itemErrs: []error{nil, errors.New("value too long")},
		},
		{
			name:     "begin fails",
			beginErr: errors.New("pool closed"),
		},
		{
			name:      "commit fails",
			commitErr: errors.New("connection lost"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &testutil.FakeTx{
				ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
					return pgconn.NewCommandTag("INSERT 0 1"), tt.headerErr
				},
				SendBatchFunc: func(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
					return &testutil.FakeBatchResults{ExecErrs: tt.itemErrs}
				},
				CommitErr: tt.commitErr,
			}
			db := &testutil.FakeDB{BeginFunc: func(ctx context.Context) (pgx.Tx, error) {
				if tt.beginErr != nil {
					return nil, tt.beginErr
				}
				return tx, nil
			}}

			id, err := NewRepository(db, schema).CreateWithItems(context.Background(), sampleInvoice(), sampleItems(2))
			if err == nil {
				t.Fatal("expected error")
			}
			if id != uuid.Nil {
				t.Errorf("expected nil id on failure, got %s", id)
			}
			if errors.Is(err, invoice.ErrDuplicateInvoice) != tt.wantDuplicate {
				t.Errorf("expected ErrDuplicateInvoice=%v, got %v", tt.wantDuplicate, err)
			}
			if tt.beginErr == nil && !tx.RolledBack {
				t.Error("expected transaction to be rolled back")
			}
			if tx.Committed {
				t.Error("expected nothing to be committed")
			}
		})
	}
}

func TestNullableTime(t *testing.T) {
	if nullableTime(time.Time{}) != nil {
		t.Error("expected zero time to map to NULL")
	}
	now := time.Now()
	if got := nullableTime(now); got == nil || !got.Equal(now) {
		t.Errorf("expected %v, got %v", now, got)
	}
}
