package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ DB = (*pgxpool.Pool)(nil)

func TestUniqueViolation(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantOK         bool
		wantConstraint string
	}{
		{
			name:           "unique violation",
			err:            &pgconn.PgError{Code: "23505", ConstraintName: "invoice_user_id_invoice_number_key"},
			wantOK:         true,
			wantConstraint: "invoice_user_id_invoice_number_key",
		},
		{
			name:           "wrapped unique violation",
			err:            fmt.Errorf("insert invoice: %w", &pgconn.PgError{Code: "23505", ConstraintName: "company_tax_id_location_name_key"}),
			wantOK:         true,
			wantConstraint: "company_tax_id_location_name_key",
		},
		{
			name: "foreign key violation",
			err:  &pgconn.PgError{Code: "23503", ConstraintName: "invoice_company_id_fkey"},
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			constraint, ok := UniqueViolation(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if constraint != tt.wantConstraint {
				t.Errorf("expected constraint %q, got %q", tt.wantConstraint, constraint)
			}
		})
	}
}
