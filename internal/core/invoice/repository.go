package invoice

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence operations the ingestion needs.
type Repository interface {
	// CreateWithItems writes the header and all items in one transaction and
	// returns the new invoice id. A violation of the (user, invoice number)
	// uniqueness constraint is reported wrapping ErrDuplicateInvoice, and no
	// row is written in that case.
	CreateWithItems(ctx context.Context, inv Invoice, items []Item) (uuid.UUID, error)
}
