package company

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrAlreadyExists is returned by Create when another writer inserted the
// same (tax id, location name) pair first.
var ErrAlreadyExists = errors.New("company already exists")

// Repository defines the interface for company persistence operations.
type Repository interface {
	// FindByTaxIDAndLocation retrieves a company by its natural key.
	// Returns nil if not found.
	FindByTaxIDAndLocation(ctx context.Context, taxID, locationName string) (*Company, error)

	// Create persists a new company and returns its ID.
	Create(ctx context.Context, company Company) (uuid.UUID, error)
}
