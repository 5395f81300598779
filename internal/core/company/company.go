package company

import (
	"time"

	"github.com/google/uuid"
)

// Company is the issuer of fiscal invoices. It is identified by the pair
// (TaxID, LocationName): one tax payer may run several stores.
type Company struct {
	ID                 uuid.UUID `json:"id"`
	TaxID              string    `json:"tax_id"`
	BusinessName       string    `json:"business_name"`
	LocationName       string    `json:"location_name"`
	City               string    `json:"city"`
	AdministrativeUnit string    `json:"administrative_unit"`
	Address            string    `json:"address"`
	CreatedAt          time.Time `json:"created_at"`
}
