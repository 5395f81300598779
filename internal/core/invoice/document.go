package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Document is the machine-readable representation of a fiscal invoice as
// published by the verification portal. It is never mutated after decoding.
type Document struct {
	IsValid bool           `json:"isValid"`
	Journal string         `json:"journal"`
	Request InvoiceRequest `json:"invoiceRequest"`
	Result  InvoiceResult  `json:"invoiceResult"`
}

// InvoiceRequest carries the issuer descriptor and the request-side codes.
type InvoiceRequest struct {
	TaxID              string `json:"taxId"`
	BusinessName       string `json:"businessName"`
	LocationName       string `json:"locationName"`
	City               string `json:"city"`
	AdministrativeUnit string `json:"administrativeUnit"`
	Address            string `json:"address"`
	InvoiceType        Code   `json:"invoiceType"`
	TransactionType    Code   `json:"transactionType"`
	RequestedBy        string `json:"requestedBy"`
}

// InvoiceResult carries the portal-assigned number, totals and counters.
type InvoiceResult struct {
	InvoiceNumber           string          `json:"invoiceNumber"`
	TotalAmount             decimal.Decimal `json:"totalAmount"`
	InvoiceCounterExtension string          `json:"invoiceCounterExtension"`
	TransactionTypeCounter  int64           `json:"transactionTypeCounter"`
	TotalCounter            int64           `json:"totalCounter"`
	SignedBy                string          `json:"signedBy"`
	SDCTime                 PortalTime      `json:"sdcTime"`
}

// Issuer returns the company descriptor embedded in the document.
func (d *Document) Issuer() Issuer {
	return Issuer{
		TaxID:              d.Request.TaxID,
		LocationName:       d.Request.LocationName,
		BusinessName:       d.Request.BusinessName,
		City:               d.Request.City,
		AdministrativeUnit: d.Request.AdministrativeUnit,
		Address:            d.Request.Address,
	}
}

// Issuer describes the business that produced the invoice.
type Issuer struct {
	TaxID              string
	LocationName       string
	BusinessName       string
	City               string
	AdministrativeUnit string
	Address            string
}

// Code is an enumeration value the portal serializes either as a number or
// as a string depending on the endpoint version.
type Code string

// UnmarshalJSON accepts JSON strings and numbers.
func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

// PortalTime is a signing timestamp. The portal writes RFC 3339 with an
// offset, but older documents omit the offset; those are read as Belgrade
// local time.
type PortalTime struct {
	time.Time
}

var portalLocation = loadPortalLocation()

func loadPortalLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Belgrade")
	if err != nil {
		return time.UTC
	}
	return loc
}

// UnmarshalJSON accepts RFC 3339 timestamps with or without an offset, and null.
func (t *PortalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, portalLocation)
	if err != nil {
		return fmt.Errorf("parse portal time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// RawPage is the HTML rendering of an invoice. It is only kept long enough
// to recover the session token.
type RawPage string

// SessionToken is the UUID-shaped token the specifications endpoint expects.
type SessionToken string

// LineItemSpecification is one row returned by the specifications endpoint.
type LineItemSpecification struct {
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Quantity      decimal.Decimal `json:"quantity"`
	Total         decimal.Decimal `json:"total"`
	TaxBaseAmount decimal.Decimal `json:"taxBaseAmount"`
	VATAmount     decimal.Decimal `json:"vatAmount"`
	Label         string          `json:"label"`
}
