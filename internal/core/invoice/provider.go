package invoice

import "context"

// DocumentFetcher retrieves both representations of an invoice published at
// a portal URL. The two reads are independent and not atomic together.
type DocumentFetcher interface {
	// Fetch returns the decoded JSON document and the raw HTML page.
	// Any failure is reported wrapping ErrFetchFailed.
	Fetch(ctx context.Context, sourceURL string) (*Document, RawPage, error)
}

// TokenExtractor recovers the session token embedded in an invoice page.
// A missing token is a normal result, reported through ok == false.
type TokenExtractor interface {
	Extract(page RawPage) (token SessionToken, ok bool)
}

// LineItemFetcher exchanges an invoice number and session token for the
// itemized lines. It never fails; problems are reported in the result.
type LineItemFetcher interface {
	FetchItems(ctx context.Context, invoiceNumber string, token *SessionToken) LineItemFetchResult
}

// LineItemOutcome tags the shape of a specifications response.
type LineItemOutcome int

const (
	// LineItemsMalformed covers transport failures and responses that do not
	// match the expected envelope.
	LineItemsMalformed LineItemOutcome = iota
	// LineItemsEmpty is a well-formed response without usable items.
	LineItemsEmpty
	// LineItemsFound is a successful response carrying an items array.
	LineItemsFound
)

func (o LineItemOutcome) String() string {
	switch o {
	case LineItemsFound:
		return "found"
	case LineItemsEmpty:
		return "empty"
	default:
		return "malformed"
	}
}

// LineItemFetchResult is the tagged result of a specifications exchange.
type LineItemFetchResult struct {
	Outcome LineItemOutcome
	Items   []LineItemSpecification
	// Err explains a malformed outcome. It is informational only.
	Err error
}

// Specifications returns the items to persist. Only LineItemsFound yields
// any; the other outcomes degrade to an empty sequence.
func (r LineItemFetchResult) Specifications() []LineItemSpecification {
	if r.Outcome != LineItemsFound {
		return nil
	}
	return r.Items
}
