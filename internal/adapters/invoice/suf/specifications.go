package suf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"3tcapital/ms_fiscal_receipts/internal/core/invoice"
	ctxutil "3tcapital/ms_fiscal_receipts/internal/infrastructure/context"
	httpx "3tcapital/ms_fiscal_receipts/internal/infrastructure/http"
)

const opFetchLineItems = "fetch_line_items"

// nullToken is what the portal page itself sends when it has no token.
const nullToken = "null"

// specificationsSchema describes the envelope of a specifications answer.
// "items" is only checked element-wise when it is an array; a missing or
// non-array value is a well-formed answer without items.
const specificationsSchema = `{
	"type": "object",
	"required": ["success"],
	"properties": {
		"success": {"type": "boolean"},
		"items": {
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": ["string", "null"]},
					"label": {"type": ["string", "null"]},
					"unitPrice": {"type": ["number", "null"]},
					"quantity": {"type": ["number", "null"]},
					"total": {"type": ["number", "null"]},
					"taxBaseAmount": {"type": ["number", "null"]},
					"vatAmount": {"type": ["number", "null"]}
				}
			}
		}
	}
}`

// specificationsResponse is decoded only after the schema accepted the body.
type specificationsResponse struct {
	Success bool            `json:"success"`
	Items   json.RawMessage `json:"items"`
}

// LineItemFetcher exchanges an invoice number and session token for the
// itemized lines at the portal's specifications endpoint.
type LineItemFetcher struct {
	client   HTTPClient
	endpoint string
	schema   *jsonschema.Schema
	breaker  *CircuitBreaker
	log      *slog.Logger
}

// NewLineItemFetcher creates a line item fetcher posting to endpoint.
// breaker may be nil.
func NewLineItemFetcher(client HTTPClient, endpoint string, breaker *CircuitBreaker, log *slog.Logger) (*LineItemFetcher, error) {
	schema, err := compileSpecificationsSchema()
	if err != nil {
		return nil, err
	}
	return &LineItemFetcher{
		client:   client,
		endpoint: endpoint,
		schema:   schema,
		breaker:  breaker,
		log:      log,
	}, nil
}

func compileSpecificationsSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("specifications.json", strings.NewReader(specificationsSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("specifications.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// FetchItems implements invoice.LineItemFetcher. It never fails: transport
// and decoding problems come back as a LineItemsMalformed result.
func (f *LineItemFetcher) FetchItems(ctx context.Context, invoiceNumber string, token *invoice.SessionToken) invoice.LineItemFetchResult {
	result := f.fetch(ctx, invoiceNumber, token)

	log := f.log.With(
		"correlation_id", ctxutil.GetCorrelationID(ctx),
		"invoice_number", invoiceNumber,
		"outcome", result.Outcome.String(),
	)
	if result.Outcome == invoice.LineItemsMalformed {
		log.Warn("line items unavailable", "error", result.Err)
	} else {
		log.Debug("line items fetched", "items", len(result.Items))
	}
	return result
}

func (f *LineItemFetcher) fetch(ctx context.Context, invoiceNumber string, token *invoice.SessionToken) invoice.LineItemFetchResult {
	form := url.Values{}
	form.Set("invoiceNumber", invoiceNumber)
	if token != nil {
		form.Set("token", string(*token))
	} else {
		form.Set("token", nullToken)
	}

	req, err := http.NewRequestWithContext(httpx.WithOperation(ctx, opFetchLineItems), http.MethodPost, f.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return malformed(fmt.Errorf("%s: build request: %w", opFetchLineItems, err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json")

	var body []byte
	err = f.breaker.Execute(ctx, func() error {
		var doErr error
		body, doErr = do(f.client, opFetchLineItems, req)
		return doErr
	})
	if err != nil {
		return malformed(err)
	}

	return f.classify(body)
}

// classify maps a 2xx body to exactly one outcome.
func (f *LineItemFetcher) classify(body []byte) invoice.LineItemFetchResult {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return malformed(&DecodeError{Operation: opFetchLineItems, Err: err})
	}
	if err := f.schema.Validate(raw); err != nil {
		return malformed(&DecodeError{Operation: opFetchLineItems, Err: err})
	}

	var resp specificationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return malformed(&DecodeError{Operation: opFetchLineItems, Err: err})
	}
	if !resp.Success || !isArray(resp.Items) {
		return invoice.LineItemFetchResult{Outcome: invoice.LineItemsEmpty}
	}

	var items []invoice.LineItemSpecification
	if err := json.Unmarshal(resp.Items, &items); err != nil {
		return malformed(&DecodeError{Operation: opFetchLineItems, Err: err})
	}
	return invoice.LineItemFetchResult{Outcome: invoice.LineItemsFound, Items: items}
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func malformed(err error) invoice.LineItemFetchResult {
	return invoice.LineItemFetchResult{Outcome: invoice.LineItemsMalformed, Err: err}
}
