package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"3tcapital/ms_fiscal_receipts/internal/core/audit"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/database"
)

// Repository implements audit.Repository on the portal_audit_log table.
type Repository struct {
	db    database.DB
	log   *slog.Logger
	table string
}

// NewRepository creates a Postgres audit repository for schema. log may be nil.
func NewRepository(db database.DB, schema database.Schema, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log, table: schema.Table("portal_audit_log")}
}

// Save persists one portal call.
func (r *Repository) Save(ctx context.Context, call audit.PortalCall) error {
	query := `
		INSERT INTO ` + r.table + ` (
			correlation_id, portal, operation, request_method, request_url,
			request_headers, request_body, response_status, response_headers,
			response_body, duration_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	requestHeaders, err := marshalHeaders(call.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}
	responseHeaders, err := marshalHeaders(call.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	_, err = r.db.Exec(ctx, query,
		call.CorrelationID,
		call.Portal,
		call.Operation,
		call.RequestMethod,
		call.RequestURL,
		requestHeaders,
		nullableJSON(call.RequestBody),
		call.ResponseStatus,
		responseHeaders,
		nullableJSON(call.ResponseBody),
		call.DurationMs,
		call.ErrorMessage,
	)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to insert portal audit log",
				"correlation_id", call.CorrelationID,
				"operation", call.Operation,
				"error", err,
			)
		}
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

// FindByCorrelationID returns the calls made for one inbound request, newest first.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.PortalCall, error) {
	query := `
		SELECT id, correlation_id, portal, operation, request_method, request_url,
		       request_headers, request_body, response_status, response_headers,
		       response_body, duration_ms, error_message, created_at
		FROM ` + r.table + `
		WHERE correlation_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var calls []audit.PortalCall
	for rows.Next() {
		var call audit.PortalCall
		var requestHeaders, responseHeaders []byte

		err := rows.Scan(
			&call.ID,
			&call.CorrelationID,
			&call.Portal,
			&call.Operation,
			&call.RequestMethod,
			&call.RequestURL,
			&requestHeaders,
			&call.RequestBody,
			&call.ResponseStatus,
			&responseHeaders,
			&call.ResponseBody,
			&call.DurationMs,
			&call.ErrorMessage,
			&call.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}

		if call.RequestHeaders, err = unmarshalHeaders(requestHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal request headers: %w", err)
		}
		if call.ResponseHeaders, err = unmarshalHeaders(responseHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal response headers: %w", err)
		}

		calls = append(calls, call)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return calls, nil
}

func marshalHeaders(headers map[string]string) ([]byte, error) {
	if headers == nil {
		headers = map[string]string{}
	}
	return json.Marshal(headers)
}

func unmarshalHeaders(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var headers map[string]string
	if err := json.Unmarshal(raw, &headers); err != nil {
		return nil, err
	}
	return headers, nil
}

// nullableJSON maps an empty body to SQL NULL.
func nullableJSON(body json.RawMessage) any {
	if len(body) == 0 {
		return nil
	}
	return []byte(body)
}
